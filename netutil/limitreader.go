package netutil

import (
	"errors"
	"fmt"
	"io"
)

// SizeLimitExceededError reports a stream that grew past its limit.
type SizeLimitExceededError struct {
	Limit int64
	Read  int64
}

func (e *SizeLimitExceededError) Error() string {
	return fmt.Sprintf("size limit exceeded: read %d bytes, limit is %d bytes", e.Read, e.Limit)
}

// IsSizeLimitExceeded reports whether err wraps a SizeLimitExceededError.
func IsSizeLimitExceeded(err error) bool {
	var target *SizeLimitExceededError
	return errors.As(err, &target)
}

// LimitedReader reads at most Limit bytes from the underlying reader and
// fails once the stream proves longer. Unlike io.LimitReader it reports the
// overflow instead of silently truncating, probing one byte past the limit
// to tell "exactly at the limit" from "over it".
type LimitedReader struct {
	r     io.Reader
	limit int64
	read  int64
	eof   bool
}

// NewLimitedReader wraps r with a byte limit.
func NewLimitedReader(r io.Reader, limit int64) *LimitedReader {
	return &LimitedReader{r: r, limit: limit}
}

// Read implements io.Reader.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.eof {
		return 0, io.EOF
	}
	remaining := l.limit - l.read
	if remaining <= 0 {
		return 0, &SizeLimitExceededError{Limit: l.limit, Read: l.read}
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := l.r.Read(p)
	l.read += int64(n)

	// Hitting the limit exactly is only an overflow if more data follows;
	// probe one byte to tell the two apart.
	if err == nil && l.read == l.limit {
		var probe [1]byte
		extra, probeErr := l.r.Read(probe[:])
		if extra > 0 {
			l.read++
			return n, &SizeLimitExceededError{Limit: l.limit, Read: l.read}
		}
		if probeErr == io.EOF {
			l.eof = true
		} else if probeErr != nil {
			return n, probeErr
		}
	}
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (l *LimitedReader) BytesRead() int64 {
	return l.read
}

// FormatSize renders a byte count for log and error messages.
func FormatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
