package env

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// fileStoreConfig holds configuration for the FileStore.
type fileStoreConfig struct {
	path     string
	dirPerm  os.FileMode
	filePerm os.FileMode
}

func defaultFileStoreConfig() fileStoreConfig {
	return fileStoreConfig{
		path:     ".env",
		dirPerm:  0o755,
		filePerm: 0o600,
	}
}

// FileStoreOption configures a FileStore instance.
type FileStoreOption func(*fileStoreConfig)

// WithPath sets the path to the dotenv file.
func WithPath(path string) FileStoreOption {
	return func(c *fileStoreConfig) {
		if path != "" {
			c.path = path
		}
	}
}

// WithFilePermissions sets the file permissions for the dotenv file.
func WithFilePermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.filePerm = perm
	}
}

// WithDirPermissions sets the permissions used when creating the parent
// directory.
func WithDirPermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.dirPerm = perm
	}
}

// FileStore persists environment variable values to a dotenv file. Values
// may hold secrets, so the file is created private by default.
type FileStore struct {
	config fileStoreConfig
}

// NewFileStore creates a FileStore with the given options.
func NewFileStore(opts ...FileStoreOption) *FileStore {
	cfg := defaultFileStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FileStore{config: cfg}
}

// Path returns the dotenv file path.
func (s *FileStore) Path() string {
	return s.config.path
}

// Load reads the stored values. A missing file is an empty store.
func (s *FileStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.config.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	values := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(key) == "" {
			continue
		}
		values[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return values, nil
}

// Save writes the values as sorted KEY=VALUE lines, replacing the file.
func (s *FileStore) Save(values map[string]string) error {
	if dir := filepath.Dir(s.config.path); dir != "." {
		if err := os.MkdirAll(dir, s.config.dirPerm); err != nil {
			return fmt.Errorf("failed to create env file directory: %w", err)
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, values[k])
	}

	if err := os.WriteFile(s.config.path, []byte(b.String()), s.config.filePerm); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	return nil
}

// Merge loads the store, overlays the given values, and saves the result.
func (s *FileStore) Merge(values map[string]string) error {
	existing, err := s.Load()
	if err != nil {
		return err
	}
	for k, v := range values {
		existing[k] = v
	}
	return s.Save(existing)
}
