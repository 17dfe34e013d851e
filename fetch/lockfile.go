package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

// Lock pins one installed capability. Immutable after creation.
type Lock struct {
	// Requested is the reference as the user gave it, constraint included.
	Requested string `yaml:"requested"`

	// Resolved is the exact version that was installed.
	Resolved string `yaml:"resolved"`

	// Source is the repository the artifact came from.
	Source string `yaml:"source"`

	// Digest is the content hash of the installed wasm layer.
	Digest string `yaml:"digest"`

	Fetched time.Time `yaml:"fetched,omitempty"`
}

// Lockfile records every installed capability for reproducible installs.
//
// Invariant: every entry carries a digest.
type Lockfile struct {
	Version      int             `yaml:"lockfile_version"`
	Generated    time.Time       `yaml:"generated"`
	Capabilities map[string]Lock `yaml:"capabilities"`
}

// NewLockfile creates an empty lockfile at the current version.
func NewLockfile() *Lockfile {
	return &Lockfile{
		Version:      1,
		Generated:    time.Now().UTC(),
		Capabilities: make(map[string]Lock),
	}
}

// Add pins a capability. An empty digest is rejected.
func (l *Lockfile) Add(name string, lock Lock) error {
	if lock.Digest == "" {
		return fmt.Errorf("capability %q: digest is required", name)
	}
	if l.Capabilities == nil {
		l.Capabilities = make(map[string]Lock)
	}
	l.Capabilities[name] = lock
	l.Generated = time.Now().UTC()
	return nil
}

// Get returns the pin for a capability, nil when absent.
func (l *Lockfile) Get(name string) *Lock {
	if lock, ok := l.Capabilities[name]; ok {
		return &lock
	}
	return nil
}

// Validate checks lockfile invariants.
func (l *Lockfile) Validate() error {
	for name, lock := range l.Capabilities {
		if lock.Digest == "" {
			return fmt.Errorf("capability %q: digest is required", name)
		}
	}
	return nil
}

// LoadLockfile reads a lockfile from path. A missing file is an empty
// lockfile.
func LoadLockfile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewLockfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lockfile: %w", err)
	}

	var lf Lockfile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("decode lockfile YAML: %w", err)
	}
	if err := lf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lockfile: %w", err)
	}
	return &lf, nil
}

// SaveLockfile writes the lockfile to path.
func SaveLockfile(l *Lockfile, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create lockfile directory: %w", err)
		}
	}

	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode lockfile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write lockfile: %w", err)
	}
	return nil
}
