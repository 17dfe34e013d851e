package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Puller is the registry access the install service depends on.
type Puller interface {
	Tags(ctx context.Context, ref Reference) ([]string, error)
	Pull(ctx context.Context, ref Reference) ([]byte, Digest, error)
}

// Installed describes a completed install.
type Installed struct {
	Reference Reference
	Digest    Digest
	Path      string
}

// InstallService resolves, pulls, verifies, and pins capability artifacts
// into a capabilities directory.
type InstallService struct {
	registry Puller
	resolver *SemverResolver
	verifier Verifier
	dir      string
	lockPath string
	logger   *slog.Logger
}

// InstallOption configures an InstallService.
type InstallOption func(*InstallService)

// WithVerifier enables signature verification before install.
func WithVerifier(v Verifier) InstallOption {
	return func(s *InstallService) { s.verifier = v }
}

// WithLockfilePath overrides the lockfile location. The default is
// agentkit.lock.yaml next to the capabilities directory.
func WithLockfilePath(path string) InstallOption {
	return func(s *InstallService) { s.lockPath = path }
}

// WithLogger sets the service's logger.
func WithLogger(l *slog.Logger) InstallOption {
	return func(s *InstallService) { s.logger = l }
}

// NewInstallService creates an install service writing into dir.
func NewInstallService(registry Puller, dir string, opts ...InstallOption) *InstallService {
	s := &InstallService{
		registry: registry,
		resolver: NewSemverResolver(),
		dir:      dir,
		lockPath: filepath.Join(filepath.Dir(dir), "agentkit.lock.yaml"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Install fetches the referenced capability and writes <name>.wasm into the
// capabilities directory, recording the pin in the lockfile. A version
// constraint resolves to the highest matching tag.
func (s *InstallService) Install(ctx context.Context, refString string) (*Installed, error) {
	requested, err := ParseReference(refString)
	if err != nil {
		return nil, err
	}

	ref := requested
	if requested.VersionIsConstraint() {
		tags, err := s.registry.Tags(ctx, requested)
		if err != nil {
			return nil, err
		}
		version, err := s.resolver.Resolve(requested.Version(), tags)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", requested, err)
		}
		ref = requested.WithVersion(version)
		s.logger.Debug("version resolved",
			"requested", requested.Version(), "resolved", version)
	}

	if s.verifier != nil {
		result, err := s.verifier.Verify(ctx, ref)
		if err != nil {
			return nil, err
		}
		s.logger.Info("signature verified",
			"capability", ref.String(), "signer", result.Signer)
	}

	wasm, digest, err := s.registry.Pull(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := digest.Verify(wasm); err != nil {
		return nil, fmt.Errorf("install %s: %w", ref, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create capabilities directory: %w", err)
	}
	path := filepath.Join(s.dir, ref.Name()+".wasm")
	if err := os.WriteFile(path, wasm, 0o644); err != nil {
		return nil, fmt.Errorf("write capability: %w", err)
	}

	if err := s.pin(requested, ref, digest); err != nil {
		return nil, err
	}

	s.logger.Info("capability installed",
		"capability", ref.Name(),
		"version", ref.Version(),
		"digest", digest.String(),
		"path", path)

	return &Installed{Reference: ref, Digest: digest, Path: path}, nil
}

func (s *InstallService) pin(requested, resolved Reference, digest Digest) error {
	lf, err := LoadLockfile(s.lockPath)
	if err != nil {
		return err
	}
	if err := lf.Add(resolved.Name(), Lock{
		Requested: requested.String(),
		Resolved:  resolved.Version(),
		Source:    resolved.Repository(),
		Digest:    digest.String(),
		Fetched:   time.Now().UTC(),
	}); err != nil {
		return err
	}
	return SaveLockfile(lf, s.lockPath)
}
