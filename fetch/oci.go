package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/memory"
	orasregistry "oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/agentkit-dev/agentkit/netutil"
)

// MediaTypeCapability is the OCI layer media type carrying the wasm module.
const MediaTypeCapability = "application/vnd.agentkit.capability.wasm.v1"

// maxArtifactSize bounds a pulled wasm layer.
const maxArtifactSize = 64 << 20

// OCIRegistry pulls capability artifacts from OCI registries via oras.
type OCIRegistry struct {
	auth AuthProvider
	http *http.Client
}

// NewOCIRegistry creates a registry client. Transport failures retry with
// backoff.
func NewOCIRegistry(provider AuthProvider) *OCIRegistry {
	return &OCIRegistry{
		auth: provider,
		http: &http.Client{Transport: &netutil.RetryTransport{}},
	}
}

// Tags lists the repository's tags for version resolution.
func (r *OCIRegistry) Tags(ctx context.Context, ref Reference) ([]string, error) {
	repo, err := r.repository(ctx, ref)
	if err != nil {
		return nil, err
	}
	tags, err := orasregistry.Tags(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("list tags for %s: %w", ref.Repository(), err)
	}
	return tags, nil
}

// Pull downloads the capability layer for an exact reference and returns
// the wasm bytes with the layer's content digest.
func (r *OCIRegistry) Pull(ctx context.Context, ref Reference) ([]byte, Digest, error) {
	repo, err := r.repository(ctx, ref)
	if err != nil {
		return nil, Digest{}, err
	}

	store := memory.New()
	manifestDesc, err := oras.Copy(ctx, repo, ref.Version(), store, ref.Version(), oras.CopyOptions{})
	if err != nil {
		return nil, Digest{}, fmt.Errorf("pull %s: %w", ref, err)
	}

	manifest, err := fetchManifest(ctx, store, manifestDesc)
	if err != nil {
		return nil, Digest{}, err
	}

	layer, err := capabilityLayer(manifest)
	if err != nil {
		return nil, Digest{}, fmt.Errorf("pull %s: %w", ref, err)
	}

	rc, err := store.Fetch(ctx, layer)
	if err != nil {
		return nil, Digest{}, fmt.Errorf("fetch capability layer: %w", err)
	}
	defer func() { _ = rc.Close() }()

	wasm, err := io.ReadAll(netutil.NewLimitedReader(rc, maxArtifactSize))
	if err != nil {
		return nil, Digest{}, fmt.Errorf("read capability layer: %w", err)
	}

	digest, err := ParseDigest(string(layer.Digest))
	if err != nil {
		return nil, Digest{}, fmt.Errorf("layer digest: %w", err)
	}
	return wasm, digest, nil
}

func (r *OCIRegistry) repository(ctx context.Context, ref Reference) (*remote.Repository, error) {
	repo, err := remote.NewRepository(ref.Repository())
	if err != nil {
		return nil, fmt.Errorf("create repository client: %w", err)
	}

	client := &auth.Client{Client: r.http}
	if r.auth != nil {
		username, password, err := r.auth.Credentials(ctx, ref.Registry())
		if err == nil && username != "" {
			client.Credential = auth.StaticCredential(ref.Registry(), auth.Credential{
				Username: username,
				Password: password,
			})
		}
	}
	repo.Client = client
	return repo, nil
}

func fetchManifest(ctx context.Context, store *memory.Store, desc ocispec.Descriptor) (*ocispec.Manifest, error) {
	rc, err := store.Fetch(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON: %w", err)
	}
	return &manifest, nil
}

func capabilityLayer(manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	for _, layer := range manifest.Layers {
		if layer.MediaType == MediaTypeCapability {
			return layer, nil
		}
	}
	return ocispec.Descriptor{}, fmt.Errorf("artifact has no %s layer", MediaTypeCapability)
}
