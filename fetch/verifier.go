package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/sigstore/cosign/v2/pkg/cosign"
	ociremote "github.com/sigstore/cosign/v2/pkg/oci/remote"
)

// SignatureResult describes a verified artifact signature.
type SignatureResult struct {
	Verified bool
	Signer   string
	SignedAt time.Time
}

// Verifier checks the signature on a capability artifact before install.
type Verifier interface {
	Verify(ctx context.Context, ref Reference) (*SignatureResult, error)
}

// CosignVerifier verifies signatures with sigstore keyless trust: the
// signing identity must come from one of the accepted OIDC issuers.
type CosignVerifier struct {
	issuers []string
}

// NewCosignVerifier creates a keyless verifier. With no issuers given, the
// GitHub Actions and GitLab CI issuers are accepted.
func NewCosignVerifier(issuers ...string) *CosignVerifier {
	if len(issuers) == 0 {
		issuers = []string{
			"https://token.actions.githubusercontent.com",
			"https://gitlab.com",
		}
	}
	return &CosignVerifier{issuers: issuers}
}

// Verify checks the artifact's signature and returns who signed it.
func (v *CosignVerifier) Verify(ctx context.Context, ref Reference) (*SignatureResult, error) {
	imageRef, err := name.ParseReference(ref.String())
	if err != nil {
		return nil, fmt.Errorf("parse reference for verification: %w", err)
	}

	identities := make([]cosign.Identity, 0, len(v.issuers))
	for _, issuer := range v.issuers {
		identities = append(identities, cosign.Identity{Issuer: issuer, SubjectRegExp: ".*"})
	}

	opts := &cosign.CheckOpts{
		RegistryClientOpts: []ociremote.Option{ociremote.WithRemoteOptions()},
		Identities:         identities,
	}

	sigs, _, err := cosign.VerifyImageSignatures(ctx, imageRef, opts)
	if err != nil {
		return nil, fmt.Errorf("signature verification failed for %s: %w", ref, err)
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("no valid signatures found for %s", ref)
	}

	result := &SignatureResult{Verified: true, SignedAt: time.Now().UTC()}
	if cert, err := sigs[0].Cert(); err == nil && cert != nil {
		if len(cert.EmailAddresses) > 0 {
			result.Signer = cert.EmailAddresses[0]
		}
		result.SignedAt = cert.NotBefore
	}
	return result, nil
}
