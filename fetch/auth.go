package fetch

import (
	"context"
	"os"
)

// AuthProvider supplies registry credentials. An empty username means
// anonymous access.
type AuthProvider interface {
	Credentials(ctx context.Context, registry string) (username, password string, err error)
}

// EnvAuthProvider reads credentials from the process environment.
type EnvAuthProvider struct{}

// NewEnvAuthProvider creates an environment-based auth provider.
func NewEnvAuthProvider() *EnvAuthProvider {
	return &EnvAuthProvider{}
}

// Credentials returns AGENTKIT_REGISTRY_USERNAME and
// AGENTKIT_REGISTRY_PASSWORD, empty when unset.
func (p *EnvAuthProvider) Credentials(_ context.Context, _ string) (string, string, error) {
	return os.Getenv("AGENTKIT_REGISTRY_USERNAME"), os.Getenv("AGENTKIT_REGISTRY_PASSWORD"), nil
}
