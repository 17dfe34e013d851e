package capability

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Host describes the environment a capability would load into.
type Host struct {
	// Platform is the operating system family (runtime.GOOS).
	Platform string

	// RuntimeVersion is the host ABI version the capability runs against.
	RuntimeVersion string
}

// Gate decides whether the current host satisfies a declaration's platform
// and runtime constraints. Incompatibility is never fatal: the loader
// records gated-out capabilities as skipped, not failed.
type Gate struct {
	host   Host
	logger *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger used for soft-failure warnings.
func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

// NewGate creates a compatibility gate for the given host.
func NewGate(host Host, opts ...GateOption) *Gate {
	g := &Gate{host: host, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check reports whether the declaration is compatible with the gate's host,
// and a human-readable reason when it is not.
//
// An unparseable runtime constraint is a soft failure: it is logged and the
// capability still loads, so minor syntax drift in a declaration never
// produces a false negative.
func (g *Gate) Check(decl Declaration) (bool, string) {
	if ok, reason := g.checkPlatform(decl); !ok {
		return false, reason
	}
	return g.checkRuntime(decl)
}

func (g *Gate) checkPlatform(decl Declaration) (bool, string) {
	p := string(decl.Platform)
	if p == "" || strings.EqualFold(p, string(PlatformAny)) {
		return true, ""
	}
	if strings.EqualFold(p, g.host.Platform) {
		return true, ""
	}
	return false, fmt.Sprintf("requires platform %q, host is %q", p, g.host.Platform)
}

func (g *Gate) checkRuntime(decl Declaration) (bool, string) {
	if decl.RuntimeRequires == "" {
		return true, ""
	}

	constraint, err := semver.NewConstraint(decl.RuntimeRequires)
	if err != nil {
		g.logger.Warn("unparseable runtime constraint, loading anyway",
			"capability", decl.Name,
			"constraint", decl.RuntimeRequires,
			"error", err)
		return true, ""
	}

	hostVersion, err := semver.NewVersion(g.host.RuntimeVersion)
	if err != nil {
		g.logger.Warn("unparseable host runtime version, loading anyway",
			"version", g.host.RuntimeVersion,
			"error", err)
		return true, ""
	}

	if !constraint.Check(hostVersion) {
		return false, fmt.Sprintf("requires runtime %q, host runtime is %q",
			decl.RuntimeRequires, g.host.RuntimeVersion)
	}
	return true, ""
}
