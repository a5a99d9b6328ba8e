// Package privilege scopes elevated rights around single filesystem
// mutations. Component logic never raises or lowers rights directly; it hands
// a body to a Bracket, which guarantees de-elevation on every exit path.
package privilege

// Capability names one of the two elevated rights the tool ever needs.
type Capability int

const (
	// BypassPermissions bypasses file permission checks (CAP_DAC_OVERRIDE).
	BypassPermissions Capability = iota
	// ChangeOwnership allows chown to arbitrary owners (CAP_CHOWN).
	ChangeOwnership
)

func (c Capability) String() string {
	switch c {
	case BypassPermissions:
		return "dac_override"
	case ChangeOwnership:
		return "chown"
	default:
		return "unknown"
	}
}

// Bracket executes a body with exactly the requested elevated rights active.
//
// Contract: rights are acquired before the body runs and relinquished before
// WithElevated returns, on success, on body error, and on panic. Failure to
// acquire is fatal to the operation. Failure to relinquish is reported even
// when the body succeeded; a process stuck elevated is a privilege-escalation
// hazard. Bracket scopes must stay minimal: one filesystem mutation per call.
type Bracket interface {
	WithElevated(body func() error, caps ...Capability) error
}

// NopBracket performs no elevation. It backs unprivileged test runs and
// development on hosts where the binary has neither capabilities nor setuid.
type NopBracket struct{}

func (NopBracket) WithElevated(body func() error, caps ...Capability) error {
	return body()
}
