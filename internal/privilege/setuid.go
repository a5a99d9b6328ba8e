package privilege

import (
	"syscall"

	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// SetuidBracket is the coarse identity-switch backend for installations
// without file capability support. The binary is installed setuid root; the
// bracket raises to the superuser and lowers to the configured service
// identity around each mutation. The requested capability set is accepted
// for interface compatibility but cannot be narrowed further.
type SetuidBracket struct {
	// ServiceUID is the unprivileged identity the process runs as between
	// mutations, normally the record-owning dbuid.
	ServiceUID int
}

// WithElevated raises the effective uid to root, runs body, and lowers to
// the service identity on every exit path. syscall.Seteuid changes the
// identity of every thread of the process, so body may spawn goroutines.
func (b *SetuidBracket) WithElevated(body func() error, caps ...Capability) (err error) {
	capName := "setuid"
	if len(caps) > 0 {
		capName = caps[0].String()
	}

	if raiseErr := syscall.Seteuid(0); raiseErr != nil {
		return wserrors.ElevationFailed(capName, raiseErr)
	}

	defer func() {
		if lowerErr := syscall.Seteuid(b.ServiceUID); lowerErr != nil {
			if err == nil {
				err = wserrors.DeElevationFailed(capName, lowerErr)
			}
		}
	}()

	return body()
}

// DropToMinimum lowers the effective uid to the service identity. Called
// once at startup.
func (b *SetuidBracket) DropToMinimum() error {
	if err := syscall.Seteuid(b.ServiceUID); err != nil {
		return wserrors.ElevationFailed("setuid", err)
	}
	return nil
}
