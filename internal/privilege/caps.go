package privilege

import (
	"golang.org/x/sys/unix"

	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// capValue maps a Capability to its kernel capability number.
func capValue(c Capability) uint32 {
	switch c {
	case BypassPermissions:
		return unix.CAP_DAC_OVERRIDE
	case ChangeOwnership:
		return unix.CAP_CHOWN
	default:
		return unix.CAP_DAC_OVERRIDE
	}
}

// CapBracket elevates and lowers named capabilities in the process's
// effective set. Requires the binary to carry CAP_DAC_OVERRIDE and CAP_CHOWN
// in its permitted set (file capabilities set by the installer).
type CapBracket struct{}

// WithElevated raises the requested capabilities, runs body, and lowers them
// again. Lowering is deferred so no early return or panic inside body can
// leave the process elevated.
func (b *CapBracket) WithElevated(body func() error, caps ...Capability) (err error) {
	raised := make([]Capability, 0, len(caps))
	for _, c := range caps {
		if raiseErr := setEffective(c, true); raiseErr != nil {
			// Undo anything already raised before reporting.
			for _, r := range raised {
				_ = setEffective(r, false)
			}
			return wserrors.ElevationFailed(c.String(), raiseErr)
		}
		raised = append(raised, c)
	}

	defer func() {
		for _, c := range raised {
			if lowerErr := setEffective(c, false); lowerErr != nil {
				// The de-elevation failure must surface even when the
				// body succeeded; further mutations would be unsafe.
				if err == nil {
					err = wserrors.DeElevationFailed(c.String(), lowerErr)
				}
			}
		}
	}()

	return body()
}

// setEffective toggles one capability in the effective set, leaving the
// permitted set untouched.
func setEffective(c Capability, on bool) error {
	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_1}
	var data unix.CapUserData
	if err := unix.Capget(&hdr, &data); err != nil {
		return err
	}

	bit := uint32(1) << capValue(c)
	if on {
		data.Effective |= bit
	} else {
		data.Effective &^= bit
	}

	return unix.Capset(&hdr, &data)
}

// DropToMinimum trims the permitted set to the two capabilities the tool
// ever uses and clears the effective set. Called once at startup, before any
// configuration beyond the primary file is touched.
func (b *CapBracket) DropToMinimum() error {
	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_1}
	var data unix.CapUserData
	data.Permitted = (1 << unix.CAP_DAC_OVERRIDE) | (1 << unix.CAP_CHOWN)
	data.Effective = 0
	data.Inheritable = 0
	if err := unix.Capset(&hdr, &data); err != nil {
		return wserrors.ElevationFailed("drop", err)
	}
	return nil
}

// hasRequiredCaps reports whether the permitted set carries both needed
// capabilities.
func hasRequiredCaps() bool {
	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_1}
	var data unix.CapUserData
	if err := unix.Capget(&hdr, &data); err != nil {
		return false
	}
	need := uint32(1<<unix.CAP_DAC_OVERRIDE | 1<<unix.CAP_CHOWN)
	return data.Permitted&need == need
}
