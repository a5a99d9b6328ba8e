package privilege

import (
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// Detect selects the elevation backend at startup and drops rights to the
// minimum. Preference order: fine-grained capabilities, then setuid, then no
// elevation at all (first privileged mutation will fail and be reported).
//
// The umask is widened so record files stay group-accessible for companion
// tooling reading the database directory.
func Detect(serviceUID int) Bracket {
	unix.Umask(0o002)

	if hasRequiredCaps() {
		b := &CapBracket{}
		if err := b.DropToMinimum(); err != nil {
			slog.Warn("could not trim capability sets", "error", err)
		}
		return b
	}

	if os.Geteuid() == 0 {
		b := &SetuidBracket{ServiceUID: serviceUID}
		if err := b.DropToMinimum(); err != nil {
			slog.Warn("could not lower to service identity", "error", err)
		}
		return b
	}

	slog.Debug("no elevation backend available, running unprivileged")
	return NopBracket{}
}
