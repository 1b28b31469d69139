package port

import (
	"context"

	"github.com/vertextoedge/diskguard/internal/domain"
)

// CommandRunner executes shell commands through an elevated-privilege
// session. Probe and deletion logic depend only on this interface.
type CommandRunner interface {
	// Run opens one session, issues every command in order, and returns the
	// captured output and exit code. A non-zero exit code is a result, not an
	// error. When the session cannot be started or communicated with, Run
	// returns an error wrapping domain.ErrPrivilegeUnavailable.
	Run(ctx context.Context, commands ...string) (*domain.CommandResult, error)
}
