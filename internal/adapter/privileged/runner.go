package privileged

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/port"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultShell is the elevation binary used when none is configured.
const DefaultShell = "su"

const waitDelay = 500 * time.Millisecond

// ShellRunner pipes commands into an elevated shell process.
type ShellRunner struct {
	argv    []string
	timeout time.Duration
	logger  *zap.Logger
}

// Ensure ShellRunner implements port.CommandRunner
var _ port.CommandRunner = (*ShellRunner)(nil)

// NewShellRunner creates a runner for the given elevation command line,
// e.g. "su" or "sudo -n sh". A zero timeout means sessions are never timed
// out, so a hung session blocks its caller.
func NewShellRunner(shell string, timeout time.Duration, logger *zap.Logger) (*ShellRunner, error) {
	if strings.TrimSpace(shell) == "" {
		shell = DefaultShell
	}
	argv, err := shlex.Split(shell)
	if err != nil {
		return nil, fmt.Errorf("failed to parse privilege shell %q: %w", shell, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("privilege shell %q is empty", shell)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShellRunner{
		argv:    argv,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Run opens one session, writes each command followed by a newline and a
// final "exit", then waits for the session to end.
func (r *ShellRunner) Run(ctx context.Context, commands ...string) (*domain.CommandResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	// Children of a killed shell may keep the output pipes open.
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", domain.ErrPrivilegeUnavailable, err)
	}

	if err := cmd.Start(); err != nil {
		r.logger.Debug("failed to start privileged session",
			zap.Strings("argv", r.argv),
			zap.Error(err))
		return nil, fmt.Errorf("%w: start %s: %v", domain.ErrPrivilegeUnavailable, r.argv[0], err)
	}

	if err := writeCommands(stdin, commands, r.logger); err != nil {
		err = multierr.Combine(err, stdin.Close(), cmd.Process.Kill())
		_ = cmd.Wait()
		r.logger.Debug("failed to communicate with privileged session", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrPrivilegeUnavailable, err)
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPrivilegeUnavailable, ctx.Err())
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("%w: wait: %v", domain.ErrPrivilegeUnavailable, waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	result := &domain.CommandResult{
		ExitCode: exitCode,
		Stdout:   splitLines(stdout.Bytes()),
		Stderr:   splitLines(stderr.Bytes()),
	}

	r.logger.Debug("privileged session finished", zap.Int("exit_code", exitCode))
	if len(result.Stderr) > 0 {
		r.logger.Debug("privileged session stderr", zap.String("stderr", result.StderrText()))
	}

	return result, nil
}

// writeCommands writes the session script and closes stdin so the shell
// sees EOF even if it ignores "exit".
func writeCommands(stdin io.WriteCloser, commands []string, logger *zap.Logger) error {
	w := bufio.NewWriter(stdin)
	for _, c := range commands {
		logger.Debug("executing privileged command", zap.String("command", c))
		if _, err := w.WriteString(c + "\n"); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("exit\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return stdin.Close()
}

func splitLines(b []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}
