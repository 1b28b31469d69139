package domain

import "strings"

// CommandResult is the outcome of one privileged session.
// Lines are kept in emission order.
type CommandResult struct {
	ExitCode int
	Stdout   []string
	Stderr   []string
}

// Succeeded reports a zero exit code.
func (r *CommandResult) Succeeded() bool {
	return r != nil && r.ExitCode == 0
}

// FirstLine returns the first stdout line trimmed, or "".
func (r *CommandResult) FirstLine() string {
	if r == nil || len(r.Stdout) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Stdout[0])
}

// StderrText joins stderr lines for logging.
func (r *CommandResult) StderrText() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Stderr, "\n")
}

// StdoutText joins stdout lines for logging.
func (r *CommandResult) StdoutText() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Stdout, "\n")
}
