package deleter

import (
	"context"
	"path"
	"strings"

	"github.com/vertextoedge/diskguard/internal/adapter/privileged"
	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/port"
	"go.uber.org/zap"
)

// DefaultProtectedPrefixes are never removed recursively, whatever the
// force flag says.
var DefaultProtectedPrefixes = []string{"/system", "/efs"}

// SafeDeleter removes files through the ordinary filesystem first and the
// privileged channel second. Its boolean results are the only success
// signal; nothing is returned as an error.
type SafeDeleter struct {
	fs        port.Remover
	runner    port.CommandRunner
	protected []string
	logger    *zap.Logger
}

// Ensure SafeDeleter implements port.Deleter
var _ port.Deleter = (*SafeDeleter)(nil)

// New creates a new SafeDeleter. runner may be nil, in which case only
// ordinary deletion is attempted. extraProtected is appended to
// DefaultProtectedPrefixes.
func New(fs port.Remover, runner port.CommandRunner, extraProtected []string, logger *zap.Logger) *SafeDeleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	protected := make([]string, 0, len(DefaultProtectedPrefixes)+len(extraProtected))
	protected = append(protected, DefaultProtectedPrefixes...)
	for _, p := range extraProtected {
		if p = strings.TrimSpace(p); p != "" {
			protected = append(protected, p)
		}
	}
	return &SafeDeleter{
		fs:        fs,
		runner:    runner,
		protected: protected,
		logger:    logger,
	}
}

// Protected reports whether path must never be removed recursively:
// blank, relative, the filesystem root, or under a protected prefix.
func (d *SafeDeleter) Protected(p string) bool {
	raw := strings.TrimSpace(p)
	if raw == "" || !path.IsAbs(raw) {
		return true
	}
	clean := path.Clean(raw)
	if clean == "/" {
		return true
	}
	for _, prefix := range d.protected {
		if strings.HasPrefix(raw, prefix) || strings.HasPrefix(clean, prefix) {
			return true
		}
	}
	return false
}

// DeleteFile removes a single file, falling back to a privileged rm.
func (d *SafeDeleter) DeleteFile(ctx context.Context, p string) bool {
	err := d.fs.Remove(p)
	if err == nil {
		d.logger.Debug("file deleted", zap.String("path", p))
		return true
	}
	d.logger.Debug("ordinary delete failed, trying privileged rm",
		zap.String("path", p),
		zap.Error(err))

	return d.runPrivileged(ctx, privileged.RemoveFileCommand(p, false), p, "file")
}

// DeleteDirectoryRecursive removes a directory tree through the privileged
// channel. The safety gate is checked before any command is issued.
func (d *SafeDeleter) DeleteDirectoryRecursive(ctx context.Context, p string, force bool) bool {
	if d.Protected(p) {
		d.logger.Warn("safety check: refusing to recursively delete critical path",
			zap.String("path", p),
			zap.Bool("force", force),
			zap.Error(domain.ErrSafetyRefusal))
		return false
	}

	return d.runPrivileged(ctx, privileged.RemoveTreeCommand(p, force), p, "directory")
}

// DeleteEntry removes a reclaim victim, whether file or directory: ordinary
// removal first, then a forced privileged recursive remove.
func (d *SafeDeleter) DeleteEntry(ctx context.Context, p string) (bool, bool) {
	err := d.fs.Remove(p)
	if err == nil {
		return true, false
	}
	d.logger.Debug("ordinary delete failed, trying privileged recursive delete",
		zap.String("path", p),
		zap.Error(err))

	ok := d.DeleteDirectoryRecursive(ctx, p, true)
	return ok, ok
}

func (d *SafeDeleter) runPrivileged(ctx context.Context, command, p, kind string) bool {
	if d.runner == nil {
		d.logger.Debug("no privileged channel configured", zap.String("path", p))
		return false
	}

	result, err := d.runner.Run(ctx, command)
	if err != nil {
		d.logger.Warn("privileged delete could not run",
			zap.String("kind", kind),
			zap.String("path", p),
			zap.Error(err))
		return false
	}

	if result.Succeeded() {
		d.logger.Info("deleted as root",
			zap.String("kind", kind),
			zap.String("path", p))
		return true
	}

	d.logger.Warn("privileged delete failed",
		zap.String("kind", kind),
		zap.String("path", p),
		zap.Int("exit_code", result.ExitCode),
		zap.String("stderr", result.StderrText()),
		zap.String("stdout", result.StdoutText()))
	return false
}
