package privileged

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/port"
	"go.uber.org/zap"
)

// Commands issues the higher-level privileged queries on top of a runner.
// Every method degrades to a negative answer when the channel is
// unavailable.
type Commands struct {
	runner port.CommandRunner
	logger *zap.Logger
}

// NewCommands creates a new Commands helper
func NewCommands(runner port.CommandRunner, logger *zap.Logger) *Commands {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Commands{runner: runner, logger: logger}
}

// Available reports whether the elevated channel accepts commands.
func (c *Commands) Available(ctx context.Context) bool {
	result, err := c.runner.Run(ctx, AvailabilityProbeCommand)
	ok := err == nil && result.Succeeded()
	c.logger.Debug("privileged channel availability", zap.Bool("available", ok))
	return ok
}

// ListDirectory returns entry names, directories suffixed with "/".
// It returns nil when the listing fails.
func (c *Commands) ListDirectory(ctx context.Context, path string) []string {
	result, err := c.runner.Run(ctx, ListCommand(path))
	if err != nil || !result.Succeeded() {
		c.logger.Debug("failed to list directory as root",
			zap.String("path", path),
			zap.String("stderr", result.StderrText()),
			zap.Error(err))
		return nil
	}
	names := make([]string, 0, len(result.Stdout))
	for _, line := range result.Stdout {
		if line = strings.TrimRight(line, "\r"); line != "" {
			names = append(names, line)
		}
	}
	return names
}

// StatDirectory lists the immediate entries of path with their metadata,
// in directory order. Lines that cannot be parsed are skipped, so an entry
// is never returned without its modification time. It returns nil when the
// listing fails.
func (c *Commands) StatDirectory(ctx context.Context, path string) []domain.Victim {
	result, err := c.runner.Run(ctx, StatEntriesCommand(path))
	if err != nil || !result.Succeeded() {
		c.logger.Debug("failed to stat directory as root",
			zap.String("path", path),
			zap.String("stderr", result.StderrText()),
			zap.Error(err))
		return nil
	}
	victims := make([]domain.Victim, 0, len(result.Stdout))
	for _, line := range result.Stdout {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		v, ok := parseStatLine(line)
		if !ok {
			c.logger.Warn("skipping entry with unreadable metadata",
				zap.String("path", path),
				zap.String("line", line))
			continue
		}
		victims = append(victims, v)
	}
	return victims
}

// parseStatLine decodes one "<mtime> <size> <rawmode> <path>" line.
func parseStatLine(line string) (domain.Victim, bool) {
	fields := strings.SplitN(line, " ", 4)
	if len(fields) != 4 || fields[3] == "" {
		return domain.Victim{}, false
	}
	mtime, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return domain.Victim{}, false
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return domain.Victim{}, false
	}
	mode, err := strconv.ParseUint(fields[2], 16, 32)
	if err != nil {
		return domain.Victim{}, false
	}
	full := fields[3]
	return domain.Victim{
		Path:    full,
		Name:    filepath.Base(full),
		IsDir:   mode&0o170000 == 0o040000,
		Size:    size,
		ModTime: time.Unix(mtime, 0),
	}, true
}

// IsReadableDirectory checks directory, read and traverse permission.
func (c *Commands) IsReadableDirectory(ctx context.Context, path string) bool {
	return c.echoTrue(ctx, ReadableDirectoryCommand(path), path)
}

// IsReadableFile checks that path is a readable regular file.
func (c *Commands) IsReadableFile(ctx context.Context, path string) bool {
	return c.echoTrue(ctx, ReadableFileCommand(path), path)
}

// PathExists checks that path exists. A failing command counts as absent.
func (c *Commands) PathExists(ctx context.Context, path string) bool {
	return c.echoTrue(ctx, ExistsCommand(path), path)
}

func (c *Commands) echoTrue(ctx context.Context, command, path string) bool {
	result, err := c.runner.Run(ctx, command)
	if err != nil || !result.Succeeded() || len(result.Stdout) == 0 {
		c.logger.Debug("privileged test failed",
			zap.String("path", path),
			zap.String("stderr", result.StderrText()),
			zap.Error(err))
		return false
	}
	return result.FirstLine() == "true"
}
