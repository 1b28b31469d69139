package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/port"
	"go.uber.org/zap"
)

// PrivilegedLister lists a directory with entry metadata through the
// elevated channel. It returns nil when the listing fails.
type PrivilegedLister interface {
	StatDirectory(ctx context.Context, path string) []domain.Victim
}

// Manager handles ordinary (unprivileged) filesystem operations on the
// watched directory.
type Manager struct {
	fs         afero.Fs
	privileged PrivilegedLister
	logger     *zap.Logger
}

// Ensure Manager implements port.EntryLister
var _ port.EntryLister = (*Manager)(nil)

// NewManager creates a manager over the real operating system filesystem
func NewManager(privileged PrivilegedLister, logger *zap.Logger) *Manager {
	return NewManagerWithFs(afero.NewOsFs(), privileged, logger)
}

// NewManagerWithFs creates a manager over a custom afero filesystem.
// privileged may be nil when no elevated channel is configured.
func NewManagerWithFs(fsys afero.Fs, privileged PrivilegedLister, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		fs:         fsys,
		privileged: privileged,
		logger:     logger,
	}
}

// Fs returns the underlying afero filesystem
func (m *Manager) Fs() afero.Fs {
	return m.fs
}

// List returns the immediate entries of dir in directory order.
// When the ordinary listing is denied, the privileged listing is used.
func (m *Manager) List(ctx context.Context, dir string) ([]domain.Victim, error) {
	infos, err := m.readDir(dir)
	if err == nil {
		victims := make([]domain.Victim, 0, len(infos))
		for _, info := range infos {
			victims = append(victims, victimFromInfo(filepath.Join(dir, info.Name()), info))
		}
		return victims, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if !errors.Is(err, fs.ErrPermission) || m.privileged == nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	m.logger.Debug("ordinary listing denied, listing as root", zap.String("dir", dir))
	victims := m.privileged.StatDirectory(ctx, dir)
	if victims == nil {
		return nil, fmt.Errorf("failed to list %s as root: %w", dir, err)
	}
	for i := range victims {
		victims[i].Path = filepath.Join(dir, victims[i].Name)
	}
	return victims, nil
}

// readDir is afero.ReadDir without the sort by name.
func (m *Manager) readDir(dir string) ([]os.FileInfo, error) {
	f, err := m.fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdir(-1)
}

// Remove deletes a file or an empty directory.
func (m *Manager) Remove(path string) error {
	if err := m.fs.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// IsDir reports whether path exists and is a directory.
func (m *Manager) IsDir(path string) bool {
	info, err := m.fs.Stat(path)
	return err == nil && info.IsDir()
}

func victimFromInfo(path string, info os.FileInfo) domain.Victim {
	return domain.Victim{
		Path:    path,
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
