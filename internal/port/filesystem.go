package port

import (
	"context"

	"github.com/vertextoedge/diskguard/internal/domain"
)

// EntryLister lists the immediate entries of a directory.
type EntryLister interface {
	// List returns files and subdirectories alike, in listing order.
	// A missing directory yields an empty slice and no error.
	List(ctx context.Context, dir string) ([]domain.Victim, error)
}

// Deleter removes reclaim victims. It reports success as a boolean only.
type Deleter interface {
	// DeleteFile tries ordinary removal, then a privileged non-forced rm.
	DeleteFile(ctx context.Context, path string) bool

	// DeleteDirectoryRecursive refuses protected paths, then issues a
	// privileged rm -r (rm -rf when force is set).
	DeleteDirectoryRecursive(ctx context.Context, path string, force bool) bool

	// DeleteEntry removes a reclaim victim of any kind: ordinary removal,
	// then privileged recursive removal through the safety gate. The second
	// return value reports whether the privileged path did the work.
	DeleteEntry(ctx context.Context, path string) (deleted bool, privileged bool)
}

// Remover performs ordinary, unprivileged removal of a file or an empty
// directory.
type Remover interface {
	Remove(path string) error
}
