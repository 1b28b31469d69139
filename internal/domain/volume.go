package domain

import (
	"path"
	"strings"
)

const (
	storageEmulatedPrefix = "/storage/emulated/"
	storagePrefix         = "/storage/"
)

// ResolveVolumeRoot maps a directory to the root of the storage volume that
// contains it. The mapping only looks at the path string:
//
//   - under externalRoot              -> externalRoot
//   - /storage/emulated/<id>/...      -> /storage/emulated/<id>
//   - /storage/<name>/...             -> /storage/<name>
//   - anything else                   -> /
func ResolveVolumeRoot(dir, externalRoot string) string {
	p := path.Clean("/" + strings.TrimSpace(dir))

	if externalRoot != "" {
		root := path.Clean(externalRoot)
		if root != "/" && (p == root || strings.HasPrefix(p, root+"/")) {
			return root
		}
	}

	if rest, ok := strings.CutPrefix(p, storageEmulatedPrefix); ok {
		if id := firstSegment(rest); id != "" {
			return storageEmulatedPrefix + id
		}
	}

	if rest, ok := strings.CutPrefix(p, storagePrefix); ok {
		if name := firstSegment(rest); name != "" {
			return storagePrefix + name
		}
	}

	return "/"
}

func firstSegment(s string) string {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return s
}
