package privileged

import (
	"fmt"

	"github.com/kballard/go-shellquote"
)

// AvailabilityProbeCommand is a trivial command whose zero exit code proves
// the elevated channel is usable.
const AvailabilityProbeCommand = "echo hello"

// ListCommand lists one entry per line, hidden entries included, with a
// trailing "/" on directories.
func ListCommand(path string) string {
	return shellquote.Join("ls", "-1Ap", path)
}

// StatEntriesCommand prints "<mtime> <size> <rawmode> <path>" for every
// immediate entry of path, hidden entries included, in directory order.
func StatEntriesCommand(path string) string {
	return shellquote.Join("find", path, "-mindepth", "1", "-maxdepth", "1",
		"-exec", "stat", "-c", "%Y %s %f %n", "{}", "+")
}

// DiskFreeCommand queries capacity in 1K blocks using POSIX output.
func DiskFreeCommand(path string) string {
	return shellquote.Join("df", "-kP", path)
}

// RemoveFileCommand removes a single file.
func RemoveFileCommand(path string, force bool) string {
	if force {
		return shellquote.Join("rm", "-f", path)
	}
	return shellquote.Join("rm", path)
}

// RemoveTreeCommand removes a directory tree.
func RemoveTreeCommand(path string, force bool) string {
	if force {
		return shellquote.Join("rm", "-rf", path)
	}
	return shellquote.Join("rm", "-r", path)
}

// ReadableDirectoryCommand echoes "true" when path is a directory that can
// be read and traversed, "false" otherwise.
func ReadableDirectoryCommand(path string) string {
	q := shellquote.Join(path)
	return fmt.Sprintf(`if [ -d %s ] && [ -r %s ] && [ -x %s ]; then echo "true"; else echo "false"; fi`, q, q, q)
}

// ReadableFileCommand echoes "true" when path is a readable regular file.
func ReadableFileCommand(path string) string {
	q := shellquote.Join(path)
	return fmt.Sprintf(`if [ -f %s ] && [ -r %s ]; then echo "true"; else echo "false"; fi`, q, q)
}

// ExistsCommand echoes "true" when path exists.
func ExistsCommand(path string) string {
	q := shellquote.Join(path)
	return fmt.Sprintf(`if [ -e %s ]; then echo "true"; else echo "false"; fi`, q)
}
