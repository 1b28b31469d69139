package privileged

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/shlex"
	"github.com/vertextoedge/diskguard/internal/domain"
	"go.uber.org/zap"
)

func TestCommandBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want []string
	}{
		{"list", ListCommand("/storage/usb/cam"), []string{"ls", "-1Ap", "/storage/usb/cam"}},
		{"stat", StatEntriesCommand("/storage/usb/my cam"), []string{
			"find", "/storage/usb/my cam", "-mindepth", "1", "-maxdepth", "1",
			"-exec", "stat", "-c", "%Y %s %f %n", "{}", "+",
		}},
		{"df", DiskFreeCommand("/x"), []string{"df", "-kP", "/x"}},
		{"rm", RemoveFileCommand("/a b/c'd.mp4", false), []string{"rm", "/a b/c'd.mp4"}},
		{"rm -f", RemoveFileCommand("/a", true), []string{"rm", "-f", "/a"}},
		{"rm -r", RemoveTreeCommand("/a/dir", false), []string{"rm", "-r", "/a/dir"}},
		{"rm -rf", RemoveTreeCommand("/a/dir $(reboot)", true), []string{"rm", "-rf", "/a/dir $(reboot)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			argv, err := shlex.Split(tt.got)
			if err != nil {
				t.Fatalf("shlex.Split(%q) error = %v", tt.got, err)
			}
			if !reflect.DeepEqual(argv, tt.want) {
				t.Errorf("command %q splits to %v, want %v", tt.got, argv, tt.want)
			}
		})
	}

	if got := DiskFreeCommand("/x"); got != "df -kP /x" {
		t.Errorf("DiskFreeCommand(/x) = %q", got)
	}
}

func TestTestCommands_QuotePath(t *testing.T) {
	cmd := ReadableDirectoryCommand("/storage/my usb")
	if strings.Count(cmd, "'/storage/my usb'") != 3 {
		t.Errorf("ReadableDirectoryCommand = %q, want path quoted three times", cmd)
	}
	if !strings.Contains(ExistsCommand("/x"), "[ -e /x ]") {
		t.Errorf("ExistsCommand = %q", ExistsCommand("/x"))
	}
	if !strings.Contains(ReadableFileCommand("/x"), "[ -f /x ] && [ -r /x ]") {
		t.Errorf("ReadableFileCommand = %q", ReadableFileCommand("/x"))
	}
}

// scriptedRunner answers commands from a table and records what it saw.
type scriptedRunner struct {
	results map[string]*domain.CommandResult
	err     error
	seen    []string
}

func (r *scriptedRunner) Run(ctx context.Context, commands ...string) (*domain.CommandResult, error) {
	r.seen = append(r.seen, commands...)
	if r.err != nil {
		return nil, r.err
	}
	if res, ok := r.results[commands[0]]; ok {
		return res, nil
	}
	return &domain.CommandResult{ExitCode: 1}, nil
}

func TestCommands_Helpers(t *testing.T) {
	runner := &scriptedRunner{results: map[string]*domain.CommandResult{
		AvailabilityProbeCommand:          {ExitCode: 0, Stdout: []string{"hello"}},
		ListCommand("/d"):                 {ExitCode: 0, Stdout: []string{"a.mp4", "sub/", ""}},
		ReadableDirectoryCommand("/d"):    {ExitCode: 0, Stdout: []string{"true"}},
		ReadableFileCommand("/d/a.mp4"):   {ExitCode: 0, Stdout: []string{" false "}},
		ExistsCommand("/d/a.mp4"):         {ExitCode: 0, Stdout: []string{"true\n"}},
	}}
	c := NewCommands(runner, zap.NewNop())
	ctx := context.Background()

	if !c.Available(ctx) {
		t.Error("Available() = false, want true")
	}
	if got, want := c.ListDirectory(ctx, "/d"), []string{"a.mp4", "sub/"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListDirectory() = %v, want %v", got, want)
	}
	if got := c.ListDirectory(ctx, "/missing"); got != nil {
		t.Errorf("ListDirectory(missing) = %v, want nil", got)
	}
	if !c.IsReadableDirectory(ctx, "/d") {
		t.Error("IsReadableDirectory() = false, want true")
	}
	if c.IsReadableFile(ctx, "/d/a.mp4") {
		t.Error("IsReadableFile() = true, want false")
	}
	if !c.PathExists(ctx, "/d/a.mp4") {
		t.Error("PathExists() = false, want true")
	}
	if c.PathExists(ctx, "/nowhere") {
		t.Error("PathExists(failing command) = true, want false")
	}
}

func TestCommands_StatDirectory(t *testing.T) {
	runner := &scriptedRunner{results: map[string]*domain.CommandResult{
		StatEntriesCommand("/d"): {ExitCode: 0, Stdout: []string{
			"1717200000 2048 81a4 /d/clip one.mp4\r",
			"1717100000 4096 41ed /d/.thumbs",
			"",
			"not a stat line",
			"1717000000 12 zz /d/bad-mode",
		}},
		StatEntriesCommand("/empty"): {ExitCode: 0},
	}}
	c := NewCommands(runner, zap.NewNop())
	ctx := context.Background()

	got := c.StatDirectory(ctx, "/d")
	want := []domain.Victim{
		{Path: "/d/clip one.mp4", Name: "clip one.mp4", Size: 2048, ModTime: time.Unix(1717200000, 0)},
		{Path: "/d/.thumbs", Name: ".thumbs", IsDir: true, Size: 4096, ModTime: time.Unix(1717100000, 0)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StatDirectory() = %+v, want %+v", got, want)
	}

	if got := c.StatDirectory(ctx, "/empty"); got == nil || len(got) != 0 {
		t.Errorf("StatDirectory(empty) = %v, want empty non-nil", got)
	}
	if got := c.StatDirectory(ctx, "/missing"); got != nil {
		t.Errorf("StatDirectory(missing) = %v, want nil", got)
	}
}

func TestCommands_UnavailableChannel(t *testing.T) {
	runner := &scriptedRunner{err: domain.ErrPrivilegeUnavailable}
	c := NewCommands(runner, nil)
	ctx := context.Background()

	if c.Available(ctx) {
		t.Error("Available() = true, want false")
	}
	if c.IsReadableDirectory(ctx, "/d") {
		t.Error("IsReadableDirectory() = true, want false")
	}
	if c.ListDirectory(ctx, "/d") != nil {
		t.Error("ListDirectory() should be nil")
	}
	if c.StatDirectory(ctx, "/d") != nil {
		t.Error("StatDirectory() should be nil")
	}
}
