package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/vertextoedge/diskguard/internal/adapter/privileged"
	"github.com/vertextoedge/diskguard/internal/domain"
)

func writeAged(t *testing.T, fsys afero.Fs, path string, age time.Duration) {
	t.Helper()
	if err := afero.WriteFile(fsys, path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
	mt := time.Now().Add(-age)
	if err := fsys.Chtimes(path, mt, mt); err != nil {
		t.Fatalf("Chtimes(%s) error = %v", path, err)
	}
}

func TestManager_List(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_ = fsys.MkdirAll("/watch/sub", 0o755)
	writeAged(t, fsys, "/watch/b.mp4", time.Hour)
	writeAged(t, fsys, "/watch/a.mp4", 2*time.Hour)
	writeAged(t, fsys, "/watch/sub/nested.mp4", time.Minute)

	m := NewManagerWithFs(fsys, nil, nil)
	victims, err := m.List(context.Background(), "/watch")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(victims) != 3 {
		t.Fatalf("List() returned %d entries, want 3 (files and dirs, not nested)", len(victims))
	}
	byName := map[string]bool{}
	for _, v := range victims {
		byName[v.Name] = v.IsDir
		if v.Path != "/watch/"+v.Name {
			t.Errorf("Path = %q, want /watch/%s", v.Path, v.Name)
		}
	}
	if isDir, ok := byName["sub"]; !ok || !isDir {
		t.Errorf("sub entry missing or not a dir: %v", byName)
	}
}

func TestManager_ListMissingDirectory(t *testing.T) {
	m := NewManagerWithFs(afero.NewMemMapFs(), nil, nil)
	victims, err := m.List(context.Background(), "/nope")
	if err != nil {
		t.Fatalf("List() error = %v, want nil", err)
	}
	if len(victims) != 0 {
		t.Errorf("List() = %v, want empty", victims)
	}
}

type deniedFs struct {
	afero.Fs
	prefix string
}

func (d deniedFs) denied(op, name string) error {
	if name == d.prefix || strings.HasPrefix(name, d.prefix+"/") {
		return &os.PathError{Op: op, Path: name, Err: os.ErrPermission}
	}
	return nil
}

func (d deniedFs) Open(name string) (afero.File, error) {
	if err := d.denied("open", name); err != nil {
		return nil, err
	}
	return d.Fs.Open(name)
}

func (d deniedFs) Stat(name string) (os.FileInfo, error) {
	if err := d.denied("stat", name); err != nil {
		return nil, err
	}
	return d.Fs.Stat(name)
}

// rootRunner answers the privileged stat listing from a table.
type rootRunner struct {
	listings map[string][]string
	calls    int
}

func (r *rootRunner) Run(ctx context.Context, commands ...string) (*domain.CommandResult, error) {
	r.calls++
	for dir, lines := range r.listings {
		if commands[0] == privileged.StatEntriesCommand(dir) {
			return &domain.CommandResult{ExitCode: 0, Stdout: lines}, nil
		}
	}
	return &domain.CommandResult{ExitCode: 1, Stderr: []string{"no such file or directory"}}, nil
}

func statLine(age time.Duration, size int64, mode, path string) string {
	return fmt.Sprintf("%d %d %s %s", time.Now().Add(-age).Unix(), size, mode, path)
}

func TestManager_ListFallsBackToPrivilegedListing(t *testing.T) {
	base := afero.NewMemMapFs()
	_ = base.MkdirAll("/locked", 0o755)
	writeAged(t, base, "/locked/old.mp4", time.Hour)

	runner := &rootRunner{listings: map[string][]string{
		"/locked": {
			statLine(time.Hour, 1024, "81a4", "/locked/old.mp4"),
			statLine(time.Minute, 4096, "41ed", "/locked/hidden"),
		},
	}}
	m := NewManagerWithFs(deniedFs{Fs: base, prefix: "/locked"}, privileged.NewCommands(runner, nil), nil)

	victims, err := m.List(context.Background(), "/locked")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if runner.calls != 1 {
		t.Errorf("privileged listing calls = %d, want 1", runner.calls)
	}
	if len(victims) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(victims))
	}
	if v := victims[0]; v.Name != "old.mp4" || v.Path != "/locked/old.mp4" || v.IsDir || v.Size != 1024 || v.ModTime.IsZero() {
		t.Errorf("victims[0] = %+v, want regular file old.mp4", v)
	}
	if v := victims[1]; v.Name != "hidden" || !v.IsDir || v.ModTime.IsZero() {
		t.Errorf("victims[1] = %+v, want directory hidden with its mtime", v)
	}
}

func TestManager_PrivilegedListingKeepsAgeOrder(t *testing.T) {
	base := afero.NewMemMapFs()
	_ = base.MkdirAll("/watch", 0o755)

	// Name order is the reverse of age order.
	runner := &rootRunner{listings: map[string][]string{
		"/watch": {
			statLine(time.Minute, 10, "81a4", "/watch/2024-06-01_newest.mp4"),
			statLine(time.Hour, 10, "81a4", "/watch/2024-06-02_newer.mp4"),
			statLine(300*24*time.Hour, 10, "81a4", "/watch/z_archive_oldest.mp4"),
		},
	}}
	m := NewManagerWithFs(deniedFs{Fs: base, prefix: "/watch"}, privileged.NewCommands(runner, nil), nil)

	victims, err := m.List(context.Background(), "/watch")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	sort.SliceStable(victims, func(i, j int) bool {
		return victims[i].ModTime.Before(victims[j].ModTime)
	})

	var got []string
	for _, v := range victims {
		got = append(got, v.Name)
	}
	want := []string{"z_archive_oldest.mp4", "2024-06-02_newer.mp4", "2024-06-01_newest.mp4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("deletion order = %v, want %v", got, want)
	}
}

func TestManager_PrivilegedListingSkipsEntriesWithoutAge(t *testing.T) {
	base := afero.NewMemMapFs()
	_ = base.MkdirAll("/watch", 0o755)

	runner := &rootRunner{listings: map[string][]string{
		"/watch": {
			statLine(time.Hour, 10, "81a4", "/watch/a.mp4"),
			"garbled",
			"? 10 81a4 /watch/b.mp4",
		},
	}}
	m := NewManagerWithFs(deniedFs{Fs: base, prefix: "/watch"}, privileged.NewCommands(runner, nil), nil)

	victims, err := m.List(context.Background(), "/watch")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(victims) != 1 || victims[0].Name != "a.mp4" {
		t.Errorf("List() = %+v, want only a.mp4", victims)
	}
}

func TestManager_PrivilegedListingFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	_ = base.MkdirAll("/watch", 0o755)
	m := NewManagerWithFs(deniedFs{Fs: base, prefix: "/watch"}, privileged.NewCommands(&rootRunner{}, nil), nil)

	victims, err := m.List(context.Background(), "/watch")
	if err == nil {
		t.Fatalf("List() = %v, want error when the root listing fails", victims)
	}
}

func TestManager_ListKeepsDirectoryOrder(t *testing.T) {
	dir := t.TempDir()
	fsys := afero.NewOsFs()
	for _, name := range []string{"c.mp4", "a.mp4", "b.mp4"} {
		writeAged(t, fsys, filepath.Join(dir, name), time.Hour)
	}

	f, err := os.Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	native, err := f.Readdirnames(-1)
	_ = f.Close()
	if err != nil {
		t.Fatalf("Readdirnames() error = %v", err)
	}

	victims, err := NewManagerWithFs(fsys, nil, nil).List(context.Background(), dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var got []string
	for _, v := range victims {
		got = append(got, v.Name)
	}
	if !reflect.DeepEqual(got, native) {
		t.Errorf("List() order = %v, want directory order %v", got, native)
	}
}

func TestManager_ListDeniedWithoutPrivilege(t *testing.T) {
	base := afero.NewMemMapFs()
	_ = base.MkdirAll("/locked", 0o755)
	m := NewManagerWithFs(deniedFs{Fs: base, prefix: "/locked"}, nil, nil)

	if _, err := m.List(context.Background(), "/locked"); err == nil {
		t.Fatal("List() error = nil, want permission error")
	}
}

func TestManager_Remove(t *testing.T) {
	dir := t.TempDir()
	fsys := afero.NewOsFs()
	file := filepath.Join(dir, "a")
	full := filepath.Join(dir, "full")
	writeAged(t, fsys, file, time.Hour)
	_ = fsys.MkdirAll(full, 0o755)
	writeAged(t, fsys, filepath.Join(full, "x"), time.Hour)
	m := NewManagerWithFs(fsys, nil, nil)

	if err := m.Remove(file); err != nil {
		t.Errorf("Remove(file) error = %v", err)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("removed file still present")
	}
	if err := m.Remove(full); err == nil {
		t.Error("Remove(non-empty dir) error = nil, want failure")
	}
	if !m.IsDir(full) {
		t.Error("IsDir(full) = false, want true")
	}
}
