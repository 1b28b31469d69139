package deleter

import (
	"context"
	"errors"
	"testing"

	"github.com/vertextoedge/diskguard/internal/domain"
	"go.uber.org/zap"
)

// mockRemover implements port.Remover for testing
type mockRemover struct {
	fail    map[string]bool
	removed []string
}

func (m *mockRemover) Remove(path string) error {
	if m.fail[path] {
		return errors.New("permission denied")
	}
	m.removed = append(m.removed, path)
	return nil
}

// mockRunner implements port.CommandRunner for testing
type mockRunner struct {
	exitCode int
	err      error
	commands []string
}

func (m *mockRunner) Run(ctx context.Context, commands ...string) (*domain.CommandResult, error) {
	m.commands = append(m.commands, commands...)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.CommandResult{ExitCode: m.exitCode, Stderr: []string{"rm: cannot remove"}}, nil
}

func TestSafeDeleter_SafetyGate(t *testing.T) {
	paths := []string{"", "   ", "/", "//", "/system", "/system/app", "/systemd", "/efs", "/efs/imei", "/data/../system/x", "relative/dir", "/mnt/secret"}

	for _, force := range []bool{false, true} {
		for _, p := range paths {
			runner := &mockRunner{}
			d := New(&mockRemover{}, runner, []string{"/mnt/secret", " "}, zap.NewNop())

			if d.DeleteDirectoryRecursive(context.Background(), p, force) {
				t.Errorf("DeleteDirectoryRecursive(%q, force=%v) = true, want false", p, force)
			}
			if len(runner.commands) != 0 {
				t.Errorf("DeleteDirectoryRecursive(%q, force=%v) issued %v, want no command", p, force, runner.commands)
			}
		}
	}
}

func TestSafeDeleter_DeleteDirectoryRecursive(t *testing.T) {
	tests := []struct {
		name     string
		force    bool
		exitCode int
		err      error
		want     bool
		wantCmd  string
	}{
		{"rm -r success", false, 0, nil, true, "rm -r /storage/usb/cam/2024"},
		{"rm -rf success", true, 0, nil, true, "rm -rf /storage/usb/cam/2024"},
		{"non-zero exit", false, 1, nil, false, "rm -r /storage/usb/cam/2024"},
		{"channel unavailable", true, 0, domain.ErrPrivilegeUnavailable, false, "rm -rf /storage/usb/cam/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{exitCode: tt.exitCode, err: tt.err}
			d := New(&mockRemover{}, runner, nil, nil)

			got := d.DeleteDirectoryRecursive(context.Background(), "/storage/usb/cam/2024", tt.force)
			if got != tt.want {
				t.Errorf("DeleteDirectoryRecursive() = %v, want %v", got, tt.want)
			}
			if len(runner.commands) != 1 || runner.commands[0] != tt.wantCmd {
				t.Errorf("commands = %v, want [%s]", runner.commands, tt.wantCmd)
			}
		})
	}
}

func TestSafeDeleter_DeleteFile(t *testing.T) {
	const victim = "/storage/usb/cam/a.mp4"

	t.Run("ordinary delete succeeds", func(t *testing.T) {
		fs := &mockRemover{}
		runner := &mockRunner{}
		d := New(fs, runner, nil, nil)

		if !d.DeleteFile(context.Background(), victim) {
			t.Fatal("DeleteFile() = false, want true")
		}
		if len(runner.commands) != 0 {
			t.Errorf("privileged commands = %v, want none", runner.commands)
		}
	})

	t.Run("falls back to rm without force", func(t *testing.T) {
		fs := &mockRemover{fail: map[string]bool{victim: true}}
		runner := &mockRunner{}
		d := New(fs, runner, nil, nil)

		if !d.DeleteFile(context.Background(), victim) {
			t.Fatal("DeleteFile() = false, want true")
		}
		if len(runner.commands) != 1 || runner.commands[0] != "rm "+victim {
			t.Errorf("commands = %v, want [rm %s]", runner.commands, victim)
		}
	})

	t.Run("both paths fail", func(t *testing.T) {
		fs := &mockRemover{fail: map[string]bool{victim: true}}
		d := New(fs, &mockRunner{exitCode: 1}, nil, nil)

		if d.DeleteFile(context.Background(), victim) {
			t.Fatal("DeleteFile() = true, want false")
		}
	})

	t.Run("no privileged channel", func(t *testing.T) {
		fs := &mockRemover{fail: map[string]bool{victim: true}}
		d := New(fs, nil, nil, nil)

		if d.DeleteFile(context.Background(), victim) {
			t.Fatal("DeleteFile() = true, want false")
		}
	})
}

func TestSafeDeleter_DeleteEntry(t *testing.T) {
	const dir = "/storage/usb/cam/2023-01"

	fs := &mockRemover{fail: map[string]bool{dir: true}}
	runner := &mockRunner{}
	d := New(fs, runner, nil, nil)

	deleted, viaRoot := d.DeleteEntry(context.Background(), dir)
	if !deleted || !viaRoot {
		t.Errorf("DeleteEntry() = (%v, %v), want (true, true)", deleted, viaRoot)
	}
	if len(runner.commands) != 1 || runner.commands[0] != "rm -rf "+dir {
		t.Errorf("commands = %v, want [rm -rf %s]", runner.commands, dir)
	}

	deleted, viaRoot = d.DeleteEntry(context.Background(), "/storage/usb/cam/plain.mp4")
	if !deleted || viaRoot {
		t.Errorf("DeleteEntry(plain) = (%v, %v), want (true, false)", deleted, viaRoot)
	}
}

func TestSafeDeleter_DeleteEntryRespectsGate(t *testing.T) {
	fs := &mockRemover{fail: map[string]bool{"/system/app": true}}
	runner := &mockRunner{}
	d := New(fs, runner, nil, nil)

	if deleted, _ := d.DeleteEntry(context.Background(), "/system/app"); deleted {
		t.Error("DeleteEntry(/system/app) = true, want false")
	}
	if len(runner.commands) != 0 {
		t.Errorf("commands = %v, want none", runner.commands)
	}
}
