package procguard

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func copyBinary(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	if err != nil {
		t.Skipf("cannot read %s: %v", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, data, 0755); err != nil {
		t.Fatal(err)
	}
}

// startReaped starts cmd and reaps it in the background so killed
// children do not linger as zombies during liveness polls.
func startReaped(t *testing.T, cmd *exec.Cmd) {
	t.Helper()
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start %v: %v", cmd.Args, err)
	}
	go cmd.Wait()
	t.Cleanup(func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	})
}

func TestFindRunningMissingSubtree(t *testing.T) {
	g := NewGuard(t.TempDir())

	matches, err := g.FindRunning(context.Background(), "never-installed")
	if err != nil {
		t.Fatalf("FindRunning() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("FindRunning() = %d matches for missing subtree, want 0", len(matches))
	}
}

func TestFindRunningExePathRule(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("process exe inspection is linux-specific here")
	}

	root := t.TempDir()
	subtree := filepath.Join(root, "mypkg")
	binPath := filepath.Join(subtree, "bin", "mypkg")
	copyBinary(t, "/bin/sleep", binPath)

	cmd := exec.Command(binPath, "30")
	startReaped(t, cmd)

	g := NewGuard(root)
	matches, err := g.FindRunning(context.Background(), "mypkg")
	if err != nil {
		t.Fatalf("FindRunning() error = %v", err)
	}

	found := false
	for _, m := range matches {
		if m.PID == int32(cmd.Process.Pid) {
			found = true
			if m.Rule != RuleExePath {
				t.Errorf("match rule = %q, want %q", m.Rule, RuleExePath)
			}
		}
	}
	if !found {
		t.Errorf("spawned process (pid %d) not matched; got %v", cmd.Process.Pid, matches)
	}
}

func TestFindRunningArgumentRule(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}

	root := t.TempDir()
	subtree := filepath.Join(root, "argpkg")
	if err := os.MkdirAll(subtree, 0755); err != nil {
		t.Fatal(err)
	}

	// The subtree path rides along as $0 of the shell.
	cmd := exec.Command("/bin/sh", "-c", "sleep 30", subtree)
	startReaped(t, cmd)

	g := NewGuard(root)

	deadline := time.Now().Add(2 * time.Second)
	for {
		matches, err := g.FindRunning(context.Background(), "argpkg")
		if err != nil {
			t.Fatalf("FindRunning() error = %v", err)
		}

		for _, m := range matches {
			if m.PID == int32(cmd.Process.Pid) {
				if m.Rule != RuleArgument {
					t.Errorf("match rule = %q, want %q", m.Rule, RuleArgument)
				}
				return
			}
		}

		if time.Now().After(deadline) {
			t.Fatalf("spawned shell (pid %d) never matched", cmd.Process.Pid)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestTerminate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signal-based termination")
	}

	root := t.TempDir()
	subtree := filepath.Join(root, "killpkg")
	binPath := filepath.Join(subtree, "killpkg")
	copyBinary(t, "/bin/sleep", binPath)

	cmd := exec.Command(binPath, "300")
	startReaped(t, cmd)

	g := NewGuard(root)
	match := Match{PID: int32(cmd.Process.Pid), Name: "killpkg"}

	if ok := g.Terminate(context.Background(), []Match{match}); !ok {
		t.Error("Terminate() = false, want confirmed dead")
	}
}

func TestTerminateAlreadyDead(t *testing.T) {
	g := NewGuard(t.TempDir())

	// A pid from the far end of the range that almost certainly has no
	// live process behind it.
	if ok := g.Terminate(context.Background(), []Match{{PID: 1 << 22, Name: "ghost"}}); !ok {
		t.Error("Terminate() = false for a dead pid, want true")
	}
}

func TestExecutableNames(t *testing.T) {
	subtree := t.TempDir()
	if err := os.MkdirAll(filepath.Join(subtree, "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(subtree, "bin", "app"), []byte("x"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(subtree, "README"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	names := executableNames(subtree)
	if !names["app"] {
		t.Error("executableNames() missed bin/app")
	}
	if names["README"] {
		t.Error("executableNames() included non-executable README")
	}
}

func TestArgContains(t *testing.T) {
	tests := []struct {
		name    string
		cmdline []string
		subtree string
		want    bool
	}{
		{name: "direct mention", cmdline: []string{"electron", "--app=/opt/x/app"}, subtree: "/opt/x", want: true},
		{name: "no mention", cmdline: []string{"electron", "--app=/opt/y/app"}, subtree: "/opt/x", want: false},
		{name: "empty cmdline", cmdline: nil, subtree: "/opt/x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := argContains(tt.cmdline, tt.subtree); got != tt.want {
				t.Errorf("argContains(%v, %q) = %v, want %v", tt.cmdline, tt.subtree, got, tt.want)
			}
		})
	}
}

func TestTerminationError(t *testing.T) {
	err := &TerminationError{
		Identifier: "discord",
		Survivors:  []Match{{PID: 4242, Name: "Discord"}},
	}

	msg := err.Error()
	if want := "Discord (pid 4242)"; !strings.Contains(msg, want) {
		t.Errorf("Error() = %q, want it to mention %q", msg, want)
	}
}
