package executable

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/benpak/benpak/internal/catalog"
)

func writeExec(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePlain(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveExactBeatsPrefix(t *testing.T) {
	subtree := t.TempDir()
	writeExec(t, subtree, "gitkraken-tunnel")
	exact := writeExec(t, subtree, "gitkraken")

	desc := &catalog.Descriptor{Identifier: "gitkraken"}
	got, err := Resolve(desc, subtree)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != exact {
		t.Errorf("Resolve() = %q, want exact match %q", got, exact)
	}
}

func TestResolvePrefersBinDir(t *testing.T) {
	subtree := t.TempDir()
	writeExec(t, subtree, "code")
	inBin := writeExec(t, filepath.Join(subtree, "usr", "bin"), "code")

	desc := &catalog.Descriptor{Identifier: "vscode", Executable: "code"}
	got, err := Resolve(desc, subtree)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != inBin {
		t.Errorf("Resolve() = %q, want bin-dir candidate %q", got, inBin)
	}
}

func TestResolveSkipsNonExecutable(t *testing.T) {
	subtree := t.TempDir()
	writePlain(t, subtree, "spotify") // right name, not executable
	real := writeExec(t, filepath.Join(subtree, "usr", "bin"), "spotify")

	desc := &catalog.Descriptor{Identifier: "spotify"}
	got, err := Resolve(desc, subtree)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != real {
		t.Errorf("Resolve() = %q, want %q", got, real)
	}
}

func TestResolveHelperLosesToMain(t *testing.T) {
	subtree := t.TempDir()
	// Both prefix-match "app"; neither is exact. The helper suffix
	// decides.
	helper := writeExec(t, subtree, "app-tunnel")
	main := writeExec(t, subtree, "appmain")

	desc := &catalog.Descriptor{Identifier: "app"}
	got, err := Resolve(desc, subtree)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got == helper {
		t.Errorf("Resolve() picked helper %q over %q", helper, main)
	}
}

func TestResolveNotFound(t *testing.T) {
	subtree := t.TempDir()
	writeExec(t, subtree, "unrelated")

	desc := &catalog.Descriptor{Identifier: "ghost"}
	_, err := Resolve(desc, subtree)
	if err == nil {
		t.Fatal("Resolve() expected error for missing executable")
	}

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("error type = %T, want *NotFoundError", err)
	}
}

func TestResolveBinPathHint(t *testing.T) {
	subtree := t.TempDir()

	// Hint pointing at a file that does not exist yet is still trusted.
	desc := &catalog.Descriptor{Identifier: "blender", BinPath: "blender-bin/blender"}
	got, err := Resolve(desc, subtree)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := filepath.Join(subtree, "blender-bin", "blender")
	if got != want {
		t.Errorf("Resolve() = %q, want hinted %q", got, want)
	}
}

func TestResolveBinPathHintDirectory(t *testing.T) {
	subtree := t.TempDir()
	inHinted := writeExec(t, filepath.Join(subtree, "squashfs-root"), "obs")
	writeExec(t, subtree, "obs") // would win the generic search

	desc := &catalog.Descriptor{Identifier: "obs", BinPath: "squashfs-root"}
	got, err := Resolve(desc, subtree)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != inHinted {
		t.Errorf("Resolve() = %q, want candidate inside hinted dir %q", got, inHinted)
	}
}

func TestResolveBinPathHintEmptyDirectory(t *testing.T) {
	subtree := t.TempDir()
	hinted := filepath.Join(subtree, "squashfs-root")
	if err := os.MkdirAll(hinted, 0755); err != nil {
		t.Fatal(err)
	}

	// An existing but still-empty hinted directory resolves to the file
	// expected inside it, never to the directory itself.
	desc := &catalog.Descriptor{Identifier: "obs", BinPath: "squashfs-root"}
	got, err := Resolve(desc, subtree)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := filepath.Join(hinted, "obs")
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolveCaseInsensitiveMatch(t *testing.T) {
	subtree := t.TempDir()
	bin := writeExec(t, subtree, "GitKraken")

	desc := &catalog.Descriptor{Identifier: "gitkraken"}
	got, err := Resolve(desc, subtree)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != bin {
		t.Errorf("Resolve() = %q, want case-insensitive match %q", got, bin)
	}
}

func TestIsHelper(t *testing.T) {
	tests := []struct {
		base string
		want bool
	}{
		{"app-cli", true},
		{"app-tunnel", true},
		{"discord_crashpad_handler", true},
		{"app", false},
		{"application", false},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			if got := isHelper(tt.base); got != tt.want {
				t.Errorf("isHelper(%q) = %v, want %v", tt.base, got, tt.want)
			}
		})
	}
}
