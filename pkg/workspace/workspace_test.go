package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestPath(t *testing.T) {
	root := "/tmp/project"

	tests := map[string]struct {
		segments []string
		want     string
	}{
		"no segments": {
			segments: nil,
			want:     root,
		},
		"single segment": {
			segments: []string{"components.json"},
			want:     filepath.Join(root, "components.json"),
		},
		"destination dir and base name": {
			segments: []string{"src/components", "button.ts"},
			want:     filepath.Join(root, "src", "components", "button.ts"),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			w := New(root)
			got := w.Path(tc.segments...)
			if got != tc.want {
				t.Errorf("Path(%v) = %q, want %q", tc.segments, got, tc.want)
			}
		})
	}
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	w := New(root)

	os.MkdirAll(filepath.Join(root, "src"), 0o755)
	os.WriteFile(filepath.Join(root, "src", "button.ts"), []byte("x"), 0o644)

	tests := map[string]struct {
		segments []string
		want     bool
	}{
		"existing directory": {
			segments: []string{"src"},
			want:     true,
		},
		"existing file": {
			segments: []string{"src", "button.ts"},
			want:     true,
		},
		"missing file": {
			segments: []string{"src", "dialog.ts"},
			want:     false,
		},
		"missing nested path": {
			segments: []string{"a", "b", "c"},
			want:     false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := w.Exists(tc.segments...)
			if err != nil {
				t.Fatalf("Exists(%v) returned unexpected error: %v", tc.segments, err)
			}
			if got != tc.want {
				t.Errorf("Exists(%v) = %v, want %v", tc.segments, got, tc.want)
			}
		})
	}
}

func TestWriteFileReadFile(t *testing.T) {
	tests := map[string]struct {
		segments []string
		content  string
	}{
		"file at root": {
			segments: []string{"hello.ts"},
			content:  "export const hello = 1\n",
		},
		"creates parent directories": {
			segments: []string{"src", "components", "ui", "button.ts"},
			content:  "export function Button() {}\n",
		},
		"empty file": {
			segments: []string{"empty.ts"},
			content:  "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			w := New(t.TempDir())

			if err := w.WriteFile(tc.content, tc.segments...); err != nil {
				t.Fatalf("WriteFile() error: %v", err)
			}

			got, err := w.ReadFile(tc.segments...)
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			if got != tc.content {
				t.Errorf("ReadFile() = %q, want %q", got, tc.content)
			}
		})
	}
}

func TestWriteFileOverwrites(t *testing.T) {
	w := New(t.TempDir())
	if err := w.WriteFile("old", "a.ts"); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFile("new", "a.ts"); err != nil {
		t.Fatal(err)
	}
	got, _ := w.ReadFile("a.ts")
	if got != "new" {
		t.Errorf("ReadFile() = %q, want %q", got, "new")
	}
}

func TestReadFileNotFound(t *testing.T) {
	w := New(t.TempDir())
	if _, err := w.ReadFile("nonexistent.ts"); err == nil {
		t.Fatal("expected error reading nonexistent file, got nil")
	}
}

func TestRemove(t *testing.T) {
	tests := map[string]struct {
		setup func(root string)
	}{
		"existing file": {
			setup: func(root string) {
				os.WriteFile(filepath.Join(root, "button.ts"), []byte("data"), 0o644)
			},
		},
		"missing file": {
			setup: func(root string) {},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			w := New(root)
			tc.setup(root)

			if err := w.Remove("button.ts"); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if _, err := os.Stat(filepath.Join(root, "button.ts")); !os.IsNotExist(err) {
				t.Error("expected file to be removed")
			}
		})
	}
}

func TestHash(t *testing.T) {
	root := t.TempDir()
	w := New(root)
	os.WriteFile(filepath.Join(root, "a.ts"), []byte("alpha"), 0o644)

	got, err := w.Hash("a.ts")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	sum := sha256.Sum256([]byte("alpha"))
	want := hashPrefix + hex.EncodeToString(sum[:])
	if got != want {
		t.Errorf("Hash() = %q, want %q", got, want)
	}

	if _, err := w.Hash("missing.ts"); err == nil {
		t.Error("expected error hashing missing file, got nil")
	}
}
