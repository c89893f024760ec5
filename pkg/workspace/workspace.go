package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPerm    = 0o755
	filePerm   = 0o644
	hashPrefix = "sha256:"
)

// Workspace is the local project tree components are installed into. All
// paths are relative to the workspace root unless they are absolute.
type Workspace interface {
	// Root returns the workspace root directory.
	Root() string
	// Path joins segments under the root. Does not create or verify the path.
	Path(segments ...string) string
	// Exists reports whether the path at segments exists.
	Exists(segments ...string) (bool, error)
	// WriteFile writes content to the file at segments, creating parent
	// directories as needed.
	WriteFile(content string, segments ...string) error
	// ReadFile reads the file at segments.
	ReadFile(segments ...string) (string, error)
	// Remove deletes the file at segments. A missing file is not an error.
	Remove(segments ...string) error
	// Hash returns a "sha256:<hex>" digest of the file at segments.
	Hash(segments ...string) (string, error)
}

func New(root string) Workspace {
	return &workspace{root: root}
}

// Default returns a workspace rooted at the current working directory.
func Default() (Workspace, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return &workspace{root: wd}, nil
}

type workspace struct {
	root string
}

var _ Workspace = &workspace{}

func (w *workspace) Root() string {
	return w.root
}

func (w *workspace) Path(segments ...string) string {
	return filepath.Join(append([]string{w.root}, segments...)...)
}

func (w *workspace) Exists(segments ...string) (bool, error) {
	_, err := os.Stat(w.Path(segments...))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (w *workspace) WriteFile(content string, segments ...string) error {
	path := w.Path(segments...)
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("write file error: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		return fmt.Errorf("write file error: %w", err)
	}
	return nil
}

func (w *workspace) ReadFile(segments ...string) (string, error) {
	data, err := os.ReadFile(w.Path(segments...))
	if err != nil {
		return "", fmt.Errorf("read file error: %w", err)
	}
	return string(data), nil
}

func (w *workspace) Remove(segments ...string) error {
	if err := os.Remove(w.Path(segments...)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file error: %w", err)
	}
	return nil
}

func (w *workspace) Hash(segments ...string) (string, error) {
	data, err := os.ReadFile(w.Path(segments...))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hashPrefix + hex.EncodeToString(sum[:]), nil
}
