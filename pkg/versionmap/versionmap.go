package versionmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// DefaultFileName is the version map filename inside the project directory.
const DefaultFileName = "components.json"

const componentsKey = "components"

var ErrMissingComponents = errors.New(`missing required "components" field`)

// VersionMap records the version string installed for each component, plus
// any caller-defined top-level fields which are carried through untouched.
type VersionMap struct {
	Components map[string]string
	Extra      map[string]json.RawMessage
}

func New() *VersionMap {
	return &VersionMap{
		Components: make(map[string]string),
		Extra:      make(map[string]json.RawMessage),
	}
}

// Names returns the recorded component names in sorted order.
func (vm *VersionMap) Names() []string {
	return slices.Sorted(maps.Keys(vm.Components))
}

func (vm *VersionMap) Clone() *VersionMap {
	return &VersionMap{
		Components: maps.Clone(vm.Components),
		Extra:      maps.Clone(vm.Extra),
	}
}

func (vm *VersionMap) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	raw, ok := fields[componentsKey]
	if !ok {
		return ErrMissingComponents
	}
	components := make(map[string]string)
	if err := json.Unmarshal(raw, &components); err != nil {
		return fmt.Errorf("decoding %q: %w", componentsKey, err)
	}
	if components == nil {
		components = make(map[string]string)
	}
	delete(fields, componentsKey)

	vm.Components = components
	vm.Extra = fields
	return nil
}

func (vm *VersionMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(vm.Extra)+1)
	for k, v := range vm.Extra {
		out[k] = v
	}
	components := vm.Components
	if components == nil {
		components = map[string]string{}
	}
	out[componentsKey] = components
	return json.Marshal(out)
}

// Encode returns the version map as 2-space indented JSON with a trailing
// newline. Keys are emitted in sorted order.
func (vm *VersionMap) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(vm, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Store persists a VersionMap. A nil Store means version tracking is
// disabled for the invocation.
type Store interface {
	Load() (*VersionMap, error)
	Save(vm *VersionMap) error
}

// FileStore keeps the version map in a JSON file.
type FileStore struct {
	Path string
}

var _ Store = &FileStore{}

// NewFileStore returns a FileStore for name inside dir. An empty name uses
// DefaultFileName.
func NewFileStore(dir, name string) *FileStore {
	if name == "" {
		name = DefaultFileName
	}
	return &FileStore{Path: filepath.Join(dir, name)}
}

func (s *FileStore) Load() (*VersionMap, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w (run \"compkit init\" to create it)", s.Path, err)
	}

	vm := New()
	if err := json.Unmarshal(data, vm); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path, err)
	}
	return vm, nil
}

func (s *FileStore) Save(vm *VersionMap) error {
	data, err := vm.Encode()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.Path, err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.Path, err)
	}
	return nil
}

// MemoryStore holds a version map in memory and counts saves.
type MemoryStore struct {
	VM    *VersionMap
	Saves int
}

var _ Store = &MemoryStore{}

func (s *MemoryStore) Load() (*VersionMap, error) {
	if s.VM == nil {
		return New(), nil
	}
	return s.VM.Clone(), nil
}

func (s *MemoryStore) Save(vm *VersionMap) error {
	s.VM = vm.Clone()
	s.Saves++
	return nil
}
