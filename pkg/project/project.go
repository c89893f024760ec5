package project

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/compkit/compkit/pkg/config"
	"github.com/compkit/compkit/pkg/versionmap"
)

const ManifestFile = config.ManifestFileName

// GitignoreEntries are files compkit creates that should not be committed.
var GitignoreEntries = []string{config.LocalConfigFile}

// InferRepo guesses the upstream repository name from the project directory.
func InferRepo(dir string) string {
	return filepath.Base(dir)
}

// InitConfig writes cfg as the project manifest in dir. Returns an error if
// the manifest already exists.
func InitConfig(dir string, cfg *config.Config) (string, error) {
	path := filepath.Join(dir, ManifestFile)

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", ManifestFile)
	}

	if err := config.SaveFile(path, cfg); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// InitVersions writes an empty version map merged with extra top-level
// fields. An existing file is replaced. An extra "components" field
// overrides the empty component set.
func InitVersions(store versionmap.Store, extra map[string]json.RawMessage) error {
	fields := make(map[string]json.RawMessage, len(extra)+1)
	fields["components"] = json.RawMessage(`{}`)
	maps.Copy(fields, extra)

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding extra fields: %w", err)
	}
	vm := versionmap.New()
	if err := json.Unmarshal(data, vm); err != nil {
		return fmt.Errorf("invalid extra fields: %w", err)
	}
	return store.Save(vm)
}

// ParseExtra turns key=value pairs into JSON fields. Values that parse as
// JSON are kept as is; anything else becomes a JSON string.
func ParseExtra(pairs []string) (map[string]json.RawMessage, error) {
	extra := make(map[string]json.RawMessage, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid extra field %q, expected key=value", p)
		}
		if json.Valid([]byte(value)) {
			extra[key] = json.RawMessage(value)
			continue
		}
		quoted, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		extra[key] = quoted
	}
	return extra, nil
}

// EnsureGitignore ensures that each entry appears somewhere in the .gitignore
// file within dir. Only entries not already present are appended. Returns the
// list of entries that were actually added.
func EnsureGitignore(dir string, entries []string) ([]string, error) {
	path := filepath.Join(dir, ".gitignore")

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var toAdd []string
	for _, entry := range entries {
		if !present[entry] {
			toAdd = append(toAdd, entry)
		}
	}
	if len(toAdd) == 0 {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		if _, err := f.WriteString("\n"); err != nil {
			return nil, err
		}
	}
	for _, entry := range toAdd {
		if _, err := f.WriteString(entry + "\n"); err != nil {
			return nil, err
		}
	}
	return toAdd, nil
}
