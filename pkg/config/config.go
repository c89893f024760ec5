package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"sigs.k8s.io/yaml"
)

// ManifestFileName is the default project configuration filename.
const ManifestFileName = "compkit.toml"

// DefaultDir is where component files land when no destination is configured.
const DefaultDir = "src/components"

// DefaultTagTemplate names tags "<repo>@<version>".
const DefaultTagTemplate = "{repo}@{version}"

// manifestCandidates are probed in order by Find.
var manifestCandidates = []string{ManifestFileName, "compkit.yaml", "compkit.yml"}

// Config is the project configuration. It describes the upstream repository
// and the policies used to map components onto it.
type Config struct {
	Repo RepoConfig `toml:"repo" json:"repo"`

	// Dir is the fixed destination directory, relative to the project root.
	Dir string `toml:"dir,omitempty" json:"dir,omitempty"`
	// Dirs maps upstream paths to destination directories. The first rule
	// whose glob matches wins; unmatched paths fall back to Dir.
	Dirs []DirRule `toml:"dirs,omitempty" json:"dirs,omitempty"`

	// ComponentsJSON is the version map filename, relative to the project root.
	ComponentsJSON string `toml:"components_json,omitempty" json:"components_json,omitempty"`
	// DisableComponentsJSON turns off version tracking entirely.
	DisableComponentsJSON bool `toml:"disable_components_json,omitempty" json:"disable_components_json,omitempty"`

	// TagTemplate builds a tag from a version, with {repo} and {version}
	// placeholders.
	TagTemplate string         `toml:"tag_template,omitempty" json:"tag_template,omitempty"`
	ValidTag    ValidTagConfig `toml:"valid_tag,omitempty" json:"valid_tag,omitempty"`

	// Patterns lists glob patterns per component, with {component} and {tag}
	// placeholders. Components without an entry use DefaultPatterns.
	Patterns        map[string][]string `toml:"patterns,omitempty" json:"patterns,omitempty"`
	DefaultPatterns []string            `toml:"default_patterns,omitempty" json:"default_patterns,omitempty"`

	Transform TransformConfig `toml:"transform,omitempty" json:"transform,omitempty"`
}

type RepoConfig struct {
	Owner string `toml:"owner" json:"owner"`
	Name  string `toml:"name" json:"name"`
}

type DirRule struct {
	Match string `toml:"match" json:"match"`
	Dir   string `toml:"dir" json:"dir"`
}

// ValidTagConfig decides which tags count when resolving "latest". All
// configured checks must pass.
type ValidTagConfig struct {
	// Prefix must lead the tag. It is stripped before the semver check.
	Prefix string `toml:"prefix,omitempty" json:"prefix,omitempty"`
	// Pattern is a regular expression the full tag must match.
	Pattern string `toml:"pattern,omitempty" json:"pattern,omitempty"`
	// Constraint is a semver constraint such as ">= 1.0.0" or "^2".
	Constraint string `toml:"constraint,omitempty" json:"constraint,omitempty"`
}

func (v ValidTagConfig) IsZero() bool {
	return v.Prefix == "" && v.Pattern == "" && v.Constraint == ""
}

type TransformConfig struct {
	Replace []Replacement `toml:"replace,omitempty" json:"replace,omitempty"`
}

// Replacement swaps every occurrence of From with To. To may contain the
// {tag} and {path} placeholders.
type Replacement struct {
	From string `toml:"from" json:"from"`
	To   string `toml:"to" json:"to"`
}

// Default returns a configuration for owner/repo with default policies.
func Default(owner, repo string) *Config {
	return &Config{
		Repo:            RepoConfig{Owner: owner, Name: repo},
		Dir:             DefaultDir,
		TagTemplate:     DefaultTagTemplate,
		DefaultPatterns: []string{"src/{component}/*"},
	}
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	if c.TagTemplate == "" {
		c.TagTemplate = DefaultTagTemplate
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var err error
	if c.Repo.Owner == "" {
		err = errors.Join(err, fmt.Errorf("repo.owner must be set"))
	}
	if c.Repo.Name == "" {
		err = errors.Join(err, fmt.Errorf("repo.name must be set"))
	}
	if len(c.Patterns) == 0 && len(c.DefaultPatterns) == 0 {
		err = errors.Join(err, fmt.Errorf("patterns or default_patterns must be set"))
	}
	for i, r := range c.Dirs {
		if r.Match == "" || r.Dir == "" {
			err = errors.Join(err, fmt.Errorf("dirs[%d] needs both match and dir", i))
		}
	}
	for i, r := range c.Transform.Replace {
		if r.From == "" {
			err = errors.Join(err, fmt.Errorf("transform.replace[%d].from must not be empty", i))
		}
	}
	return err
}

// UnmarshalConfig decodes data as YAML when format is "yaml" or "yml" and as
// TOML otherwise.
func UnmarshalConfig(data []byte, format string) (*Config, error) {
	cfg := &Config{}
	var err error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.UnmarshalStrict(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(c)
	default:
		return toml.Marshal(c)
	}
}

func formatOf(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := UnmarshalConfig(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func SaveFile(path string, cfg *Config) error {
	data, err := cfg.Marshal(formatOf(path))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Find returns the first project configuration file present in dir.
func Find(dir string) (string, error) {
	for _, name := range manifestCandidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s found in %s (run \"compkit init\")", ManifestFileName, dir)
}
