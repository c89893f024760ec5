package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// LocalConfigFile is the project-local developer config filename.
const LocalConfigFile = "compkit.local.toml"

// DevConfig holds developer-specific settings that are NOT committed to
// version control. It is resolved with Viper precedence:
// CLI flags > environment > compkit.local.toml > ~/.compkit/config.toml.
type DevConfig struct {
	Token     string        `toml:"token,omitempty" mapstructure:"token"`
	APIURL    string        `toml:"api_url,omitempty" mapstructure:"api_url"`
	RawURL    string        `toml:"raw_url,omitempty" mapstructure:"raw_url"`
	LogLevel  string        `toml:"log_level,omitempty" mapstructure:"log_level"`
	LogFormat string        `toml:"log_format,omitempty" mapstructure:"log_format"`
	Timeout   time.Duration `toml:"timeout,omitempty" mapstructure:"timeout"`
}

// Flags carries developer settings given on the command line. Empty values
// are not applied.
type Flags struct {
	LogLevel  string
	LogFormat string
	Token     string
}

// LoadDevConfig resolves developer configuration for the project in dir.
func LoadDevConfig(dir string, flags Flags) (*DevConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	globalPath := filepath.Join(home, ".compkit", "config.toml")
	return loadDevConfig(flags, globalPath, filepath.Join(dir, LocalConfigFile))
}

// loadDevConfig accepts explicit paths so it can be tested without touching
// the real home directory.
func loadDevConfig(flags Flags, globalPath, localPath string) (*DevConfig, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetDefault("api_url", "https://api.github.com")
	v.SetDefault("raw_url", "https://raw.githubusercontent.com")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("timeout", "30s")

	// Lowest priority: global config, ignored if missing.
	v.SetConfigFile(globalPath)
	_ = v.ReadInConfig()

	if _, err := os.Stat(localPath); err == nil {
		v.SetConfigFile(localPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", localPath, err)
		}
	}

	v.SetEnvPrefix("compkit")
	v.AutomaticEnv()
	if err := v.BindEnv("token", "COMPKIT_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"); err != nil {
		return nil, err
	}

	if flags.LogLevel != "" {
		v.Set("log_level", flags.LogLevel)
	}
	if flags.LogFormat != "" {
		v.Set("log_format", flags.LogFormat)
	}
	if flags.Token != "" {
		v.Set("token", flags.Token)
	}

	cfg := &DevConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling dev config: %w", err)
	}
	return cfg, nil
}

// WriteLocalDevConfig persists developer config to compkit.local.toml in
// the given project directory.
func WriteLocalDevConfig(projectDir string, cfg *DevConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling dev config: %w", err)
	}

	path := filepath.Join(projectDir, LocalConfigFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
