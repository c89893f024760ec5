package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearTokenEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"COMPKIT_TOKEN", "GITHUB_TOKEN", "GH_TOKEN", "COMPKIT_LOG_LEVEL", "COMPKIT_API_URL"} {
		t.Setenv(k, "")
	}
}

func TestLoadDevConfig(t *testing.T) {
	tests := map[string]struct {
		global    string
		local     string
		env       map[string]string
		flags     Flags
		wantToken string
		wantLevel string
		wantAPI   string
	}{
		"no config files uses defaults": {
			wantLevel: "info",
			wantAPI:   "https://api.github.com",
		},
		"local overrides global": {
			global:    "token = \"global\"\nlog_level = \"warn\"\n",
			local:     "token = \"local\"\n",
			wantToken: "local",
			wantLevel: "warn",
			wantAPI:   "https://api.github.com",
		},
		"only global config": {
			global:    "api_url = \"https://ghe.example.com/api/v3\"\n",
			wantLevel: "info",
			wantAPI:   "https://ghe.example.com/api/v3",
		},
		"github token env beats files": {
			local:     "token = \"local\"\n",
			env:       map[string]string{"GITHUB_TOKEN": "from-env"},
			wantToken: "from-env",
			wantLevel: "info",
			wantAPI:   "https://api.github.com",
		},
		"prefixed env for other keys": {
			env:       map[string]string{"COMPKIT_LOG_LEVEL": "debug", "COMPKIT_API_URL": "http://localhost:9000"},
			wantLevel: "debug",
			wantAPI:   "http://localhost:9000",
		},
		"flags override everything": {
			local:     "log_level = \"warn\"\ntoken = \"local\"\n",
			env:       map[string]string{"COMPKIT_TOKEN": "env"},
			flags:     Flags{LogLevel: "error", Token: "flag"},
			wantToken: "flag",
			wantLevel: "error",
			wantAPI:   "https://api.github.com",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			clearTokenEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			globalPath := filepath.Join(dir, "global-config.toml")
			localPath := filepath.Join(dir, LocalConfigFile)
			if tc.global != "" {
				writeTestFile(t, globalPath, tc.global)
			}
			if tc.local != "" {
				writeTestFile(t, localPath, tc.local)
			}

			cfg, err := loadDevConfig(tc.flags, globalPath, localPath)
			if err != nil {
				t.Fatalf("loadDevConfig() error = %v", err)
			}

			if cfg.Token != tc.wantToken {
				t.Errorf("Token = %q, want %q", cfg.Token, tc.wantToken)
			}
			if cfg.LogLevel != tc.wantLevel {
				t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, tc.wantLevel)
			}
			if cfg.APIURL != tc.wantAPI {
				t.Errorf("APIURL = %q, want %q", cfg.APIURL, tc.wantAPI)
			}
			if cfg.Timeout != 30*time.Second {
				t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
			}
		})
	}
}

func TestLoadDevConfigMalformedLocal(t *testing.T) {
	clearTokenEnv(t)
	dir := t.TempDir()
	localPath := filepath.Join(dir, LocalConfigFile)
	writeTestFile(t, localPath, "token = \n")

	if _, err := loadDevConfig(Flags{}, filepath.Join(dir, "missing.toml"), localPath); err == nil {
		t.Fatal("loadDevConfig() error = nil, want parse error")
	}
}

func TestWriteLocalDevConfig(t *testing.T) {
	clearTokenEnv(t)
	dir := t.TempDir()
	if err := WriteLocalDevConfig(dir, &DevConfig{Token: "secret", LogLevel: "debug"}); err != nil {
		t.Fatalf("WriteLocalDevConfig() error = %v", err)
	}

	cfg, err := loadDevConfig(Flags{}, filepath.Join(dir, "missing.toml"), filepath.Join(dir, LocalConfigFile))
	if err != nil {
		t.Fatalf("loadDevConfig() error = %v", err)
	}
	if cfg.Token != "secret" || cfg.LogLevel != "debug" {
		t.Errorf("round trip = %+v", cfg)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
