package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/jail/internal/errors"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/cfg/jail", "/data/jail")

	if p.JailsDir != filepath.Join("/data/jail", "jails") {
		t.Errorf("JailsDir = %q", p.JailsDir)
	}
	if p.ConfigFile() != filepath.Join("/cfg/jail", ConfigFileName) {
		t.Errorf("ConfigFile() = %q", p.ConfigFile())
	}
}

func TestDataRoot(t *testing.T) {
	tests := []struct {
		name string
		goos string
		xdg  string
		want string
	}{
		{"linux default", "linux", "", "/home/u/.local/share/jail"},
		{"linux xdg", "linux", "/xdg/data", "/xdg/data/jail"},
		{"linux relative xdg ignored", "linux", "rel/data", "/home/u/.local/share/jail"},
		{"darwin", "darwin", "/xdg/data", "/home/u/Library/Application Support/jail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dataRoot(tt.goos, "/home/u", tt.xdg); got != tt.want {
				t.Errorf("dataRoot() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Runtime != "" {
		t.Errorf("Runtime = %q, want empty", cfg.Runtime)
	}
	if cfg.EditorCommand() != DefaultEditor {
		t.Errorf("EditorCommand() = %q, want %q", cfg.EditorCommand(), DefaultEditor)
	}
}

func TestLoad_Values(t *testing.T) {
	dir := t.TempDir()
	content := "runtime = \" Docker \"\neditor = \"codium\"\nunknown = 1\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Runtime != "docker" {
		t.Errorf("Runtime = %q, want %q", cfg.Runtime, "docker")
	}
	if cfg.EditorCommand() != "codium" {
		t.Errorf("EditorCommand() = %q, want %q", cfg.EditorCommand(), "codium")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("runtime = "), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if !errors.Is(err, errors.ErrConfig) {
		t.Errorf("Load() error = %v, want config error", err)
	}
}

func TestRuntimeOverride(t *testing.T) {
	t.Run("env wins", func(t *testing.T) {
		t.Setenv(RuntimeEnvVar, "Podman")
		cfg := &Config{Runtime: "docker"}
		value, source := cfg.RuntimeOverride()
		if value != "podman" || source != RuntimeEnvVar {
			t.Errorf("RuntimeOverride() = %q, %q", value, source)
		}
	})

	t.Run("config file", func(t *testing.T) {
		t.Setenv(RuntimeEnvVar, "")
		cfg := &Config{Runtime: "docker"}
		value, source := cfg.RuntimeOverride()
		if value != "docker" || source != ConfigFileName {
			t.Errorf("RuntimeOverride() = %q, %q", value, source)
		}
	})

	t.Run("none", func(t *testing.T) {
		t.Setenv(RuntimeEnvVar, "")
		var cfg *Config
		if value, _ := cfg.RuntimeOverride(); value != "" {
			t.Errorf("RuntimeOverride() = %q, want empty", value)
		}
	})
}

func TestLoad_PodmanAgentRelay(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("podman_agent_relay = \" /run/user/501/agent.sock \"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PodmanAgentRelay != "/run/user/501/agent.sock" {
		t.Errorf("PodmanAgentRelay = %q", cfg.PodmanAgentRelay)
	}

	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("podman_agent_relay = \"agent.sock\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); !errors.Is(err, errors.ErrConfig) {
		t.Errorf("Load() error = %v, want ConfigError for a relative relay", err)
	}
}
