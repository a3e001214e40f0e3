package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
)

const (
	AppName         = "jail"
	ConfigFileName  = "config.toml"
	RuntimeEnvVar   = "JAIL_RUNTIME"
	DefaultEditor   = "code"
	ContainerPrefix = "jail-"
)

// Config is the optional user configuration read from config.toml.
type Config struct {
	// Runtime overrides engine detection ("podman" or "docker").
	Runtime string `toml:"runtime"`
	// Editor is the launcher used by `jail code`.
	Editor string `toml:"editor"`
	// PodmanAgentRelay is the SSH agent socket inside the Podman machine VM
	// (macOS). Unset, no agent is forwarded into podman jails on macOS.
	PodmanAgentRelay string `toml:"podman_agent_relay"`
}

// Paths holds the configured paths
type Paths struct {
	ConfigDir string
	DataDir   string
	JailsDir  string
}

// NewPaths builds a Paths value rooted at the given directories.
func NewPaths(configDir, dataDir string) *Paths {
	return &Paths{
		ConfigDir: configDir,
		DataDir:   dataDir,
		JailsDir:  filepath.Join(dataDir, "jails"),
	}
}

// DefaultPaths returns the per-user path configuration for this host.
//
// Linux follows the XDG base directory layout. macOS keeps data under
// ~/Library/Application Support.
func DefaultPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.ConfigError("could not determine home directory", err)
	}

	configRoot, err := os.UserConfigDir()
	if err != nil {
		configRoot = filepath.Join(home, ".config")
	}

	return NewPaths(filepath.Join(configRoot, AppName), dataRoot(runtime.GOOS, home, os.Getenv("XDG_DATA_HOME"))), nil
}

func dataRoot(goos, home, xdgDataHome string) string {
	if goos == "darwin" {
		return filepath.Join(home, "Library", "Application Support", AppName)
	}
	if xdgDataHome != "" && filepath.IsAbs(xdgDataHome) {
		return filepath.Join(xdgDataHome, AppName)
	}
	return filepath.Join(home, ".local", "share", AppName)
}

// ConfigFile returns the path of config.toml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, ConfigFileName)
}

// Load reads config.toml from configDir. A missing file yields the zero config.
func Load(configDir string) (*Config, error) {
	path := filepath.Join(configDir, ConfigFileName)

	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, errors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}

	for _, key := range meta.Undecoded() {
		logging.Warn("ignoring unknown config key", "key", key.String(), "file", path)
	}

	cfg.Runtime = strings.ToLower(strings.TrimSpace(cfg.Runtime))
	cfg.PodmanAgentRelay = strings.TrimSpace(cfg.PodmanAgentRelay)
	if cfg.PodmanAgentRelay != "" && !filepath.IsAbs(cfg.PodmanAgentRelay) {
		return nil, errors.ConfigError(fmt.Sprintf("podman_agent_relay in %s must be an absolute path inside the Podman machine", path), nil)
	}
	return &cfg, nil
}

// RuntimeOverride returns the engine override and where it came from.
// The environment variable wins over the config file. An empty value
// means no override is set.
func (c *Config) RuntimeOverride() (value, source string) {
	if env, ok := os.LookupEnv(RuntimeEnvVar); ok && strings.TrimSpace(env) != "" {
		return strings.ToLower(strings.TrimSpace(env)), RuntimeEnvVar
	}
	if c != nil && c.Runtime != "" {
		return c.Runtime, ConfigFileName
	}
	return "", ""
}

// EditorCommand returns the configured editor launcher.
func (c *Config) EditorCommand() string {
	if c == nil || c.Editor == "" {
		return DefaultEditor
	}
	return c.Editor
}
