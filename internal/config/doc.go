// Package config provides configuration loading and path layout for jail.
//
// # Configuration File
//
// An optional TOML file at <config_dir>/jail/config.toml:
//
//	runtime = "podman"   # or "docker"; overrides engine detection
//	editor  = "code"     # launcher used by `jail code`
//
// The JAIL_RUNTIME environment variable takes precedence over the file.
// Validation of the override value happens in the runtime package, which
// reports unsupported or absent engines as configuration errors.
//
// # Paths
//
// Paths holds the directories jail reads and writes:
//
//	ConfigDir  ~/.config/jail
//	DataDir    ~/.local/share/jail (macOS: ~/Library/Application Support/jail)
//	JailsDir   DataDir/jails, one directory per sandbox
//
// Tests construct Paths with NewPaths over t.TempDir().
package config
