package workspace

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/naming"
)

// credentialDirs are home subdirectories that hold keys and tokens.
var credentialDirs = []string{".ssh", ".aws", ".config", ".gnupg"}

// CheckSource rejects sources that would carry host secrets into a
// workspace: the home directory, any of its ancestors, and the credential
// directories beneath it. Symlinks are followed. Remote sources are only
// checked when they are file:// URLs. An empty homeDir means the current
// user's.
func CheckSource(src naming.Source, homeDir string) error {
	var path string
	switch src.Kind {
	case naming.SourceLocal:
		path = src.Ref
	case naming.SourceRemote:
		u, err := url.Parse(src.Ref)
		if err != nil || u.Scheme != "file" {
			return nil
		}
		path = u.Path
	default:
		return nil
	}

	if homeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		homeDir = home
	}

	path = expandHomeIn(path, homeDir)
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.CloneFailed(src.String(), err)
	}

	for _, p := range candidates(abs) {
		for _, home := range candidates(filepath.Clean(homeDir)) {
			if reason := exposes(p, home); reason != "" {
				return errors.ValidationError(fmt.Sprintf("refusing to copy %s into a jail: it %s", src.Ref, reason))
			}
		}
	}
	return nil
}

// candidates returns path and, when it differs, its symlink-resolved form.
func candidates(path string) []string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil || resolved == path {
		return []string{path}
	}
	return []string{path, resolved}
}

func exposes(path, home string) string {
	if within(home, path) {
		return "contains the home directory"
	}
	for _, dir := range credentialDirs {
		if within(path, filepath.Join(home, dir)) {
			return "is inside ~/" + dir
		}
	}
	return ""
}

// within reports whether path is dir or lies beneath it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && (rel == "." || filepath.IsLocal(rel))
}

func expandHomeIn(path, home string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
