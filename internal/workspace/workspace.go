// Package workspace populates sandbox workspaces from a source reference
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/naming"
	"github.com/firefly-engineering/jail/internal/system"
)

// Cloner fills an existing, empty workspace directory with a source.
type Cloner interface {
	// Clone populates dir from src. Failures are reported as CloneFailed;
	// the caller owns cleanup of dir.
	Clone(ctx context.Context, src naming.Source, dir string) error
}

// Provider dispatches to the git or local strategy based on the source kind.
type Provider struct {
	git     *GitCloner
	local   *LocalCopier
	homeDir string
}

// NewProvider returns a Cloner that clones remote sources with git and copies
// local directories. Sources exposing homeDir or its credential directories
// are refused; an empty homeDir means the current user's.
func NewProvider(exec system.CommandExecutor, homeDir string) *Provider {
	return &Provider{
		git:     NewGitCloner(exec),
		local:   &LocalCopier{HomeDir: homeDir},
		homeDir: homeDir,
	}
}

func (p *Provider) Clone(ctx context.Context, src naming.Source, dir string) error {
	switch src.Kind {
	case naming.SourceEmpty:
		return nil
	case naming.SourceRemote:
		if err := CheckSource(src, p.homeDir); err != nil {
			return err
		}
		return p.git.Clone(ctx, src, dir)
	case naming.SourceLocal:
		if err := CheckSource(src, p.homeDir); err != nil {
			return err
		}
		if src.Revision == "" {
			return p.local.Clone(ctx, src, dir)
		}
		// A revision can only be checked out of a git repository, so the
		// local repository is cloned instead of copied.
		path := p.local.expand(src.Ref)
		if !IsGitRepo(path) {
			return errors.CloneFailed(src.String(), fmt.Errorf("%s is not a git repository; a revision needs one", path))
		}
		return p.git.Clone(ctx, naming.Source{Kind: naming.SourceLocal, Ref: path, Revision: src.Revision}, dir)
	}
	return errors.CloneFailed(src.String(), fmt.Errorf("unknown source kind %q", src.Kind))
}

// IsGitRepo reports whether path holds a git repository or worktree.
func IsGitRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		return false
	}
	// .git can be a directory (normal repo) or a file (worktree)
	return info.IsDir() || info.Mode().IsRegular()
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

var (
	_ Cloner = (*Provider)(nil)
	_ Cloner = (*GitCloner)(nil)
	_ Cloner = (*LocalCopier)(nil)
)
