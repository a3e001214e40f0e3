package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/naming"
	"github.com/firefly-engineering/jail/internal/system"
)

// GitCloner clones with the external git binary.
type GitCloner struct {
	exec system.CommandExecutor
}

// NewGitCloner returns a GitCloner that runs git through exec.
func NewGitCloner(exec system.CommandExecutor) *GitCloner {
	if exec == nil {
		exec = system.DefaultExecutor()
	}
	return &GitCloner{exec: exec}
}

func (g *GitCloner) Clone(ctx context.Context, src naming.Source, dir string) error {
	if strings.HasPrefix(src.Revision, "-") {
		return errors.CloneFailed(src.String(), fmt.Errorf("invalid revision %q", src.Revision))
	}

	logging.Debug("cloning repository", "source", src.Ref, "dir", dir)
	if err := g.run(ctx, "clone", "--quiet", "--", src.Ref, dir); err != nil {
		return errors.CloneFailed(src.String(), err)
	}

	if src.Revision == "" {
		return nil
	}
	logging.Debug("checking out revision", "revision", src.Revision)
	if err := g.run(ctx, "-C", dir, "checkout", "--quiet", src.Revision); err != nil {
		return errors.CloneFailed(src.String(), fmt.Errorf("checkout %s: %w", src.Revision, err))
	}
	return nil
}

func (g *GitCloner) run(ctx context.Context, args ...string) error {
	out, err := g.exec.Execute(ctx, "git", args...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if msg := strings.TrimSpace(string(out.Stderr)); msg != "" {
		return fmt.Errorf("git %s: %s: %w", args[0], msg, err)
	}
	return fmt.Errorf("git %s: %w", args[0], err)
}
