package workspace

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/naming"
)

// LocalCopier copies a local directory tree, symlinks included as links.
type LocalCopier struct {
	// HomeDir is never copied, nor are its credential directories. Empty
	// means the current user's home.
	HomeDir string
}

func (c LocalCopier) expand(path string) string {
	if c.HomeDir == "" {
		return expandHome(path)
	}
	return expandHomeIn(path, c.HomeDir)
}

func (c LocalCopier) Clone(ctx context.Context, src naming.Source, dir string) error {
	if err := CheckSource(src, c.HomeDir); err != nil {
		return err
	}
	root, err := filepath.Abs(c.expand(src.Ref))
	if err != nil {
		return errors.CloneFailed(src.String(), err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return errors.CloneFailed(src.String(), err)
	}
	if !info.IsDir() {
		return errors.CloneFailed(src.String(), fmt.Errorf("%s is not a directory", root))
	}

	dest, err := filepath.Abs(dir)
	if err != nil {
		return errors.CloneFailed(src.String(), err)
	}
	if rel, err := filepath.Rel(root, dest); err == nil && filepath.IsLocal(rel) {
		return errors.CloneFailed(src.String(), fmt.Errorf("destination %s is inside the source", dest))
	}

	logging.Debug("copying local directory", "source", root, "dir", dest)
	if err := copyTree(ctx, root, dest); err != nil {
		return errors.CloneFailed(src.String(), err)
	}
	return nil
}

func copyTree(ctx context.Context, root, dest string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			return copyFile(path, target)
		}
		// Sockets, devices and pipes are not workspace content.
		return nil
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
