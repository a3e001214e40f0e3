// Package registry persists sandbox records on local disk.
//
// Layout under the root directory:
//
//	<root>/<escaped-name>/jail.toml     the record
//	<root>/<escaped-name>/workspace/    the only host path a container sees
//	<root>/.locks/<escaped-name>.lock   per-name advisory lock
//
// Every mutation holds the per-name lock, so concurrent invocations against
// one sandbox serialize while different sandboxes never contend.
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/naming"
)

const (
	recordFile   = "jail.toml"
	workspaceDir = "workspace"
	locksDir     = ".locks"
)

// PopulateFunc fills a freshly created workspace directory.
type PopulateFunc func(ctx context.Context, workspace string) error

// MutateFunc changes a record in place. Returning an error aborts the
// update without writing anything.
type MutateFunc func(sb *Sandbox) error

// TeardownFunc runs under the lock before a record is deleted. Returning an
// error aborts the delete.
type TeardownFunc func(sb *Sandbox) error

// Registry is the on-disk set of sandbox records.
type Registry struct {
	root         string
	PollInterval time.Duration
	now          func() time.Time
}

// New creates a registry rooted at root. The directory is created lazily.
func New(root string) *Registry {
	return &Registry{
		root:         root,
		PollInterval: DefaultPollInterval,
		now:          time.Now,
	}
}

// SetClock overrides the time source (for tests).
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Now returns the registry's current time.
func (r *Registry) Now() time.Time {
	return r.now().UTC().Truncate(time.Second)
}

// Root returns the registry root directory.
func (r *Registry) Root() string {
	return r.root
}

// Dir returns the directory holding a sandbox's record and workspace.
func (r *Registry) Dir(name string) (string, error) {
	if err := naming.Validate(name); err != nil {
		return "", err
	}
	return securejoin.SecureJoin(r.root, naming.DirName(name))
}

// WorkspacePath returns where a sandbox's workspace lives.
func (r *Registry) WorkspacePath(name string) (string, error) {
	dir, err := r.Dir(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, workspaceDir), nil
}

func (r *Registry) lock(ctx context.Context, name string) (*nameLock, error) {
	dir := filepath.Join(r.root, locksDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	l, err := acquireLock(ctx, filepath.Join(dir, naming.DirName(name)+".lock"), r.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("waiting for lock on jail %q: %w", name, err)
	}
	return l, nil
}

// Create persists a new record. It fails with NameExists if the name is
// taken. populate, if set, runs under the lock after the workspace directory
// exists; on failure or cancellation nothing is left on disk.
func (r *Registry) Create(ctx context.Context, sb *Sandbox, populate PopulateFunc) (*Sandbox, error) {
	dir, err := r.Dir(sb.Name)
	if err != nil {
		return nil, err
	}

	l, err := r.lock(ctx, sb.Name)
	if err != nil {
		return nil, err
	}
	defer l.release()

	recordPath := filepath.Join(dir, recordFile)
	if _, err := os.Stat(recordPath); err == nil {
		return nil, errors.NameExists(sb.Name)
	}

	// A directory without a record is left over from an interrupted create.
	if _, err := os.Stat(dir); err == nil {
		logging.Debug("removing incomplete jail directory", "jail", sb.Name, "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to clean incomplete jail directory: %w", err)
		}
	}

	workspace := filepath.Join(dir, workspaceDir)
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	if err := os.Chmod(dir, 0700); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to restrict jail directory: %w", err)
	}

	success := false
	defer func() {
		if !success {
			os.RemoveAll(dir)
		}
	}()

	if populate != nil {
		if err := populate(ctx, workspace); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := sb.Clone()
	rec.WorkspacePath = workspace
	now := r.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.LastUsedAt.IsZero() {
		rec.LastUsedAt = now
	}
	if rec.State == "" {
		rec.State = StateCreated
	}

	if err := writeRecord(recordPath, rec); err != nil {
		return nil, err
	}
	success = true

	logging.Debug("jail record created", "jail", rec.Name, "dir", dir)
	return rec, nil
}

// Get reads one record.
func (r *Registry) Get(name string) (*Sandbox, error) {
	dir, err := r.Dir(name)
	if err != nil {
		return nil, errors.NotFound(name)
	}
	return r.read(name, dir)
}

func (r *Registry) read(name, dir string) (*Sandbox, error) {
	sb, err := readRecord(filepath.Join(dir, recordFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound(name)
		}
		return nil, fmt.Errorf("failed to read record for jail %q: %w", name, err)
	}
	// The directory, not the file contents, decides where the workspace is.
	sb.Name = name
	sb.WorkspacePath = filepath.Join(dir, workspaceDir)
	return sb, nil
}

// Exists reports whether a record with this name is present.
func (r *Registry) Exists(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Names returns every sandbox name, sorted.
func (r *Registry) Names() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read jails directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name, err := naming.NameFromDir(entry.Name())
		if err != nil || naming.Validate(name) != nil {
			logging.Debug("skipping unrecognized directory", "dir", entry.Name())
			continue
		}
		if _, err := os.Stat(filepath.Join(r.root, entry.Name(), recordFile)); err != nil {
			continue
		}
		names = append(names, name)
	}

	slices.Sort(names)
	return names, nil
}

// List yields every record ordered by name. Records are read lazily as the
// sequence is consumed; a record that fails to load is yielded with its error.
func (r *Registry) List() iter.Seq2[*Sandbox, error] {
	return func(yield func(*Sandbox, error) bool) {
		names, err := r.Names()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, name := range names {
			sb, err := r.Get(name)
			if errors.Is(err, errors.ErrNotFound) {
				// Deleted since the directory was read.
				continue
			}
			if !yield(sb, err) {
				return
			}
		}
	}
}

// Update performs a locked read-modify-write of one record.
func (r *Registry) Update(ctx context.Context, name string, mutate MutateFunc) (*Sandbox, error) {
	dir, err := r.Dir(name)
	if err != nil {
		return nil, errors.NotFound(name)
	}

	l, err := r.lock(ctx, name)
	if err != nil {
		return nil, err
	}
	defer l.release()

	current, err := r.read(name, dir)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.Name = current.Name
	next.WorkspacePath = current.WorkspacePath

	if err := writeRecord(filepath.Join(dir, recordFile), next); err != nil {
		return nil, err
	}
	return next, nil
}

// Delete removes a record and its workspace. It fails with NotFound if the
// record is absent. teardown, if set, runs first under the lock.
func (r *Registry) Delete(ctx context.Context, name string, teardown TeardownFunc) error {
	dir, err := r.Dir(name)
	if err != nil {
		return errors.NotFound(name)
	}

	l, err := r.lock(ctx, name)
	if err != nil {
		return err
	}
	defer l.release()

	current, err := r.read(name, dir)
	if err != nil {
		return err
	}

	if teardown != nil {
		if err := teardown(current); err != nil {
			return err
		}
	}

	// The record goes first: a crash after this point leaves an orphan
	// directory that Create cleans up, never a record without a workspace.
	if err := os.Remove(filepath.Join(dir, recordFile)); err != nil {
		return fmt.Errorf("failed to remove record for jail %q: %w", name, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove workspace for jail %q: %w", name, err)
	}

	logging.Debug("jail record deleted", "jail", name)
	return nil
}
