// Package workspace fills a sandbox's workspace directory from its source.
//
// The registry creates the empty workspace directory under its lock and
// hands it to a Cloner:
//
//	p := workspace.NewProvider(system.DefaultExecutor(), home)
//	err := p.Clone(ctx, naming.ParseSource("github.com/acme/widgets"), dir)
//
// Remote references are cloned with the external git binary. A "#revision"
// suffix is checked out after the clone. Local directories are copied,
// including their .git directory, so the sandbox never sees the original
// path. A local git repository given with "#revision" is cloned at that
// revision instead. Empty sources leave the directory untouched.
//
// The home directory, its ancestors and ~/.ssh, ~/.aws, ~/.config and
// ~/.gnupg are never copied; CheckSource rejects them with a validation
// error before anything is written. Every other failure is reported as a
// CloneFailed error; the registry removes the partial workspace.
package workspace
