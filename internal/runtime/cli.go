package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/system"
)

// DefaultTimeout bounds every non-interactive engine call. Starting a macOS
// VM on first use can take a while.
const DefaultTimeout = 2 * time.Minute

// engineFailureExit is the exit status docker and podman use for their own
// errors, as opposed to the exit status of a command run inside a container.
const engineFailureExit = 125

// CLIEngine drives podman or docker through its command-line interface.
type CLIEngine struct {
	kind    Kind
	exec    system.CommandExecutor
	Timeout time.Duration
}

// NewCLIEngine creates an engine for kind using the given executor.
func NewCLIEngine(kind Kind, executor system.CommandExecutor) *CLIEngine {
	if executor == nil {
		executor = system.DefaultExecutor()
	}
	return &CLIEngine{kind: kind, exec: executor, Timeout: DefaultTimeout}
}

// NewFactory returns a Factory building CLI engines on executor.
func NewFactory(executor system.CommandExecutor, timeout time.Duration) Factory {
	return func(kind Kind) Engine {
		e := NewCLIEngine(kind, executor)
		if timeout > 0 {
			e.Timeout = timeout
		}
		return e
	}
}

// Kind returns the engine kind
func (e *CLIEngine) Kind() Kind {
	return e.kind
}

// exitCoder matches *exec.ExitError without depending on it.
type exitCoder interface {
	ExitCode() int
}

// runCmd executes an engine command under the engine timeout
func (e *CLIEngine) runCmd(ctx context.Context, op string, args ...string) (system.Output, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	logging.Debug("running engine command", "cmd", shellquote.Join(append([]string{e.kind.Command()}, args...)...))

	out, err := e.exec.Execute(ctx, e.kind.Command(), args...)
	if err != nil {
		return out, e.classify(ctx, op, out, err)
	}
	return out, nil
}

// classify turns a failed invocation into the jail error taxonomy.
func (e *CLIEngine) classify(ctx context.Context, op string, out system.Output, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.RuntimeUnavailable(e.kind.Command(), op, fmt.Errorf("no answer within %s", e.Timeout))
	}
	if errors.Is(err, exec.ErrNotFound) {
		return errors.RuntimeUnavailable(e.kind.Command(), op, err)
	}

	diagnostic := strings.TrimSpace(string(out.Stderr))
	if diagnostic == "" {
		diagnostic = strings.TrimSpace(string(out.Stdout))
	}
	return errors.EngineOperationFailed(op, diagnostic, err)
}

// Probe checks the client is installed
func (e *CLIEngine) Probe(ctx context.Context) error {
	_, err := e.runCmd(ctx, "probe", "--version")
	return err
}

// Ping checks the engine answers requests
func (e *CLIEngine) Ping(ctx context.Context) error {
	_, err := e.runCmd(ctx, "info", "info")
	if err != nil {
		var jailErr *errors.JailError
		if errors.As(err, &jailErr) && jailErr.Kind == errors.KindEngineOperationFailed {
			return errors.RuntimeUnavailable(e.kind.Command(), "info", fmt.Errorf("%s", jailErr.Diagnostic))
		}
	}
	return err
}

// Create creates a container and returns its ID
func (e *CLIEngine) Create(ctx context.Context, req CreateRequest) (string, error) {
	logging.Debug("creating container", "name", req.Name, "engine", e.kind)

	out, err := e.runCmd(ctx, "create", append([]string{"create"}, req.Args...)...)
	if err != nil {
		return "", err
	}

	ref := strings.TrimSpace(string(out.Stdout))
	// Image pull progress may precede the ID.
	if i := strings.LastIndexByte(ref, '\n'); i >= 0 {
		ref = strings.TrimSpace(ref[i+1:])
	}
	if ref == "" {
		return "", errors.EngineOperationFailed("create", "engine returned no container ID", nil)
	}
	return ref, nil
}

// Start starts an existing container
func (e *CLIEngine) Start(ctx context.Context, ref string) error {
	logging.Debug("starting container", "ref", ref)
	_, err := e.runCmd(ctx, "start", "start", ref)
	return err
}

// Stop stops a running container
func (e *CLIEngine) Stop(ctx context.Context, ref string) error {
	logging.Debug("stopping container", "ref", ref)
	_, err := e.runCmd(ctx, "stop", "stop", ref)
	return err
}

// Remove removes a container
func (e *CLIEngine) Remove(ctx context.Context, ref string) error {
	logging.Debug("removing container", "ref", ref)
	_, err := e.runCmd(ctx, "remove", "rm", ref)
	if err != nil && isNoSuchObject(err) {
		return nil
	}
	return err
}

// inspectResult holds the relevant fields from container inspect
type inspectResult struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	Image string `json:"Image"`
	State struct {
		Status    string `json:"Status"`
		Running   bool   `json:"Running"`
		StartedAt string `json:"StartedAt"`
	} `json:"State"`
	Config struct {
		Image string `json:"Image"`
	} `json:"Config"`
}

// Inspect returns the container state
func (e *CLIEngine) Inspect(ctx context.Context, ref string) (*ContainerInfo, error) {
	out, err := e.runCmd(ctx, "inspect", "container", "inspect", ref)
	if err != nil {
		if isNoSuchObject(err) {
			return &ContainerInfo{Ref: ref, Status: StatusNotFound}, nil
		}
		return nil, err
	}
	return parseInspect(ref, out.Stdout)
}

func parseInspect(ref string, data []byte) (*ContainerInfo, error) {
	var results []inspectResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, errors.EngineOperationFailed("inspect", "unexpected inspect output", err)
	}
	if len(results) == 0 {
		return &ContainerInfo{Ref: ref, Status: StatusNotFound}, nil
	}

	r := results[0]
	info := &ContainerInfo{
		Ref:       r.ID,
		Name:      strings.TrimPrefix(r.Name, "/"),
		Image:     r.Config.Image,
		StartedAt: r.State.StartedAt,
	}
	if info.Image == "" {
		info.Image = r.Image
	}

	switch {
	case r.State.Running || r.State.Status == "running":
		info.Status = StatusRunning
	case r.State.Status == "created" || r.State.Status == "configured":
		info.Status = StatusCreated
	case r.State.Status == "exited" || r.State.Status == "stopped":
		info.Status = StatusStopped
	default:
		info.Status = StatusUnknown
	}
	return info, nil
}

func execArgs(ref string, command []string, opts ExecOptions, interactive bool) []string {
	args := []string{"exec"}
	if interactive {
		args = append(args, "-it")
	}
	if opts.User != "" {
		args = append(args, "-u", opts.User)
	}
	if opts.WorkingDir != "" {
		args = append(args, "-w", opts.WorkingDir)
	}
	for _, env := range opts.Env {
		args = append(args, "-e", env)
	}
	args = append(args, ref)
	return append(args, command...)
}

// Exec executes a command inside a container
func (e *CLIEngine) Exec(ctx context.Context, ref string, command []string, opts ExecOptions) (*ExecResult, error) {
	args := execArgs(ref, command, opts, false)
	logging.Debug("running engine command", "cmd", shellquote.Join(append([]string{e.kind.Command()}, args...)...))

	out, err := e.exec.Execute(ctx, e.kind.Command(), args...)
	result := &ExecResult{
		Stdout: string(out.Stdout),
		Stderr: string(out.Stderr),
	}
	if err == nil {
		return result, nil
	}

	var coder exitCoder
	if errors.As(err, &coder) && coder.ExitCode() != engineFailureExit {
		result.ExitCode = coder.ExitCode()
		return result, nil
	}
	return result, e.classify(ctx, "exec", out, err)
}

// ExecInteractive runs a command with the terminal attached
func (e *CLIEngine) ExecInteractive(ctx context.Context, ref string, command []string, opts ExecOptions) (int, error) {
	args := execArgs(ref, command, opts, true)
	logging.Debug("attaching to container", "cmd", shellquote.Join(append([]string{e.kind.Command()}, args...)...))

	err := e.exec.ExecuteInteractive(ctx, e.kind.Command(), args...)
	if err == nil {
		return 0, nil
	}

	var coder exitCoder
	if errors.As(err, &coder) && coder.ExitCode() != engineFailureExit {
		return coder.ExitCode(), nil
	}
	return -1, e.classify(ctx, "exec", system.Output{}, err)
}

// Commit snapshots a container into an image
func (e *CLIEngine) Commit(ctx context.Context, ref, image string) error {
	_, err := e.runCmd(ctx, "commit", "commit", ref, image)
	return err
}

// RemoveImage deletes an image
func (e *CLIEngine) RemoveImage(ctx context.Context, image string) error {
	_, err := e.runCmd(ctx, "remove image", "image", "rm", image)
	if err != nil && isNoSuchObject(err) {
		return nil
	}
	return err
}

// ImageExists checks whether an image is present locally
func (e *CLIEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	_, err := e.runCmd(ctx, "image inspect", "image", "inspect", image)
	if err == nil {
		return true, nil
	}
	if isNoSuchObject(err) {
		return false, nil
	}
	return false, err
}

// BuildImage builds an image with progress streamed to the terminal. Builds
// are not bounded by the engine timeout.
func (e *CLIEngine) BuildImage(ctx context.Context, tag, contextDir string) error {
	args := []string{"build", "-t", tag, "-f", filepath.Join(contextDir, "Containerfile"), contextDir}
	logging.Debug("building image", "cmd", shellquote.Join(append([]string{e.kind.Command()}, args...)...))

	if err := e.exec.ExecuteInteractive(ctx, e.kind.Command(), args...); err != nil {
		return e.classify(ctx, "build", system.Output{}, err)
	}
	return nil
}

// isNoSuchObject reports whether an engine failure means the object is missing.
func isNoSuchObject(err error) bool {
	var jailErr *errors.JailError
	if !errors.As(err, &jailErr) || jailErr.Kind != errors.KindEngineOperationFailed {
		return false
	}
	diag := strings.ToLower(jailErr.Diagnostic)
	return strings.Contains(diag, "no such") || strings.Contains(diag, "not found") || strings.Contains(diag, "image not known")
}

var _ Engine = (*CLIEngine)(nil)
