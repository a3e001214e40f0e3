// Package attach connects the user to a running sandbox: an editor window
// attached to the container, or a shell inside it.
package attach

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/jail/internal/boundary"
	"github.com/firefly-engineering/jail/internal/errors"
	"github.com/firefly-engineering/jail/internal/logging"
	"github.com/firefly-engineering/jail/internal/system"
)

// DefaultScheme is the VS Code remote scheme used by the Dev Containers
// extension.
const DefaultScheme = "vscode-remote"

// DefaultShell is the command an interactive session runs.
var DefaultShell = []string{"/bin/bash", "-l"}

// EditorURI returns the remote-attach folder URI for a container. The
// container name is hex encoded as the Dev Containers extension expects.
func EditorURI(scheme, containerName string) string {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return scheme + "://attached-container+" + hex.EncodeToString([]byte(containerName)) + boundary.WorkspaceTarget
}

// Editor launches an external editor on a container's workspace.
type Editor struct {
	// Command is the launcher, possibly with leading arguments ("code",
	// "code-insiders", "cursor --new-window").
	Command string
	Scheme  string

	exec system.CommandExecutor
}

// NewEditor returns an Editor that runs command through exec.
func NewEditor(command string, exec system.CommandExecutor) *Editor {
	if exec == nil {
		exec = system.DefaultExecutor()
	}
	return &Editor{Command: command, Scheme: DefaultScheme, exec: exec}
}

// Launch opens the editor attached to containerName and returns the URI used.
func (e *Editor) Launch(ctx context.Context, containerName string) (string, error) {
	argv, err := shellquote.Split(e.Command)
	if err != nil || len(argv) == 0 {
		return "", errors.ConfigError(fmt.Sprintf("invalid editor command %q", e.Command), err)
	}

	uri := EditorURI(e.Scheme, containerName)
	args := append(argv[1:], "--folder-uri", uri)

	logging.Debug("launching editor", "command", argv[0], "uri", uri)
	out, err := e.exec.Execute(ctx, argv[0], args...)
	if err != nil {
		diag := strings.TrimSpace(string(out.Stderr))
		return uri, errors.EngineOperationFailed("launch editor "+argv[0], diag, err)
	}
	return uri, nil
}

// ShellCommand parses a --shell value into an argv, defaulting to a login
// shell.
func ShellCommand(shell string) ([]string, error) {
	if strings.TrimSpace(shell) == "" {
		return append([]string(nil), DefaultShell...), nil
	}
	argv, err := shellquote.Split(shell)
	if err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("invalid shell command %q: %v", shell, err))
	}
	if len(argv) == 0 {
		return append([]string(nil), DefaultShell...), nil
	}
	return argv, nil
}
