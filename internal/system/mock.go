package system

import (
	"context"
	"strings"
	"sync"
)

// MockExecutor implements CommandExecutor for testing.
type MockExecutor struct {
	mu sync.Mutex

	// Commands records all executed commands for verification.
	Commands []MockCommand

	// Responses maps command prefixes to responses. The longest prefix of
	// "name arg1 arg2..." that has an entry wins.
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching response is found.
	DefaultResponse MockResponse

	// InteractiveErr is returned by ExecuteInteractive if set.
	InteractiveErr error

	// OnInteractive, if set, runs during ExecuteInteractive before it returns.
	OnInteractive func(cmd MockCommand)
}

// MockCommand records an executed command.
type MockCommand struct {
	Name        string
	Args        []string
	Interactive bool
}

// String returns the command line joined with spaces.
func (c MockCommand) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// MockResponse defines the response for a command.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// NewMockExecutor creates a new MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Commands:  make([]MockCommand, 0),
		Responses: make(map[string]MockResponse),
	}
}

// AddResponse adds a response for a command prefix such as "podman container inspect".
func (m *MockExecutor) AddResponse(prefix string, stdout string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[prefix] = MockResponse{Stdout: []byte(stdout), Err: err}
}

// AddFailure adds a failing response carrying stderr output.
func (m *MockExecutor) AddFailure(prefix string, stderr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[prefix] = MockResponse{Stderr: []byte(stderr), Err: err}
}

func (m *MockExecutor) Execute(ctx context.Context, name string, args ...string) (Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := MockCommand{Name: name, Args: args}
	m.Commands = append(m.Commands, cmd)

	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	resp := m.lookup(cmd)
	return Output{Stdout: resp.Stdout, Stderr: resp.Stderr}, resp.Err
}

func (m *MockExecutor) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	m.mu.Lock()
	cmd := MockCommand{Name: name, Args: args, Interactive: true}
	m.Commands = append(m.Commands, cmd)
	hook := m.OnInteractive
	err := m.InteractiveErr
	m.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}
	return err
}

func (m *MockExecutor) lookup(cmd MockCommand) MockResponse {
	parts := append([]string{cmd.Name}, cmd.Args...)
	for n := len(parts); n > 0; n-- {
		if resp, ok := m.Responses[strings.Join(parts[:n], " ")]; ok {
			return resp
		}
	}
	return m.DefaultResponse
}

// LastCommand returns the most recently executed command.
func (m *MockExecutor) LastCommand() (MockCommand, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return MockCommand{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

// CommandLines returns every recorded command as a joined string.
func (m *MockExecutor) CommandLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.Commands))
	for i, c := range m.Commands {
		lines[i] = c.String()
	}
	return lines
}

// Reset clears all recorded commands.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = make([]MockCommand, 0)
}
