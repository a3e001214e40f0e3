package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/firefly-engineering/jail/internal/errors"
)

// MockEngine is a mock implementation of Engine for testing
type MockEngine struct {
	mu sync.RWMutex

	kind Kind

	// Containers tracks mock containers by ref
	Containers map[string]*ContainerInfo

	// CreateArgs records the args each container was created with, by ref
	CreateArgs map[string][]string

	// Images tracks locally present images
	Images map[string]bool

	// ExecResults maps container refs to predefined exec results
	ExecResults map[string]*ExecResult

	// ExitCode is returned by ExecInteractive
	ExitCode int

	// OnExecInteractive runs while an interactive session is "attached"
	OnExecInteractive func(ref string)

	// OnBuildImage runs while the build context still exists
	OnBuildImage func(tag, contextDir string)

	// Errors allows injecting errors for specific operations
	Errors map[string]error

	// CallLog records all method calls for verification
	CallLog []MockCall

	nextID int
}

// MockCall represents a recorded method call
type MockCall struct {
	Method string
	Args   []interface{}
}

// NewMockEngine creates a new mock engine of the given kind
func NewMockEngine(kind Kind) *MockEngine {
	return &MockEngine{
		kind:        kind,
		Containers:  make(map[string]*ContainerInfo),
		CreateArgs:  make(map[string][]string),
		Images:      make(map[string]bool),
		ExecResults: make(map[string]*ExecResult),
		Errors:      make(map[string]error),
		CallLog:     make([]MockCall, 0),
	}
}

// MockFactory returns a Factory that hands out the given engines by kind.
func MockFactory(engines ...*MockEngine) Factory {
	byKind := make(map[Kind]*MockEngine, len(engines))
	for _, e := range engines {
		byKind[e.kind] = e
	}
	return func(kind Kind) Engine {
		if e, ok := byKind[kind]; ok {
			return e
		}
		absent := NewMockEngine(kind)
		absent.Errors["Probe"] = errors.RuntimeUnavailable(kind.Command(), "probe", fmt.Errorf("executable not found"))
		return absent
	}
}

func (m *MockEngine) record(method string, args ...interface{}) {
	m.CallLog = append(m.CallLog, MockCall{Method: method, Args: args})
}

// SetError sets an error to be returned for a specific operation
func (m *MockEngine) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[operation] = err
}

// ClearError removes an injected error
func (m *MockEngine) ClearError(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Errors, operation)
}

// AddContainer adds a container to the mock
func (m *MockEngine) AddContainer(ref, name string, status ContainerStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Containers[ref] = &ContainerInfo{Ref: ref, Name: name, Status: status}
}

// SetStatus changes a container's status out of band
func (m *MockEngine) SetStatus(ref string, status ContainerStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.Containers[ref]; ok {
		c.Status = status
	}
}

// DeleteContainer removes a container out of band
func (m *MockEngine) DeleteContainer(ref string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Containers, ref)
}

// GetCalls returns all recorded calls
func (m *MockEngine) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]MockCall, len(m.CallLog))
	copy(calls, m.CallLog)
	return calls
}

// GetCallsFor returns all calls for a specific method
func (m *MockEngine) GetCallsFor(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var calls []MockCall
	for _, call := range m.CallLog {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// Reset clears all state
func (m *MockEngine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Containers = make(map[string]*ContainerInfo)
	m.CreateArgs = make(map[string][]string)
	m.Images = make(map[string]bool)
	m.ExecResults = make(map[string]*ExecResult)
	m.Errors = make(map[string]error)
	m.CallLog = make([]MockCall, 0)
}

// lookup finds a container by ref or name
func (m *MockEngine) lookup(ref string) (*ContainerInfo, bool) {
	if c, ok := m.Containers[ref]; ok {
		return c, true
	}
	for _, c := range m.Containers {
		if c.Name == ref {
			return c, true
		}
	}
	return nil, false
}

func noSuchContainer(op, ref string) error {
	return errors.EngineOperationFailed(op, fmt.Sprintf("Error: no such container %s", ref), fmt.Errorf("exit status 125"))
}

// Kind returns the engine kind
func (m *MockEngine) Kind() Kind {
	return m.kind
}

// Probe checks the mock is "installed"
func (m *MockEngine) Probe(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Probe")
	return m.Errors["Probe"]
}

// Ping checks the mock is "running"
func (m *MockEngine) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Ping")
	return m.Errors["Ping"]
}

// Create creates a new container
func (m *MockEngine) Create(ctx context.Context, req CreateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Create", req)

	if err, ok := m.Errors["Create"]; ok {
		return "", err
	}
	if _, ok := m.lookup(req.Name); ok {
		return "", errors.EngineOperationFailed("create",
			fmt.Sprintf("Error: the container name %q is already in use", req.Name), fmt.Errorf("exit status 125"))
	}

	m.nextID++
	ref := fmt.Sprintf("%s-%04d", m.kind, m.nextID)
	m.Containers[ref] = &ContainerInfo{Ref: ref, Name: req.Name, Status: StatusCreated}
	m.CreateArgs[ref] = append([]string(nil), req.Args...)
	return ref, nil
}

// Start starts an existing container
func (m *MockEngine) Start(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Start", ref)

	if err, ok := m.Errors["Start"]; ok {
		return err
	}
	c, ok := m.lookup(ref)
	if !ok {
		return noSuchContainer("start", ref)
	}
	c.Status = StatusRunning
	return nil
}

// Stop stops a running container
func (m *MockEngine) Stop(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Stop", ref)

	if err, ok := m.Errors["Stop"]; ok {
		return err
	}
	c, ok := m.lookup(ref)
	if !ok {
		return noSuchContainer("stop", ref)
	}
	c.Status = StatusStopped
	return nil
}

// Remove removes a container
func (m *MockEngine) Remove(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Remove", ref)

	if err, ok := m.Errors["Remove"]; ok {
		return err
	}
	if c, ok := m.lookup(ref); ok {
		delete(m.Containers, c.Ref)
	}
	return nil
}

// Inspect returns the container state
func (m *MockEngine) Inspect(ctx context.Context, ref string) (*ContainerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Inspect", ref)

	if err, ok := m.Errors["Inspect"]; ok {
		return nil, err
	}
	if c, ok := m.lookup(ref); ok {
		info := *c
		return &info, nil
	}
	return &ContainerInfo{Ref: ref, Status: StatusNotFound}, nil
}

// Exec executes a command inside a container
func (m *MockEngine) Exec(ctx context.Context, ref string, command []string, opts ExecOptions) (*ExecResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Exec", ref, command, opts)

	if err, ok := m.Errors["Exec"]; ok {
		return nil, err
	}
	if result, ok := m.ExecResults[ref]; ok {
		return result, nil
	}
	return &ExecResult{}, nil
}

// ExecInteractive runs an interactive session
func (m *MockEngine) ExecInteractive(ctx context.Context, ref string, command []string, opts ExecOptions) (int, error) {
	m.mu.Lock()
	m.record("ExecInteractive", ref, command, opts)
	err := m.Errors["ExecInteractive"]
	hook := m.OnExecInteractive
	code := m.ExitCode
	m.mu.Unlock()

	if err != nil {
		return -1, err
	}
	if hook != nil {
		hook(ref)
	}
	return code, nil
}

// Commit snapshots a container into an image
func (m *MockEngine) Commit(ctx context.Context, ref, image string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Commit", ref, image)

	if err, ok := m.Errors["Commit"]; ok {
		return err
	}
	if _, ok := m.lookup(ref); !ok {
		return noSuchContainer("commit", ref)
	}
	m.Images[image] = true
	return nil
}

// RemoveImage deletes an image
func (m *MockEngine) RemoveImage(ctx context.Context, image string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("RemoveImage", image)

	if err, ok := m.Errors["RemoveImage"]; ok {
		return err
	}
	delete(m.Images, image)
	return nil
}

// ImageExists reports whether an image is present
func (m *MockEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ImageExists", image)

	if err, ok := m.Errors["ImageExists"]; ok {
		return false, err
	}
	return m.Images[image], nil
}

// BuildImage "builds" an image
func (m *MockEngine) BuildImage(ctx context.Context, tag, contextDir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("BuildImage", tag, contextDir)

	if err, ok := m.Errors["BuildImage"]; ok {
		return err
	}
	if m.OnBuildImage != nil {
		m.OnBuildImage(tag, contextDir)
	}
	m.Images[tag] = true
	return nil
}

var _ Engine = (*MockEngine)(nil)
