package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/scancli"
)

// MockExecutor stands in for the scan CLI process.
type MockExecutor struct {
	Output   string
	ExitCode int
	Err      error

	mu       sync.Mutex
	commands []scancli.Command
}

func (m *MockExecutor) Run(_ context.Context, cmd scancli.Command, out io.Writer) (int, error) {
	m.mu.Lock()
	m.commands = append(m.commands, cmd)
	m.mu.Unlock()

	if m.Err != nil {
		return -1, m.Err
	}
	if _, err := io.WriteString(out, m.Output); err != nil {
		return -1, err
	}
	return m.ExitCode, nil
}

// Commands returns every command the executor was asked to run.
func (m *MockExecutor) Commands() []scancli.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]scancli.Command(nil), m.commands...)
}
