package git

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// CommandRunner executes external commands on behalf of a Context.
// The default is ExecRunner; tests inject SequentialMockRunner.
type CommandRunner interface {
	// Run executes the command in dir and returns trimmed stdout.
	Run(dir, name string, args ...string) (string, error)

	// RunEnv is Run with extra environment variables appended to the
	// process environment.
	RunEnv(dir string, env []string, name string, args ...string) (string, error)
}

// CommandError wraps a failed command with its output.
type CommandError struct {
	Command string   // Command name (e.g., "git")
	Args    []string // Command arguments
	Output  string   // Combined stdout/stderr
	Err     error    // Underlying error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return e.Output
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Command + ": command failed"
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// NewExecRunner creates the default command runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(dir, name string, args ...string) (string, error) {
	return r.RunEnv(dir, nil, name, args...)
}

// RunEnv implements CommandRunner.
func (r *ExecRunner) RunEnv(dir string, env []string, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		output := strings.TrimSpace(stdout.String() + stderr.String())
		return "", &CommandError{
			Command: name,
			Args:    args,
			Output:  output,
			Err:     err,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Call records a single command invocation seen by a mock runner.
type Call struct {
	Dir  string
	Env  []string
	Name string
	Args []string
}

// mockResponse is one scripted response for SequentialMockRunner.
type mockResponse struct {
	output string
	errMsg string
	err    error
}

// SequentialMockRunner returns scripted outputs in order.
// Each Run call consumes the next queued response; running past the
// end of the queue returns empty output and no error.
type SequentialMockRunner struct {
	mu        sync.Mutex
	responses []mockResponse
	next      int

	// Calls records every invocation for assertions.
	Calls []Call
}

// NewSequentialMockRunner creates an empty mock runner.
func NewSequentialMockRunner() *SequentialMockRunner {
	return &SequentialMockRunner{}
}

// AddOutput queues a successful (or failing, if err != nil) response.
func (r *SequentialMockRunner) AddOutput(output string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, mockResponse{output: output, err: err})
}

// AddOutputError queues a response that fails with a CommandError
// carrying the given output text.
func (r *SequentialMockRunner) AddOutputError(output, errMsg string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, mockResponse{output: output, errMsg: errMsg, err: err})
}

// Run implements CommandRunner.
func (r *SequentialMockRunner) Run(dir, name string, args ...string) (string, error) {
	return r.RunEnv(dir, nil, name, args...)
}

// RunEnv implements CommandRunner.
func (r *SequentialMockRunner) RunEnv(dir string, env []string, name string, args ...string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, Call{Dir: dir, Env: env, Name: name, Args: args})

	if r.next >= len(r.responses) {
		return "", nil
	}

	resp := r.responses[r.next]
	r.next++

	if resp.errMsg != "" || resp.err != nil {
		output := resp.errMsg
		if output == "" {
			output = resp.output
		}
		return resp.output, &CommandError{
			Command: name,
			Args:    args,
			Output:  output,
			Err:     resp.err,
		}
	}

	return resp.output, resp.err
}
