// Package execenv runs the wrapped command with resolved secrets injected
// as environment variables. The child inherits the wrapper's stdio streams
// and the full merged environment; the wrapper mirrors the child's exit
// code.
package execenv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
	"github.com/astrix-security/mcp-secret-wrapper/internal/secure"
)

// EnvVar pairs a variable name with its sealed value. Values stay inside
// secure buffers until the environment slice is assembled right before the
// child starts.
type EnvVar struct {
	Name  string
	Value *secure.Buffer
}

// Options configures command execution.
type Options struct {
	// Command is the wrapped command and its arguments.
	Command []string
	// Environment is the resolved secret variables, in resolution order.
	Environment []EnvVar
	// AllowOverride lets variables already present in the process
	// environment win over resolved values.
	AllowOverride bool
	// PrintVars prints the injected variable names (values masked).
	PrintVars bool
	// WorkingDir is the child's working directory ("" keeps the wrapper's).
	WorkingDir string
}

// Executor spawns the wrapped command.
type Executor struct {
	logger *logging.Logger
}

// New creates an executor.
func New(logger *logging.Logger) *Executor {
	return &Executor{logger: logger}
}

// Exec runs the command with the merged environment. A child that starts
// and exits non-zero is reported as *errors.ExitError carrying the child's
// status so main can mirror it; every other failure is a wrapper error.
func (e *Executor) Exec(ctx context.Context, options Options) error {
	if len(options.Command) == 0 {
		return dserrors.UserError{
			Message:    "no command specified",
			Suggestion: "put the command after '--', e.g. mcp-secret-wrapper run DB_URL=my-secret -- npx server",
		}
	}

	cmdName := options.Command[0]
	if _, err := exec.LookPath(cmdName); err != nil {
		return dserrors.UserError{
			Message:    fmt.Sprintf("command %q not found", cmdName),
			Suggestion: fmt.Sprintf("make sure %q is installed and in your PATH", cmdName),
			Err:        err,
		}
	}

	env, err := e.buildEnvironment(options.Environment, options.AllowOverride)
	if err != nil {
		return err
	}

	if options.PrintVars {
		e.printEnvironment(options.Environment)
	}

	cmd := exec.CommandContext(ctx, cmdName, options.Command[1:]...)
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	e.logger.Debug("Spawning: %s", strings.Join(options.Command, " "))
	e.logger.Debug("Injected %d environment variable(s)", len(options.Environment))

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			// The child ran and failed on its own terms; mirror its status.
			return &dserrors.ExitError{Code: exitError.ExitCode()}
		}
		return dserrors.UserError{
			Message: fmt.Sprintf("command %q failed to run", strings.Join(options.Command, " ")),
			Err:     err,
		}
	}

	return nil
}

// buildEnvironment merges the resolved variables over the wrapper's own
// environment. Resolved values win unless AllowOverride keeps a
// pre-existing variable.
func (e *Executor) buildEnvironment(resolved []EnvVar, allowOverride bool) ([]string, error) {
	envMap := make(map[string]string)
	for _, entry := range os.Environ() {
		if key, value, found := strings.Cut(entry, "="); found {
			envMap[key] = value
		}
	}

	for _, v := range resolved {
		if allowOverride {
			if _, exists := envMap[v.Name]; exists {
				continue
			}
		}
		value, ok := v.Value.Open()
		if !ok {
			return nil, fmt.Errorf("secret buffer for %s was destroyed before use", v.Name)
		}
		envMap[v.Name] = value
	}

	result := make([]string, 0, len(envMap))
	for key, value := range envMap {
		result = append(result, key+"="+value)
	}
	// Sorted for deterministic child environments.
	sort.Strings(result)
	return result, nil
}

// printEnvironment displays the injected variables with masked values.
func (e *Executor) printEnvironment(resolved []EnvVar) {
	if len(resolved) == 0 {
		fmt.Fprintln(os.Stderr, "No environment variables injected")
		return
	}

	fmt.Fprintf(os.Stderr, "Injecting %d environment variable(s):\n", len(resolved))
	for _, v := range resolved {
		value, ok := v.Value.Open()
		if !ok {
			continue
		}
		fmt.Fprintf(os.Stderr, "  %s=%s\n", v.Name, maskValue(value))
	}
}

// maskValue masks a secret for display, keeping just enough shape to
// recognize which secret it is.
func maskValue(value string) string {
	switch {
	case len(value) == 0:
		return "(empty)"
	case len(value) <= 3:
		return strings.Repeat("*", len(value))
	case len(value) <= 8:
		return value[:1] + strings.Repeat("*", len(value)-2) + value[len(value)-1:]
	default:
		return value[:3] + strings.Repeat("*", 8) + value[len(value)-2:]
	}
}
