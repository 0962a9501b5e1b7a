// Package runner starts delegated tools through a package runner such as npx.
package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/nightconcept/pika-go/internal/core/errs"
	"github.com/nightconcept/pika-go/internal/core/output"
)

// DefaultCommand is the package runner used when none is configured.
const DefaultCommand = "npx"

// Runner runs a package (a bin name or a registry package id) with args.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// Exec spawns the package runner as a child process with the caller's
// standard streams attached, and waits for it to exit.
type Exec struct {
	// Command is the runner executable, DefaultCommand when empty.
	Command string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes `<Command> args...`. A non-zero exit or a failure to start
// is reported as a delegation failure carrying the exit status.
func (e Exec) Run(ctx context.Context, args []string) error {
	command := e.Command
	if command == "" {
		command = DefaultCommand
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdin = e.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = e.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = e.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	line := commandLine(command, args)
	log.WithField("command", line).Debug("running delegated tool")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return errs.ErrorDelegationFailed(line, exitErr.ExitCode(), err)
		}
		return errs.ErrorDelegationFailed(line, -1, err)
	}
	return nil
}

// DryRun records the command it would have run in the output log.
type DryRun struct {
	Command string
	Log     *output.Log
}

// Run logs `<Command> args...` and spawns nothing.
func (d DryRun) Run(_ context.Context, args []string) error {
	command := d.Command
	if command == "" {
		command = DefaultCommand
	}
	d.Log.Println(commandLine(command, args))
	return nil
}

func commandLine(command string, args []string) string {
	return strings.Join(append([]string{command}, args...), " ")
}
