// Package desktop launches and controls local programs: browsers,
// applications, windows and media players.
package desktop

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Runner executes external programs.
type Runner interface {
	// Start launches a program without waiting for it.
	Start(ctx context.Context, name string, args ...string) error
	// Run waits for a program and returns its combined output.
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs through os/exec.
type ExecRunner struct{}

// Start launches name detached from ctx; the child is reaped in the background.
func (ExecRunner) Start(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Run executes name in dir and waits for it to finish.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

// exitCode returns the exit status carried by err, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
