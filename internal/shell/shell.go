// Package shell provides the blocking subprocess executor every other
// adapter shells out through: run one command line, capture stdout/stderr/
// exit code, log at debug level, never raise.
package shell

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
	"github.com/gabrielecerami/gitnetics/internal/logging"
)

// DefaultCommandTimeout bounds how long any single command may run absent a
// caller-supplied deadline.
const DefaultCommandTimeout = 5 * time.Minute

// Result is the outcome of a command execution: exit code, and
// trailing-blank-stripped stdout/stderr lines.
type Result struct {
	ExitCode int
	Stdout   []string
	Stderr   []string
}

// Runner executes commands in a fixed working directory.
type Runner struct {
	Dir    string
	Logger *logging.Logger
}

// New creates a Runner rooted at dir, logging through logger.
func New(dir string, logger *logging.Logger) *Runner {
	return &Runner{Dir: dir, Logger: logger}
}

// Run executes name with args, blocking until it completes or ctx is done.
// A nonzero exit is reported via the returned error, never by panicking;
// Result is still populated so callers can inspect partial output.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if r.Logger != nil {
		r.Logger.Debug("executing: %s %s", name, strings.Join(args, " "))
	}

	err := cmd.Run()

	result := Result{
		Stdout: stripTrailingBlanks(strings.Split(stdout.String(), "\n")),
		Stderr: stripTrailingBlanks(strings.Split(stderr.String(), "\n")),
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		result.ExitCode = -1
	}

	if r.Logger != nil {
		r.Logger.Debug("stdout: %s", strings.Join(result.Stdout, "\n"))
		r.Logger.Debug("stderr: %s", strings.Join(result.Stderr, "\n"))
	}

	if err != nil {
		return result, gniterrors.NewCommandError(name, args, stdout.String(), stderr.String(), err)
	}
	return result, nil
}

func stripTrailingBlanks(lines []string) []string {
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
