// Package process runs external programs and classifies their failures.
package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"k8s.io/klog/v2"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout string
	Stderr string
}

// Runner runs a program in a directory and waits for it to exit.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	// Verbose also copies the command output to Stdout and Stderr.
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer

	// Env is appended to the environment of the current process.
	Env []string
}

// NewExecRunner returns a runner that only captures output.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run starts name with args in dir. A non-zero exit status is reported as an
// errors.ProcessExit error wrapping *errors.ProcessError, a failure to start as
// errors.ProcessSpawn and a cancelled context as errors.Cancelled.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	const op = "process.run"
	command := append([]string{name}, args...)

	if err := ctx.Err(); err != nil {
		return Result{}, errors.E(op, errors.Cancelled, err)
	}

	klog.V(1).Infof("running %q in %s", strings.Join(command, " "), dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), r.Env...)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	if r.Verbose {
		cmd.Stdout = io.MultiWriter(stdout, writerOrDiscard(r.Stdout))
		cmd.Stderr = io.MultiWriter(stderr, writerOrDiscard(r.Stderr))
	} else {
		cmd.Stdout = stdout
		cmd.Stderr = stderr
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		return res, errors.E(op, errors.Cancelled, fmt.Errorf("%s: %w", strings.Join(command, " "), ctx.Err()))
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return res, errors.E(op, errors.ProcessExit, &errors.ProcessError{
			Command:  command,
			ExitCode: exitErr.ExitCode(),
			Stderr:   res.Stderr,
		})
	}
	return res, errors.E(op, errors.ProcessSpawn, fmt.Errorf("failed to start %s: %w", name, err))
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
