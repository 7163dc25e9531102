// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/apex/log"
)

// Executor runs a command to completion in dir.
type Executor interface {
	Exec(ctx context.Context, dir, name string, args ...string) error
}

// ExecError carries the exit code of a command that ran and failed.
type ExecError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExecError) Error() string {
	return e.Command + ": " + e.Err.Error()
}

func (e *ExecError) Unwrap() error { return e.Err }

// ExitCode implements cli.ExitCoder.
func (e *ExecError) ExitCode() int { return e.Code }

// ProcessExecutor streams the child's output to Stdout and Stderr, which
// default to the process's own.
type ProcessExecutor struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (p *ProcessExecutor) Exec(ctx context.Context, dir, name string, args ...string) error {
	line := strings.Join(append([]string{name}, args...), " ")
	log.Infof("running %s", line)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExecError{Command: line, Code: exitErr.ExitCode(), Err: err}
	}
	return err
}
