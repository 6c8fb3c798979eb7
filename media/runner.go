// Package media drives ffmpeg and ffprobe to extract audio and cut clips.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandLog captures one external command invocation.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// CommandError reports a failed command with its captured output.
type CommandError struct {
	Log CommandLog
	Err error
}

func (e *CommandError) Error() string {
	stderr := e.Log.Stderr
	if len(stderr) > 400 {
		stderr = "…" + stderr[len(stderr)-400:]
	}
	return fmt.Sprintf("%s exit=%d: %v: %s", e.Log.Command, e.Log.ExitCode, e.Err, stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandLog, error)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandLog, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	log := CommandLog{
		Command: name,
		Args:    args,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		log.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return log, &CommandError{Log: log, Err: err}
	}
	return log, nil
}
