package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr string, err error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// invocationError carries the captured stderr of a failed tool invocation so
// the run-level failure message shows what the tool actually reported.
type invocationError struct {
	binary string
	stderr string
	cause  error
}

func (e *invocationError) Error() string {
	detail := strings.TrimSpace(e.stderr)
	if len(detail) > 500 {
		detail = detail[len(detail)-500:]
	}
	if detail == "" {
		return fmt.Sprintf("%s: %v", e.binary, e.cause)
	}
	return fmt.Sprintf("%s: %v: %s", e.binary, e.cause, detail)
}

func (e *invocationError) Unwrap() error { return e.cause }

func wrapInvocation(binary, stderr string, err error) error {
	if err == nil {
		return nil
	}
	return &invocationError{binary: binary, stderr: stderr, cause: err}
}

// IsExitError reports whether an invocation failed with a non-zero exit code
// (as opposed to the binary being missing or the context expiring).
func IsExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
