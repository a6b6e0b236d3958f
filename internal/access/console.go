package access

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// runner executes one script against the source console and returns the
// combined standard output. Split out as an interface so the extractor can be
// tested against canned transcripts.
type runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Console drives the UCanAccess interactive console. Each invocation feeds a
// newline-terminated script of the form
//
//	<database path>
//	<statement or command>
//	quit;
//
// to a fresh console process and captures its combined text output.
type Console struct {
	script  string
	dbPath  string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewConsole validates that the console launcher script exists. A missing
// script is ErrToolUnavailable, which aborts the run before any table work.
func NewConsole(scriptPath, dbPath string, timeout time.Duration, log *zap.SugaredLogger) (*Console, error) {
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("%w: console script not found at %s", ErrToolUnavailable, scriptPath)
	}
	return &Console{script: scriptPath, dbPath: dbPath, timeout: timeout, log: log}, nil
}

// Run executes one command in the console and returns its full text output.
// A non-zero exit status is logged but the captured output is still returned:
// the console frequently exits unhappily after having printed perfectly
// usable result tables. Undecodable bytes are replaced, never fatal.
func (c *Console) Run(ctx context.Context, command string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", c.script)
	cmd.Stdin = strings.NewReader(fmt.Sprintf("%s\n%s\nquit;\n", c.dbPath, command))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", &ToolTimeoutError{Tool: c.script, Err: ctx.Err()}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			c.log.Warnw("console exited non-zero, keeping output",
				"status", exitErr.ExitCode(), "stderr", sanitize(stderr.String()))
		} else {
			return "", &ToolFailureError{Tool: c.script, Err: err}
		}
	}

	return sanitize(stdout.String()), nil
}

// sanitize replaces invalid UTF-8 with the replacement character. Legacy
// databases hold text in whatever codepage their era used.
func sanitize(s string) string {
	return strings.ToValidUTF8(s, "�")
}
