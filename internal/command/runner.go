// Package command runs external programs from argument vectors. No shell is
// ever involved.
package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/fault"
)

// Cmd describes a single process invocation.
type Cmd struct {
	Name string
	Args []string
	// Env is appended to the current process environment.
	Env []string
	// Stdin, when set, is streamed to the process.
	Stdin io.Reader
	// Stdout, when set, receives standard output instead of the returned buffer.
	Stdout io.Writer
}

func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) ([]byte, error)
}

// ExecRunner runs commands on the local host with a per-command timeout.
type ExecRunner struct {
	logger  zerolog.Logger
	timeout time.Duration
}

// NewExecRunner creates an ExecRunner. A zero timeout means only the
// caller's context bounds the command.
func NewExecRunner(logger zerolog.Logger, timeout time.Duration) *ExecRunner {
	return &ExecRunner{
		logger:  logger.With().Str("component", "command-runner").Logger(),
		timeout: timeout,
	}
}

// Run executes cmd and returns its combined output (stderr only when Stdout
// is redirected). Failures carry the captured output verbatim.
func (r *ExecRunner) Run(ctx context.Context, cmd Cmd) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	var out bytes.Buffer
	if cmd.Stdout != nil {
		c.Stdout = cmd.Stdout
	} else {
		c.Stdout = &out
	}
	c.Stderr = &out

	r.logger.Debug().Str("cmd", cmd.Name).Strs("args", cmd.Args).Msg("running command")

	start := time.Now()
	err := c.Run()
	output := out.Bytes()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return output, fault.Wrap(fault.KindTimeout, ctx.Err(), "%s timed out after %s", cmd.Name, time.Since(start).Round(time.Millisecond))
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return output, fault.Wrap(fault.KindCommand, err, "%s not installed", cmd.Name)
		}
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return output, fault.Wrap(fault.KindCommand, err, "%s failed", cmd.Name)
		}
		return output, fault.Wrap(fault.KindCommand, err, "%s failed: %s", cmd.Name, msg)
	}
	return output, nil
}
