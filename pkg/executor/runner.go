package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Result is the three-part outcome of one external invocation
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// Failed reports whether the invocation must be treated as a failure.
// Non-empty stderr counts as failure even when the exit status is zero.
func (r Result) Failed() bool {
	return r.Err != nil || strings.TrimSpace(r.Stderr) != ""
}

// AsError converts a failed result into a *CommandError labelled with op
func (r Result) AsError(op string) error {
	if !r.Failed() {
		return nil
	}
	return &CommandError{Op: op, Stdout: r.Stdout, Stderr: r.Stderr, Err: r.Err}
}

// Runner runs an external program and waits for it to finish
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// ExecRunner runs programs with os/exec, without a shell
type ExecRunner struct {
	logger  *logrus.Logger
	tracer  trace.Tracer
	timeout time.Duration
}

// NewExecRunner creates a runner. A zero timeout means invocations are bounded
// only by the caller's context.
func NewExecRunner(logger *logrus.Logger, timeout time.Duration) *ExecRunner {
	return &ExecRunner{
		logger:  logger,
		tracer:  otel.Tracer("mtpfm"),
		timeout: timeout,
	}
}

// Run executes name with args and captures stdout and stderr
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	ctx, span := r.tracer.Start(ctx, "exec")
	defer span.End()

	span.SetAttributes(
		attribute.String("command", name),
		attribute.StringSlice("args", args),
	)

	execCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("command timed out: %w", execCtx.Err())
		}
		span.RecordError(err)
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	span.SetAttributes(attribute.Int("exit_code", exitCode))

	r.logger.WithFields(logrus.Fields{
		"command":   name,
		"args":      args,
		"exit_code": exitCode,
	}).Debug("Command finished")

	return Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Err:    err,
	}
}

// RunAll runs each argument set in order and stops at the first failed
// invocation. Results of the invocations that ran are returned with the
// index of the failing one, or -1 when all succeeded.
func RunAll(ctx context.Context, r Runner, name string, argSets [][]string) ([]Result, int) {
	results := make([]Result, 0, len(argSets))
	for i, args := range argSets {
		res := r.Run(ctx, name, args...)
		results = append(results, res)
		if res.Failed() {
			return results, i
		}
	}
	return results, -1
}
