package executor

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(timeout time.Duration) *ExecRunner {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewExecRunner(logger, timeout)
}

func TestExecRunner_Run(t *testing.T) {
	runner := newTestRunner(0)
	ctx := context.Background()

	t.Run("stdout only", func(t *testing.T) {
		res := runner.Run(ctx, "echo", "hello world")
		assert.NoError(t, res.Err)
		assert.Equal(t, "hello world\n", res.Stdout)
		assert.Empty(t, res.Stderr)
		assert.False(t, res.Failed())
		assert.NoError(t, res.AsError("echo"))
	})

	t.Run("arguments are not shell interpreted", func(t *testing.T) {
		res := runner.Run(ctx, "echo", `a "b" $(id)`)
		assert.NoError(t, res.Err)
		assert.Equal(t, "a \"b\" $(id)\n", res.Stdout)
	})

	t.Run("stderr with zero exit status is a failure", func(t *testing.T) {
		res := runner.Run(ctx, "sh", "-c", "echo oops >&2")
		assert.NoError(t, res.Err)
		assert.Equal(t, "oops\n", res.Stderr)
		assert.True(t, res.Failed())

		err := res.AsError("stat")
		require.Error(t, err)
		var cmdErr *CommandError
		require.True(t, errors.As(err, &cmdErr))
		assert.Equal(t, "stat", cmdErr.Op)
		assert.Equal(t, "stat: oops", err.Error())
	})

	t.Run("non-zero exit", func(t *testing.T) {
		res := runner.Run(ctx, "sh", "-c", "exit 3")
		assert.Error(t, res.Err)
		assert.True(t, res.Failed())
	})

	t.Run("missing binary", func(t *testing.T) {
		res := runner.Run(ctx, "command_that_does_not_exist_qwertyuiop")
		assert.Error(t, res.Err)
		assert.True(t, res.Failed())
	})
}

func TestExecRunner_Timeout(t *testing.T) {
	runner := newTestRunner(100 * time.Millisecond)

	start := time.Now()
	res := runner.Run(context.Background(), "sleep", "5")
	assert.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestExecRunner_CancelledContext(t *testing.T) {
	runner := newTestRunner(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := runner.Run(ctx, "echo", "never")
	assert.Error(t, res.Err)
	assert.True(t, res.Failed())
}

type scriptedRunner struct {
	results []Result
	calls   [][]string
}

func (s *scriptedRunner) Run(_ context.Context, name string, args ...string) Result {
	s.calls = append(s.calls, append([]string{name}, args...))
	res := s.results[0]
	s.results = s.results[1:]
	return res
}

func TestRunAll(t *testing.T) {
	ctx := context.Background()

	t.Run("all succeed", func(t *testing.T) {
		r := &scriptedRunner{results: []Result{{}, {}}}
		results, failed := RunAll(ctx, r, "tool", [][]string{{"a"}, {"b"}})
		assert.Equal(t, -1, failed)
		assert.Len(t, results, 2)
		assert.Equal(t, [][]string{{"tool", "a"}, {"tool", "b"}}, r.calls)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		r := &scriptedRunner{results: []Result{{}, {Stderr: "boom"}, {}}}
		results, failed := RunAll(ctx, r, "tool", [][]string{{"a"}, {"b"}, {"c"}})
		assert.Equal(t, 1, failed)
		assert.Len(t, results, 2)
		assert.Len(t, r.calls, 2)
	})
}

func TestCommandError_Error(t *testing.T) {
	base := errors.New("exit status 1")
	assert.Equal(t, "rm: exit status 1: denied", (&CommandError{Op: "rm", Stderr: "denied\n", Err: base}).Error())
	assert.Equal(t, "rm: exit status 1", (&CommandError{Op: "rm", Err: base}).Error())
	assert.ErrorIs(t, &CommandError{Op: "rm", Err: base}, base)
}
