package executor

import (
	"fmt"
	"strings"
)

// CommandError is returned when an external invocation fails
type CommandError struct {
	Op     string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	switch {
	case e.Err != nil && stderr != "":
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, stderr)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, stderr)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
