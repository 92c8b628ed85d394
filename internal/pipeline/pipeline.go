// Package pipeline is the boundary to the external data pipeline.
//
// The collector treats it as an opaque call: run one collection cycle and get
// back how many new sightings it stored.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Pipeline runs one collection cycle.
type Pipeline interface {
	RunCollectionCycle(ctx context.Context) (int64, error)
}

// Func adapts a plain function to Pipeline.
type Func func(ctx context.Context) (int64, error)

func (f Func) RunCollectionCycle(ctx context.Context) (int64, error) { return f(ctx) }

const (
	// stderrTail bounds how much of the pipeline's stderr ends up in an error.
	stderrTail = 512
	// waitDelay bounds how long a killed pipeline's children may hold its pipes open.
	waitDelay = 2 * time.Second
)

// Command runs the pipeline as a child process. The last non-empty line the
// process writes to stdout must be the count of new sightings.
type Command struct {
	argv    []string
	timeout time.Duration
}

// NewCommand creates a Command. A zero timeout lets the process run as long
// as it needs.
func NewCommand(argv []string, timeout time.Duration) (*Command, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("pipeline command is empty")
	}
	return &Command{
		argv:    append([]string(nil), argv...),
		timeout: timeout,
	}, nil
}

// String returns the command line for logs.
func (c *Command) String() string { return strings.Join(c.argv, " ") }

// RunCollectionCycle executes the command once and parses its count.
func (c *Command) RunCollectionCycle(ctx context.Context) (int64, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("pipeline %q aborted: %w", c.argv[0], ctx.Err())
		}
		return 0, fmt.Errorf("pipeline %q failed: %w%s", c.argv[0], err, formatTail(stderr.String()))
	}

	n, err := ParseCount(stdout.String())
	if err != nil {
		return 0, fmt.Errorf("pipeline %q: %w", c.argv[0], err)
	}
	return n, nil
}

// ParseCount extracts the count from the last non-empty line of output.
func ParseCount(output string) (int64, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return 0, errors.New("no count in pipeline output")
	}

	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q in pipeline output", last)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d in pipeline output", n)
	}
	return n, nil
}

func formatTail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	if len(stderr) > stderrTail {
		stderr = "..." + stderr[len(stderr)-stderrTail:]
	}
	return ": " + stderr
}
