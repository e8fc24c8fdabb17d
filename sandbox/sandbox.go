// Package sandbox tries a tool's install command in a scratch directory so
// a candidate can be exercised without touching the working tree.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"toolscout/model"
)

const maxOutputBytes = 16 * 1024

// Result is the outcome of one install attempt. A non-zero ExitCode is a
// valid result, not an error: the attempt ran and the command failed.
type Result struct {
	Slug     string
	Command  string
	Dir      string
	Output   string
	ExitCode int
	OK       bool
	Duration time.Duration
}

// Runner executes install commands under a base directory with a timeout.
type Runner struct {
	dir     string
	timeout time.Duration
}

// NewRunner creates a runner. With dir empty, scratch directories are
// created under the system temp dir.
func NewRunner(dir string, timeout time.Duration) *Runner {
	return &Runner{dir: dir, timeout: timeout}
}

// Try runs the tool's install command through sh in a fresh scratch
// directory. Combined output is capped at 16KiB. The scratch directory is
// kept so the caller can inspect what the install produced; its path is
// returned on the result. A timed-out command is killed and reported with a
// negative exit code.
func (r *Runner) Try(ctx context.Context, tool model.Tool) (*Result, error) {
	command := strings.TrimSpace(tool.InstallCommand)
	if command == "" {
		return nil, fmt.Errorf("tool %q has no install command to try", tool.Slug)
	}

	prefix := "try-"
	if tool.Slug != "" {
		prefix = tool.Slug + "-"
	}
	scratch, err := os.MkdirTemp(r.dir, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = scratch

	start := time.Now()
	output, err := cmd.CombinedOutput()

	res := &Result{
		Slug:     tool.Slug,
		Command:  command,
		Dir:      scratch,
		Output:   capOutput(output),
		Duration: time.Since(start),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("running install command: %w", err)
	}
	res.OK = true
	return res, nil
}

func capOutput(out []byte) string {
	if len(out) > maxOutputBytes {
		return string(out[:maxOutputBytes]) + "\n[output truncated]"
	}
	return string(out)
}
