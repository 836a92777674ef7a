package repositories

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/faultline/faultline/models"
)

// LocalShellExecutor runs command steps through the local shell. It is the
// default execution port; remote transports plug in behind the same
// interface.
type LocalShellExecutor struct{}

func (e LocalShellExecutor) Execute(
	ctx context.Context,
	execContext string,
	command string,
	timeout time.Duration,
) (models.CommandOutput, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	output := models.CommandOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		output.Status = 0
	case errors.As(err, &exitErr):
		// Non-zero exit is a result, not an execution failure.
		output.Status = exitErr.ExitCode()
	default:
		return models.CommandOutput{}, err
	}
	return output, nil
}
