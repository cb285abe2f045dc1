package util

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Run returns the command's stdout untouched. Stderr only ends up in the error.
func Run(ctx context.Context, cwd string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("command failed: %s %s: %w (%s)", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
