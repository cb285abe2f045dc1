package git

import (
	"bytes"
	"context"
	"fmt"

	"sidediff/internal/util"
)

// DiscoverRepoRoot returns the top level of the work tree containing cwd.
func DiscoverRepoRoot(ctx context.Context, cwd string) (string, error) {
	out, err := util.Run(ctx, cwd, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("discover repository root: %w", err)
	}
	return string(bytes.TrimSpace(out)), nil
}
