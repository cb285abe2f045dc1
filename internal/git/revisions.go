package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sidediff/internal/util"
)

// RevisionService loads the two sides of a changed file: HEAD and the working tree.
type RevisionService interface {
	Revisions(ctx context.Context, root string, item FileItem) (base, target []byte, err error)
}

type revisionService struct{}

func NewRevisionService() RevisionService {
	return revisionService{}
}

func (revisionService) Revisions(ctx context.Context, root string, item FileItem) ([]byte, []byte, error) {
	base, err := headContent(ctx, root, item)
	if err != nil {
		return nil, nil, err
	}
	target, err := ReadFile(filepath.Join(root, item.Path))
	if err != nil {
		return nil, nil, err
	}
	return base, target, nil
}

// headContent returns the committed content, or nothing for files HEAD does not know.
func headContent(ctx context.Context, root string, item FileItem) ([]byte, error) {
	if !item.InHead() {
		return nil, nil
	}
	path := item.Path
	if item.OrigPath != "" {
		path = item.OrigPath
	}
	return util.Run(ctx, root, "git", "show", "HEAD:"+filepath.ToSlash(path))
}

// ReadFile reads a working tree file. A missing file reads as empty.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
