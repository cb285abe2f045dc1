package git

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"sidediff/internal/util"
)

// FileItem is one changed file from git status.
type FileItem struct {
	Path        string
	OrigPath    string // source path of a rename or copy
	Status      string
	HasStaged   bool
	HasUnstaged bool
}

// InHead reports whether the file has a committed version to compare against.
func (f FileItem) InHead() bool {
	return f.Status != "??" && !strings.HasPrefix(f.Status, "A")
}

type StatusService interface {
	ListChangedFiles(ctx context.Context, cwd string) ([]FileItem, error)
}

type statusService struct{}

func NewStatusService() StatusService {
	return statusService{}
}

func (statusService) ListChangedFiles(ctx context.Context, cwd string) ([]FileItem, error) {
	out, err := util.Run(ctx, cwd, "git", "status", "--porcelain=v2", "--untracked-files=all", "-z")
	if err != nil {
		return nil, err
	}

	items, err := parsePorcelainV2Z(out)
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Path < items[j].Path
	})

	return items, nil
}

// Field counts before the path in porcelain v2 records.
const (
	ordinaryFields = 8
	renameFields   = 9
	unmergedFields = 10
)

func parsePorcelainV2Z(data []byte) ([]FileItem, error) {
	records := bytes.Split(data, []byte{0})
	items := make([]FileItem, 0, len(records))

	for i := 0; i < len(records); i++ {
		rec := string(records[i])
		if rec == "" {
			continue
		}

		switch rec[0] {
		case '1':
			item, err := recordItem(rec, ordinaryFields)
			if err != nil {
				return nil, err
			}
			items = append(items, item)

		case 'u':
			item, err := recordItem(rec, unmergedFields)
			if err != nil {
				return nil, err
			}
			items = append(items, item)

		case '2':
			item, err := recordItem(rec, renameFields)
			if err != nil {
				return nil, err
			}
			if i+1 < len(records) {
				i++ // -z emits the original path as its own record
				item.OrigPath = string(records[i])
			}
			items = append(items, item)

		case '?':
			items = append(items, FileItem{
				Path:        strings.TrimPrefix(rec, "? "),
				Status:      "??",
				HasUnstaged: true,
			})

		case '!', '#':
			continue

		default:
			return nil, fmt.Errorf("unknown porcelain record: %q", rec)
		}
	}

	return items, nil
}

func recordItem(rec string, fields int) (FileItem, error) {
	parts := strings.SplitN(rec, " ", fields+1)
	if len(parts) != fields+1 || len(parts[1]) != 2 {
		return FileItem{}, fmt.Errorf("unexpected porcelain record: %q", rec)
	}
	return itemFromXY(parts[fields], parts[1]), nil
}

func itemFromXY(path, xy string) FileItem {
	status := strings.Trim(xy, ".")
	if status == "" {
		status = ".."
	}

	return FileItem{
		Path:        path,
		Status:      status,
		HasStaged:   xy[0] != '.',
		HasUnstaged: xy[1] != '.',
	}
}
