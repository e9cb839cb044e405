package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/stagewalk/stagewalk/store"
	"github.com/stagewalk/stagewalk/utils"
)

var (
	_ store.Store = &fileStore{}
)

const (
	// DoneDirName is the directory under the run work directory holding
	// one marker file per finished stage.
	DoneDirName = "stagewalk_done"
	// markerPrefix + stage name is the marker file name.
	markerPrefix = "DONE_"
)

/**
 * fileStore persists one marker file per finished stage under
 * <workDir>/stagewalk_done/DONE_<stage>, so done status survives across
 * process runs sharing a work directory.
 */
type fileStore struct {
	workDir string
	doneDir string
}

func NewFileStore(workDir string) (store.Store, error) {
	doneDir := filepath.Join(workDir, DoneDirName)
	if err := os.MkdirAll(doneDir, 0o755); err != nil {
		return nil, errors.Annotatef(err, "prepare done dir %s", doneDir)
	}
	return &fileStore{workDir: workDir, doneDir: doneDir}, nil
}

func (f *fileStore) markerPath(stage string) string {
	return filepath.Join(f.doneDir, markerPrefix+stage)
}

func (f *fileStore) Set(ctx context.Context, stage string, marker *store.Marker) error {
	b, err := utils.Serialize(marker)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(f.markerPath(stage), b, 0o644))
}

func (f *fileStore) Get(ctx context.Context, stage string) (*store.Marker, error) {
	b, err := os.ReadFile(f.markerPath(stage))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	marker := &store.Marker{}
	if err := utils.Unserialize(b, marker); err != nil {
		return nil, errors.Annotatef(err, "corrupt marker for stage %s", stage)
	}
	if f.stale(marker) {
		return nil, nil
	}
	return marker, nil
}

func (f *fileStore) Remove(ctx context.Context, stage string) error {
	err := os.Remove(f.markerPath(stage))
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Trace(err)
}

func (f *fileStore) List(ctx context.Context, iterator func(stage string, marker *store.Marker) bool) error {
	entries, err := os.ReadDir(f.doneDir)
	if err != nil {
		return errors.Trace(err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), markerPrefix) {
			continue
		}
		stage := strings.TrimPrefix(entry.Name(), markerPrefix)
		marker, err := f.Get(ctx, stage)
		if err != nil {
			return errors.Trace(err)
		}
		if marker == nil {
			continue
		}
		if !iterator(stage, marker) {
			break
		}
	}
	return nil
}

/**
 * stale reports whether the marker's work directory vanished since the
 * stage finished. Such markers are ignored: the stage's output is gone,
 * so the stage is not done anymore.
 */
func (f *fileStore) stale(marker *store.Marker) bool {
	if marker.WorkDir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(f.workDir, marker.WorkDir))
	return err != nil || !info.IsDir()
}
