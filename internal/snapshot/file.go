package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/aegis-valuation/internal/contracts"
)

// FileSource loads snapshots from a directory of JSON files:
// <dir>/<code>_<yyyy-mm-dd>.json for a dated snapshot, <dir>/<code>.json otherwise
type FileSource struct {
	dir string
}

// NewFileSource creates a new file-backed source
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Load implements contracts.SnapshotSource
func (s *FileSource) Load(ctx context.Context, code string, asOf time.Time) (*contracts.AnalysisSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := make([]string, 0, 2)
	if !asOf.IsZero() {
		candidates = append(candidates, filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", code, asOf.Format("2006-01-02"))))
	}
	candidates = append(candidates, filepath.Join(s.dir, code+".json"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		snap, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		if snap.Code != code {
			return nil, fmt.Errorf("%w: %s holds code %q, want %q", ErrInvalid, path, snap.Code, code)
		}
		return snap, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, code, s.dir)
}
