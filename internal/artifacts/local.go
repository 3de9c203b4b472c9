package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vthunder/postbot/internal/logging"
)

// LocalStore copies model files from a directory tree laid out like the
// bucket (<root>/<modelID>/<file>). Used for development and tests.
type LocalStore struct {
	root    string
	scratch string
}

// NewLocalStore creates a store reading from root
func NewLocalStore(root, scratch string) *LocalStore {
	return &LocalStore{root: root, scratch: scratch}
}

// Fetch copies the top-level files of root/modelID into a private scratch
// directory
func (s *LocalStore) Fetch(ctx context.Context, modelID string) (*Bundle, error) {
	src := filepath.Join(s.root, filepath.Clean("/"+modelID))
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("read model dir: %w", err)
	}

	dir, err := scratchDir(s.scratch, modelID)
	if err != nil {
		return nil, err
	}
	bundle := &Bundle{ModelID: modelID, Dir: dir}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			discard(bundle)
			return nil, err
		}
		dst := filepath.Join(dir, e.Name())
		if err := copyFile(filepath.Join(src, e.Name()), dst); err != nil {
			discard(bundle)
			return nil, err
		}
		bundle.Files = append(bundle.Files, dst)
	}

	logging.Debug("artifacts", "Copied %d files from %s into %s", len(bundle.Files), src, dir)
	return bundle, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
