// Package artifacts downloads a model's files into a scratch directory for
// the duration of one invocation.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vthunder/postbot/internal/logging"
)

// Store fetches the files of a model into local scratch space
type Store interface {
	Fetch(ctx context.Context, modelID string) (*Bundle, error)
}

// Bundle is a model's local directory. Close removes it.
type Bundle struct {
	ModelID string
	Dir     string
	Files   []string // files downloaded by this fetch
}

// Close deletes the bundle's files and directory
func (b *Bundle) Close() error {
	if b == nil || b.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(b.Dir); err != nil {
		return fmt.Errorf("remove %s: %w", b.Dir, err)
	}
	logging.Debug("artifacts", "Removed %s (%d files)", b.Dir, len(b.Files))
	return nil
}

// discard removes a partially fetched bundle on an error path
func discard(b *Bundle) {
	if err := b.Close(); err != nil {
		logging.Warn("artifacts", "Cleanup of %s failed: %v", b.ModelID, err)
	}
}

// scratchDir creates a fresh <root>/<modelID>-<random> directory, so
// concurrent fetches of one model never share files
func scratchDir(root, modelID string) (string, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create scratch root: %w", err)
	}
	prefix := strings.ReplaceAll(strings.Trim(filepath.Clean("/"+modelID), "/"), "/", "_")
	if prefix == "" {
		prefix = "model"
	}
	dir, err := os.MkdirTemp(root, prefix+"-*")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}
