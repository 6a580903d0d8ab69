// Package workspace stages submitted configuration documents as temporary
// files for the duration of one job.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace materializes configuration documents under a root directory.
// File names are derived from job IDs, so concurrent writes never collide.
type Workspace struct {
	root string
}

// New creates a Workspace rooted at dir. The directory is created lazily
// on first write.
func New(dir string) *Workspace {
	return &Workspace{root: dir}
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// Write stores content as config_<id>.yaml inside the workspace and returns
// the full path. Filesystem errors are propagated uninterpreted.
func (w *Workspace) Write(id uuid.UUID, content string) (string, error) {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	path := filepath.Join(w.root, fmt.Sprintf("config_%s.yaml", id))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// Remove deletes a materialized config file. A file that is already gone
// is not an error.
func (w *Workspace) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
