package main

import (
	"os"
	"path/filepath"
	"sync"
)

// hostWorkspace is the workspace resolver used when keybeat runs as a
// standalone daemon fed over stdin. Project roots are resolved by walking up
// to the nearest directory containing .git, and the open-file set is
// maintained from the open/close notifications themselves.
type hostWorkspace struct {
	mu   sync.Mutex
	open map[string]bool
}

func newHostWorkspace() *hostWorkspace {
	return &hostWorkspace{open: make(map[string]bool)}
}

func (w *hostWorkspace) RootForFile(filename string) (string, bool) {
	dir := filepath.Dir(filename)
	for {
		if fi, err := os.Stat(filepath.Join(dir, ".git")); err == nil && fi.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (w *hostWorkspace) ProjectName(root string) string {
	if root == "" {
		return ""
	}
	return filepath.Base(root)
}

func (w *hostWorkspace) IsFileOpen(filename string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open[filename]
}

func (w *hostWorkspace) markOpen(filename string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open[filename] = true
}

func (w *hostWorkspace) markClosed(filename string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.open, filename)
}
