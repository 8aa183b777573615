package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cmmoran/projgen/internal/model"
)

// ArtifactWriter persists generated artifacts.
type ArtifactWriter interface {
	Write(a *model.Artifact) error
}

// FileWriter writes artifacts to their Path on disk.
type FileWriter struct{}

func (FileWriter) Write(a *model.Artifact) error {
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	if err := os.WriteFile(a.Path, a.Source, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// MemoryWriter keeps artifacts in memory, keyed by path.
type MemoryWriter struct {
	mu    sync.Mutex
	Files map[string][]byte
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{Files: make(map[string][]byte)}
}

func (w *MemoryWriter) Write(a *model.Artifact) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Files == nil {
		w.Files = make(map[string][]byte)
	}
	w.Files[a.Path] = a.Source
	return nil
}
