package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cmmoran/projgen/internal/model"
)

// Entry records one generated file.
type Entry struct {
	Name  string `yaml:"name" json:"name"`
	Class string `yaml:"class" json:"class"`
	File  string `yaml:"file" json:"file"`
	Hash  string `yaml:"hash" json:"hash"`
}

// Manifest lists the files produced by the last generate run so the next run
// can remove the ones it no longer produces.
type Manifest struct {
	Version   string  `yaml:"version,omitempty" json:"version,omitempty"`
	Artifacts []Entry `yaml:"artifacts" json:"artifacts"`
}

// Load reads a manifest from the provided path. If the file does not exist,
// an empty manifest is returned.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &m, nil
}

// Save writes the manifest to the provided path, creating parent directories as needed.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// FromArtifacts records arts with file paths relative to root, sorted by file.
func FromArtifacts(version, root string, arts []*model.Artifact) *Manifest {
	m := &Manifest{Version: version, Artifacts: make([]Entry, 0, len(arts))}
	for _, a := range arts {
		file := a.Path
		if rel, err := filepath.Rel(root, a.Path); err == nil {
			file = rel
		}
		m.Artifacts = append(m.Artifacts, Entry{
			Name:  a.Name,
			Class: a.Class,
			File:  filepath.ToSlash(file),
			Hash:  Hash(a.Source),
		})
	}
	slices.SortFunc(m.Artifacts, func(a, b Entry) int { return strings.Compare(a.File, b.File) })
	return m
}

// Hash is the hex sha256 of src.
func Hash(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Entry returns the entry recorded for file, if present.
func (m *Manifest) Entry(file string) (Entry, bool) {
	for _, e := range m.Artifacts {
		if e.File == file {
			return e, true
		}
	}
	return Entry{}, false
}

// Stale lists files recorded in m that next no longer produces.
func (m *Manifest) Stale(next *Manifest) []string {
	var out []string
	for _, e := range m.Artifacts {
		if _, ok := next.Entry(e.File); !ok {
			out = append(out, e.File)
		}
	}
	return out
}
