package check

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/cmmoran/projgen/pkg/action/generate"
	"github.com/cmmoran/projgen/pkg/generator"
	"github.com/cmmoran/projgen/pkg/manifest"
)

// Drift is a generated file whose content on disk differs from what a
// generate run would write.
type Drift struct {
	Path    string
	Missing bool
	Stale   bool
	Diff    string
}

// Check renders every view in memory and compares it against disk. Nothing
// is written.
func Check(ctx context.Context, opts *generator.Options, log *slog.Logger) ([]Drift, *generator.Report, error) {
	if log == nil {
		log = slog.Default()
	}
	host, err := generator.Load(ctx, opts, log)
	if err != nil {
		return nil, nil, err
	}
	mem := generator.NewMemoryWriter()
	rep := generator.New(host, mem, opts, log).Run()

	drifts := Compare(mem.Files)

	prev, err := manifest.Load(generate.ManifestPath(opts))
	if err != nil {
		return drifts, rep, err
	}
	next := manifest.FromArtifacts(prev.Version, opts.InDir, rep.Artifacts)
	for _, file := range prev.Stale(next) {
		path := filepath.Join(opts.InDir, filepath.FromSlash(file))
		if _, err := os.Stat(path); err == nil {
			drifts = append(drifts, Drift{Path: path, Stale: true})
		}
	}
	return drifts, rep, nil
}

// Compare diffs want (path -> content) against the files on disk.
func Compare(want map[string][]byte) []Drift {
	paths := make([]string, 0, len(want))
	for p := range want {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []Drift
	for _, p := range paths {
		got, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			out = append(out, Drift{Path: p, Missing: true, Diff: cmp.Diff("", string(want[p]))})
			continue
		}
		if diff := cmp.Diff(string(got), string(want[p])); diff != "" {
			out = append(out, Drift{Path: p, Diff: diff})
		}
	}
	return out
}
