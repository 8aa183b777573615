package generate

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cmmoran/projgen/internal/emitter"
	"github.com/cmmoran/projgen/pkg/generator"
	"github.com/cmmoran/projgen/pkg/manifest"
)

// Generate writes every view of the module at opts.InDir, records the files in
// the manifest and removes generated files a previous run left behind.
func Generate(ctx context.Context, opts *generator.Options, version string, log *slog.Logger) (*generator.Report, error) {
	if log == nil {
		log = slog.Default()
	}
	host, err := generator.Load(ctx, opts, log)
	if err != nil {
		return nil, err
	}
	rep := generator.New(host, generator.FileWriter{}, opts, log).Run()

	manifestPath := ManifestPath(opts)
	prev, err := manifest.Load(manifestPath)
	if err != nil {
		return rep, err
	}
	next := manifest.FromArtifacts(version, opts.InDir, rep.Artifacts)
	for _, file := range prev.Stale(next) {
		path := filepath.Join(opts.InDir, filepath.FromSlash(file))
		if !IsGenerated(path) {
			log.Warn("not removing stale file without generated header", "file", path)
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to remove stale file", "file", path, "error", err)
			continue
		}
		log.Info("removed stale file", "file", path)
	}
	if err := next.Save(manifestPath); err != nil {
		return rep, err
	}
	return rep, nil
}

// ManifestPath resolves opts.ManifestPath against opts.InDir.
func ManifestPath(opts *generator.Options) string {
	if filepath.IsAbs(opts.ManifestPath) {
		return opts.ManifestPath
	}
	return filepath.Join(opts.InDir, opts.ManifestPath)
}

// IsGenerated reports whether the first line of path is the projgen header.
func IsGenerated(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	return sc.Scan() && strings.Contains(sc.Text(), emitter.Header)
}
