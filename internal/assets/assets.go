// Package assets mirrors the directories of collected entities into an
// output directory, so a catalog can ship together with the files its
// entities reference.
package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauern/persona/internal/logging"
	"github.com/klauern/persona/internal/model"
	"github.com/klauern/persona/internal/progress"
	"github.com/klauern/persona/internal/tree"
)

// Stats summarizes a mirror run.
type Stats struct {
	// Entities is the number of entity directories copied.
	Entities int
	// Headers is the number of header files copied.
	Headers int
	// Files is the total number of files and links written.
	Files int
	// Skipped counts items outside every root.
	Skipped int
}

// Mirror copies every item below roots into outDir, keeping the path
// relative to its root. An entity brings its whole directory, a header
// only its own file.
func Mirror(items []model.Item, roots []string, outDir string) (Stats, error) {
	defer logging.Timer("mirror")()

	var stats Stats
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return stats, fmt.Errorf("failed to create output directory %q: %w", outDir, err)
	}
	skip, err := filepath.Abs(outDir)
	if err != nil {
		return stats, fmt.Errorf("failed to resolve output directory %q: %w", outDir, err)
	}

	bar := progress.New(progress.Options{Max: len(items), Description: "Mirroring"})
	for _, item := range items {
		rel, ok := tree.RelativePath(item.ItemPath(), roots)
		if !ok {
			logging.Debug("item outside roots, not mirrored", logging.Path(item.ItemPath()))
			stats.Skipped++
			_ = bar.Add(1)
			continue
		}

		dest := filepath.Join(outDir, filepath.Dir(rel))
		switch it := item.(type) {
		case model.Entity:
			n, err := copyDir(filepath.Dir(it.Path), dest, skip)
			stats.Files += n
			if err != nil {
				return stats, fmt.Errorf("mirror %s: %w", it.Name, err)
			}
			stats.Entities++
		case model.Header:
			if err := os.MkdirAll(dest, 0o750); err != nil {
				return stats, fmt.Errorf("failed to create directory %q: %w", dest, err)
			}
			if err := copyFile(it.Path, filepath.Join(outDir, rel)); err != nil {
				return stats, err
			}
			stats.Files++
			stats.Headers++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	logging.Info("mirrored assets",
		logging.Path(outDir),
		logging.Count(stats.Files),
	)
	return stats, nil
}
