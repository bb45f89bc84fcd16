// Package discover implements the out-of-scope file-discovery collaborator
// referenced by the orchestrator (spec §1): it walks a solution directory
// and returns the legacy project files worth migrating, skipping build
// output and source-control directories.
package discover

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// projectExtensions are the legacy ToolsVersion-style project files this
// tool knows how to parse; SPEC_FULL.md §5 treats other project kinds as
// out of scope.
var projectExtensions = map[string]bool{
	".csproj": true,
	".vbproj": true,
	".fsproj": true,
}

// skipDirs are never descended into: build output, restore caches, and
// version-control metadata.
var skipDirs = map[string]bool{
	"bin":          true,
	"obj":          true,
	".git":         true,
	".vs":          true,
	"packages":     true,
	"node_modules": true,
}

// Walker discovers legacy project files under a root directory. It
// implements orchestrate.Discoverer.
type Walker struct{}

// Discover walks root and returns every legacy project file found,
// ordered by directory traversal (deterministic given a fixed tree).
func (Walker) Discover(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if de.IsDir() {
				if path != root && skipDirs[strings.ToLower(de.Name())] {
					return filepath.SkipDir
				}
				return nil
			}
			if projectExtensions[strings.ToLower(filepath.Ext(de.Name()))] {
				paths = append(paths, path)
			}
			return nil
		},
		Unsorted: false,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "discover: walk %s", root)
	}
	return paths, nil
}
