package backup

import (
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// CopyTree recursively copies src to dest using godirwalk, preserving
// relative structure; used by Rollback's restore path when a whole backup
// subtree (rather than one file) needs to be replayed, and by the
// orchestrator's solution-wide discovery pass for walking large trees
// quickly without the overhead of filepath.Walk's per-node lstat+sort.
func CopyTree(src, dest string) error {
	return godirwalk.Walk(src, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return errors.Wrapf(err, "backup: relativize %s", path)
			}
			target := filepath.Join(dest, rel)
			if de.IsDir() {
				return os.MkdirAll(target, 0o755)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "backup: create parent dir for %s", target)
			}
			if _, err := copyFileHashed(path, target); err != nil {
				return err
			}
			return nil
		},
		Unsorted: false,
	})
}
