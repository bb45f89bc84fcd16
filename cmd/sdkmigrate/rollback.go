package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sdkmigrate/migrator/internal/backup"
)

var flagRollbackSession string

var rollbackCmd = &cobra.Command{
	Use:   "rollback [root-directory]",
	Short: "Restore files from a backup session",
	Long: `rollback replays a previously finalized backup session's manifest,
restoring every original path (or removing it, if the migration created it
fresh). With no --session, the most recent session under
<root>/.sdkmigrate-backup is used.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runRollback,
}

func init() {
	rollbackCmd.Flags().StringVar(&flagRollbackSession, "session", "", "backup session id to roll back (defaults to the most recent)")
}

func runRollback(cmd *cobra.Command, args []string) error {
	log := newLogger()
	root := rootArg(args)

	sessionDir, err := resolveSessionDir(root, flagRollbackSession)
	if err != nil {
		return withExit(exitInvalidArgs, err)
	}

	manifest, err := backup.LoadManifest(filepath.Join(sessionDir, "manifest.json"))
	if err != nil {
		return withExit(exitCatastrophic, err)
	}

	session := backup.SessionFromManifest(manifest, sessionDir)
	results, err := session.Rollback()
	if err != nil {
		return withExit(exitCatastrophic, err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.WithField("path", r.OriginalPath).WithError(r.Err).Error("rollback failed for path")
			continue
		}
		log.WithField("path", r.OriginalPath).Info("restored")
	}
	if failed > 0 {
		return withExit(exitCatastrophic, fmt.Errorf("%d path(s) failed to restore", failed))
	}
	return nil
}

// resolveSessionDir finds the backup session directory for id, or the
// lexicographically last one (session ids are timestamp-prefixed, so this
// is also the most recent) when id is empty.
func resolveSessionDir(root, id string) (string, error) {
	base := filepath.Join(root, ".sdkmigrate-backup")
	if id != "" {
		return filepath.Join(base, id), nil
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return "", fmt.Errorf("no backup sessions found under %s: %w", base, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("no backup sessions found under %s", base)
	}
	sort.Strings(ids)
	return filepath.Join(base, ids[len(ids)-1]), nil
}
