package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdkmigrate/migrator/internal/backup"
	"github.com/sdkmigrate/migrator/internal/discover"
	"github.com/sdkmigrate/migrator/internal/synth"
)

var cleanDepsCmd = &cobra.Command{
	Use:   "clean-deps [root-directory]",
	Short: "Remove transitively-reachable PackageReference entries from SDK-style projects",
	Long: `clean-deps re-runs the Transitive Dependency Detector against every
already SDK-style project's PackageReference set and rewrites it with
entries that are reachable as a dependency of another direct package
removed.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runCleanDeps,
}

func runCleanDeps(cmd *cobra.Command, args []string) error {
	if _, err := loadRunConfig(cmd); err != nil {
		return withExit(exitInvalidArgs, err)
	}
	log := newLogger()
	root := rootArg(args)

	_, _, detector, framework := buildResolverStack(log)

	paths, err := discover.Walker{}.Discover(context.Background(), root)
	if err != nil {
		return withExit(exitCatastrophic, err)
	}

	lock, staleWarning, err := backup.AcquireLock(root, lockTimeout())
	if err != nil {
		return withExit(exitCatastrophic, err)
	}
	defer lock.Release()
	if staleWarning != "" {
		log.Warn(staleWarning)
	}

	session, err := backup.NewSession(root)
	if err != nil {
		return withExit(exitCatastrophic, err)
	}

	totalDropped := 0
	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			log.WithField("path", path).WithError(err).Warn("clean-deps: failed to read project")
			continue
		}

		rewritten, dropped, err := synth.CleanTransitiveDependencies(context.Background(), string(contents), framework, detector)
		if err != nil {
			log.WithField("path", path).WithError(err).Warn("clean-deps: failed to parse project")
			continue
		}
		if len(dropped) == 0 {
			continue
		}
		totalDropped += len(dropped)
		fmt.Printf("%s: dropping %v\n", path, dropped)

		if flagDryRun {
			continue
		}
		if err := session.BackupFile(path); err != nil {
			return withExit(exitCatastrophic, err)
		}
		if err := os.WriteFile(path, []byte(rewritten), 0o644); err != nil {
			return withExit(exitCatastrophic, err)
		}
		if err := session.RecordPostHash(path); err != nil {
			log.WithError(err).Warn("clean-deps: failed to record post-write hash")
		}
	}

	if !flagDryRun {
		if err := session.Finalize(); err != nil {
			return withExit(exitCatastrophic, err)
		}
	}

	fmt.Printf("%d project(s) scanned, %d transitive reference(s) dropped\n", len(paths), totalDropped)
	return nil
}
