package main

import (
	"context"

	"github.com/spf13/cobra"
)

// runMigrate is the default command: migrate every legacy project found
// under the root directory.
func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return withExit(exitInvalidArgs, err)
	}

	log := newLogger()
	orch := buildOrchestrator(log, cfg)
	if flagOutputDirectory != "" {
		log.Warn("--output-directory is not yet wired; migrating projects in place")
	}

	rr, err := orch.Run(context.Background(), rootArg(args))
	if err != nil {
		return withExit(exitCatastrophic, err)
	}

	failed := 0
	for _, p := range rr.Projects {
		if !p.Success {
			failed++
			log.WithField("project", p.InputPath).WithField("errors", p.Errors).Error("migration failed")
		}
	}
	log.WithField("total", len(rr.Projects)).WithField("failed", failed).Info("migration complete")
	if rr.CacheStats != nil {
		log.WithField("stats", *rr.CacheStats).Debug("package resolution cache")
	}

	if failed > 0 {
		return withExit(exitProjectFailed, errCountf(failed))
	}
	return nil
}
