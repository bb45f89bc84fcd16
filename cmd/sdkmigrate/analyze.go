package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sdkmigrate/migrator/internal/backup"
)

var flagAnalyzeReport string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [root-directory]",
	Short: "Run the migration pipeline without writing any files",
	Long: `analyze runs the full per-project pipeline (reference conversion,
transitive dependency detection, project synthesis) in dry-run mode and
prints a summary of what a real run would change.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&flagAnalyzeReport, "report", "", "print the audit stream at this path back out instead of analyzing")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if flagAnalyzeReport != "" {
		return runAnalyzeReport(flagAnalyzeReport)
	}

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return withExit(exitInvalidArgs, err)
	}

	log := newLogger()
	flagDryRun = true
	orch := buildOrchestrator(log, cfg)

	rr, err := orch.Run(context.Background(), rootArg(args))
	if err != nil {
		return withExit(exitCatastrophic, err)
	}

	var converted, unconverted, removed, failed int
	for _, p := range rr.Projects {
		converted += len(p.Packages)
		unconverted += len(p.Unconverted)
		removed += len(p.Removed)
		if !p.Success {
			failed++
		}
		fmt.Printf("%s: %d package(s), %d unconverted, %d removed, %d warning(s)\n",
			p.InputPath, len(p.Packages), len(p.Unconverted), len(p.Removed), len(p.Warnings))
	}
	fmt.Printf("\n%d project(s) analyzed: %d failed, %d package(s) converted, %d unconverted, %d element(s) removed\n",
		len(rr.Projects), failed, converted, unconverted, removed)
	if rr.CacheStats != nil {
		fmt.Printf("cache: latest %+v, versions %+v, assembly %+v, dependencies %+v\n",
			rr.CacheStats.Latest, rr.CacheStats.AllVersions, rr.CacheStats.Assembly, rr.CacheStats.Dependencies)
	}

	if failed > 0 {
		return withExit(exitProjectFailed, errCountf(failed))
	}
	return nil
}

// runAnalyzeReport reads an audit JSONL file back and prints one line per
// event, the same decoder the writer's Append uses (spec Testable
// Property 8: one well-formed record per line).
func runAnalyzeReport(path string) error {
	events, err := backup.ReadAll(path)
	if err != nil {
		return withExit(exitInvalidArgs, err)
	}
	for _, e := range events {
		fmt.Printf("%s %s %s\n", e.Timestamp.Format("2006-01-02T15:04:05Z07:00"), e.Type, filepath.Clean(e.Path))
	}
	fmt.Printf("%d event(s)\n", len(events))
	return nil
}
