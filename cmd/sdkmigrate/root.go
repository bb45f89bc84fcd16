// Package main implements the sdkmigrate CLI: cobra subcommand dispatch
// wired to the orchestrator (internal/orchestrate). Flag parsing itself is
// a thin shell around the in-scope core; per spec §6 the interesting work
// happens below this package.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sdkmigrate/migrator/internal/config"
)

// Exit codes per spec §6.
const (
	exitSuccess       = 0
	exitProjectFailed = 1
	exitCatastrophic  = 2
	exitInvalidArgs   = 3
)

var (
	flagDryRun          bool
	flagParallel        int
	flagOffline         bool
	flagTargetFramework string
	flagLogLevel        string
	flagOutputDirectory string
	flagConfigFile      string
)

var rootCmd = &cobra.Command{
	Use:   "sdkmigrate [root-directory]",
	Short: "Migrate legacy ToolsVersion-style project files to SDK-style",
	Long: `sdkmigrate rewrites legacy XML project files that reference an older
tools format into the modern SDK-style project format: resolving package
references, detecting transitive dependencies that are safe to drop, and
synthesizing new project files under a rollback-capable backup session.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runMigrate,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "compute results without writing any files")
	rootCmd.PersistentFlags().IntVar(&flagParallel, "parallel", 4, "number of projects migrated concurrently")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "resolve packages only from the bundled offline fixture table")
	rootCmd.PersistentFlags().StringVar(&flagTargetFramework, "target-framework", "", "fallback target framework moniker when a legacy project's version can't be converted")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagOutputDirectory, "output-directory", "", "write migrated projects here instead of in place (defaults to in place)")
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "migrate.toml", "path to an optional run-configuration file")

	rootCmd.AddCommand(analyzeCmd, rollbackCmd, cleanDepsCmd, cleanCPMCmd)
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(flagLogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// loadRunConfig merges migrate.toml (if present) under the CLI flags: an
// explicitly-set flag always wins, matching the teacher's flag-over-file
// precedence in cmd.go.
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		return cfg, err
	}
	if !cmd.Flags().Changed("parallel") && cfg.Parallelism > 0 {
		flagParallel = cfg.Parallelism
	}
	if !cmd.Flags().Changed("offline") && cfg.Offline {
		flagOffline = true
	}
	if !cmd.Flags().Changed("target-framework") && cfg.DefaultFramework != "" {
		flagTargetFramework = cfg.DefaultFramework
	}
	if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
		flagLogLevel = cfg.LogLevel
	}
	return cfg, nil
}

func rootArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}

func lockTimeout() time.Duration {
	return 30 * time.Second
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if ec, ok := err.(exitCoder); ok {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(ec.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCatastrophic)
	}
}

// exitCoder lets a command return an error carrying a specific process
// exit code instead of the generic catastrophic-failure code.
type exitCoder interface {
	error
	ExitCode() int
}

type coded struct {
	err  error
	code int
}

func (c coded) Error() string { return c.err.Error() }
func (c coded) ExitCode() int { return c.code }

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return coded{err: err, code: code}
}

func errCountf(failed int) error {
	return fmt.Errorf("%d project(s) failed to migrate", failed)
}
