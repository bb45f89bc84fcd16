// Package orchestrate implements the Orchestrator (C9): discovers
// projects, runs the per-project pipeline under a bounded worker pool with
// cooperative cancellation, and assembles solution-wide outputs.
package orchestrate

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sdkmigrate/migrator/internal/backup"
	"github.com/sdkmigrate/migrator/internal/cache"
	"github.com/sdkmigrate/migrator/internal/legacyproj"
	"github.com/sdkmigrate/migrator/internal/model"
	"github.com/sdkmigrate/migrator/internal/synth"
)

// Discoverer is the out-of-scope file-discovery collaborator (spec §1):
// its only documented surface into the core is "returns paths".
type Discoverer interface {
	Discover(ctx context.Context, root string) ([]string, error)
}

// Handler is the per-project-kind plug-in contract (spec §6): the core
// routes by detected capability set and never hard-codes a kind.
type Handler interface {
	Detect(proj *legacyproj.ParsedLegacyProject) (info interface{}, ok bool)
	Migrate(info interface{}, newProjectXML string, packages []model.PackageReference, result *model.MigrationResult)
}

// CentralPackageStrategy picks how conflicting versions of the same
// package id across projects are reconciled into one central list.
type CentralPackageStrategy int

const (
	HighestWins CentralPackageStrategy = iota
	ManifestWins
	UserPrompt
)

// Options configures one orchestrator run.
type Options struct {
	Parallelism            int
	DryRun                 bool
	DefaultFramework       string
	GenerateSharedProps    bool
	GenerateCentralPkgs    bool
	CentralPackageStrategy CentralPackageStrategy
	LockTimeout            time.Duration
}

// ManifestLoader reads a project directory's package-manifest file
// (packages.config), returning nil if none exists.
type ManifestLoader func(projectDir string) ([]legacyproj.ManifestPackage, error)

// Orchestrator is the C9 implementation.
type Orchestrator struct {
	Discoverer Discoverer
	Synth      *synth.Synthesizer
	Handlers   []Handler
	Manifests  ManifestLoader
	Options    Options
	Log        *logrus.Logger
	// Cache is optional; when set its hit/miss counters are snapshotted
	// into RunResult.CacheStats for the analyze --report surface.
	Cache *cache.Cache
}

// RunResult aggregates every per-project MigrationResult plus solution-wide
// outputs.
type RunResult struct {
	Projects             []*model.MigrationResult
	SharedPropertiesPath string
	CentralPackagesPath  string
	CacheStats           *cache.Stats
}

// Run executes the full C9 pipeline (spec §4.9 steps 1-7).
func (o *Orchestrator) Run(ctx context.Context, root string) (*RunResult, error) {
	lock, staleWarning, err := backup.AcquireLock(root, o.Options.LockTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "orchestrate: acquire solution lock")
	}
	defer lock.Release()
	if staleWarning != "" && o.Log != nil {
		o.Log.Warn(staleWarning)
	}

	session, err := backup.NewSession(root)
	if err != nil {
		return nil, errors.Wrap(err, "orchestrate: initialize backup session")
	}

	auditPath := filepath.Join(session.Dir, "audit.jsonl")
	audit, err := backup.NewStream(auditPath)
	if err != nil {
		return nil, errors.Wrap(err, "orchestrate: open audit stream")
	}
	defer audit.Close()

	hostname, _ := os.Hostname()
	audit.Append(backup.Event{
		Type:    backup.EventStart,
		User:    os.Getenv("USER"),
		Machine: hostname,
		PID:     os.Getpid(),
	})

	paths, err := o.Discoverer.Discover(ctx, root)
	if err != nil {
		auditErr(audit, "discovery", err)
		return nil, errors.Wrap(err, "orchestrate: discover projects")
	}

	results, runErr := o.migrateAll(ctx, paths, session, audit)

	if o.Options.GenerateSharedProps || o.Options.GenerateCentralPkgs {
		sharedPath, centralPath := o.generateSolutionWide(root, results)
		if runErr == nil {
			rr := &RunResult{Projects: results, SharedPropertiesPath: sharedPath, CentralPackagesPath: centralPath}
			return o.finish(session, audit, rr, len(results), countFailed(results))
		}
	}

	rr := &RunResult{Projects: results}
	if runErr != nil {
		auditErr(audit, "catastrophic", runErr)
		if _, rbErr := session.Rollback(); rbErr != nil {
			return rr, errors.Wrap(rbErr, "orchestrate: rollback after catastrophic failure")
		}
		return rr, runErr
	}

	return o.finish(session, audit, rr, len(results), countFailed(results))
}

func (o *Orchestrator) finish(session *backup.Session, audit *backup.Stream, rr *RunResult, total, failed int) (*RunResult, error) {
	if err := session.Finalize(); err != nil {
		return rr, errors.Wrap(err, "orchestrate: finalize backup session")
	}
	if o.Cache != nil {
		stats := o.Cache.Stats()
		rr.CacheStats = &stats
	}
	audit.Append(backup.Event{Type: backup.EventEnd, ProjectsTotal: total, ProjectsFailed: failed})
	return rr, nil
}

func countFailed(results []*model.MigrationResult) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

func auditErr(audit *backup.Stream, kind string, err error) {
	audit.Append(backup.Event{Type: backup.EventError, ErrorKind: kind, Message: err.Error()})
}

// migrateAll runs one worker per project, bounded by Options.Parallelism,
// with cooperative cancellation observed at every suspension point
// (spec §5): a single cancelled context aborts remaining workers, and
// already-started workers discard their partial output rather than write.
func (o *Orchestrator) migrateAll(ctx context.Context, paths []string, session *backup.Session, audit *backup.Stream) ([]*model.MigrationResult, error) {
	limit := o.Options.Parallelism
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	results := make([]*model.MigrationResult, 0, len(paths))

	for _, path := range paths {
		path := path
		g.Go(func() error {
			result := o.migrateOne(gctx, path, session, audit)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (o *Orchestrator) migrateOne(ctx context.Context, path string, session *backup.Session, audit *backup.Stream) *model.MigrationResult {
	result := &model.MigrationResult{Success: true, InputPath: path}

	select {
	case <-ctx.Done():
		result.AddError("migration cancelled before starting")
		return result
	default:
	}

	proj, err := legacyproj.Parse(path)
	if err != nil {
		result.AddError(err.Error())
		return result
	}

	var manifest []legacyproj.ManifestPackage
	if o.Manifests != nil {
		manifest, _ = o.Manifests(filepath.Dir(path))
	}

	r, doc, err := o.Synth.Synthesize(ctx, proj, manifest)
	if err != nil {
		result.AddError(err.Error())
		return result
	}
	r.InputPath = path

	select {
	case <-ctx.Done():
		r.AddError("migration cancelled before write")
		return r
	default:
	}

	if o.Options.DryRun {
		return r
	}

	if err := session.BackupFile(path); err != nil {
		r.AddError(err.Error())
		return r
	}

	existed := true
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		existed = false
	}

	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		r.AddError(err.Error())
		return r
	}
	r.OutputPath = path

	if err := session.RecordPostHash(path); err != nil && o.Log != nil {
		o.Log.WithError(err).Warn("orchestrate: failed to record post-write hash")
	}

	eventType := backup.EventFileModified
	if !existed {
		eventType = backup.EventFileCreated
	}
	audit.Append(backup.Event{Type: eventType, Path: path})

	if !validate(doc) {
		r.AddWarning("post-migration validation failed: malformed or duplicate-item output")
	}

	return r
}
