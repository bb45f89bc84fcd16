package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/sdkmigrate/migrator/internal/assets"
	"github.com/sdkmigrate/migrator/internal/cache"
	"github.com/sdkmigrate/migrator/internal/config"
	"github.com/sdkmigrate/migrator/internal/convert"
	"github.com/sdkmigrate/migrator/internal/discover"
	"github.com/sdkmigrate/migrator/internal/legacyproj"
	"github.com/sdkmigrate/migrator/internal/orchestrate"
	"github.com/sdkmigrate/migrator/internal/resolver"
	"github.com/sdkmigrate/migrator/internal/synth"
	"github.com/sdkmigrate/migrator/internal/transitive"
)

// buildResolverStack wires the Package Version Cache, offline fixture
// table, and (unless --offline) an online resolver behind it, then builds
// the Transitive Detector that walks the same resolver chain.
func buildResolverStack(log *logrus.Logger) (*cache.Cache, *convert.Converter, *transitive.Detector, string) {
	pvCache := cache.New()

	offline := resolver.NewOffline(resolver.DefaultFixtures())

	var general resolver.Resolver
	if !flagOffline {
		// No bundled network index client is shipped (spec §1: package
		// discovery beyond the offline fixture table is an external
		// collaborator); wiring a live client is left to the embedding
		// process by constructing its own resolver.IndexClient.
		general = resolver.NewCached(resolver.NewOnline(resolver.IndexClient{}, log, 0), pvCache)
	}

	converter := convert.New(offline, general, log)
	detector := &transitive.Detector{Graph: transitive.ResolverGraph{Resolver: cachedOrOffline(general, offline, pvCache)}}

	framework := flagTargetFramework
	if framework == "" {
		framework = "net8.0"
	}

	return pvCache, converter, detector, framework
}

// buildOrchestrator wires C1-C9 together from the resolved flag/config
// values, the way main.go wires the teacher's SourceManager and Solver.
func buildOrchestrator(log *logrus.Logger, cfg config.Config) *orchestrate.Orchestrator {
	pvCache, converter, detector, framework := buildResolverStack(log)
	synthesizer := synth.New(converter, detector, synth.Options{DefaultFramework: framework})
	// No restore tool or archive store is shipped (same external-collaborator
	// boundary as the online resolver above); the fallback path degrades to
	// IsPartial and Synthesizer surfaces that as a per-project warning.
	synthesizer.Assets = &assets.Resolver{}

	return &orchestrate.Orchestrator{
		Discoverer: discover.Walker{},
		Synth:      synthesizer,
		Manifests:  loadManifest,
		Cache:      pvCache,
		Log:        log,
		Options: orchestrate.Options{
			Parallelism:            flagParallel,
			DryRun:                 flagDryRun,
			DefaultFramework:       framework,
			GenerateSharedProps:    cfg.SharedProperties.Enabled,
			GenerateCentralPkgs:    cfg.CentralPackages.Enabled,
			CentralPackageStrategy: cfg.CentralPackageStrategy(),
			LockTimeout:            lockTimeout(),
		},
	}
}

// cachedOrOffline picks the resolver the Transitive Detector walks: the
// online/cached resolver when configured, otherwise the offline table
// directly, mirroring Converter's own Offline-then-General precedence.
func cachedOrOffline(general resolver.Resolver, offline *resolver.Offline, _ *cache.Cache) resolver.Resolver {
	if general != nil {
		return general
	}
	return offline
}

// loadManifest reads packages.config from a project's directory, if
// present.
func loadManifest(projectDir string) ([]legacyproj.ManifestPackage, error) {
	path := filepath.Join(projectDir, "packages.config")
	pkgs, err := legacyproj.ParseManifest(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return pkgs, nil
}
