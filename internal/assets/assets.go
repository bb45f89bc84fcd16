// Package assets implements the Assets Resolver (C3): given a direct
// package list and a target framework, it produces the complete set of
// assemblies those packages provide, directly or transitively.
//
// The preferred path synthesizes a minimal project, runs an external
// restore, and parses the resulting lock file (grounded on
// other_examples' gonuget restore/lock_file_builder.go shape). When that
// path is unavailable or fails, a fallback selects the best-matching
// framework-specific assembly group from each package's cached archive and
// marks the result partial.
package assets

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sdkmigrate/migrator/internal/model"
)

// RestoreTimeout bounds the external restore child process (spec §4.3/§5).
const RestoreTimeout = 30 * time.Second

// Assembly is one resolved compile-time or runtime assembly path belonging
// to a specific package.
type Assembly struct {
	PackageID string
	Path      string
}

// Set is the resolved output of Resolve: the full assembly list plus
// whether it came from the lower-fidelity fallback path.
type Set struct {
	Compile   []Assembly
	Runtime   []Assembly
	IsPartial bool
}

// LockFile is the minimal shape of an external restore's lock file this
// core needs: per-library compile/runtime asset lists. Field names mirror
// the "targets"/"libraries" sections of a NuGet-style project.assets.json.
type LockFile struct {
	Targets map[string]map[string]LockLibrary `json:"targets"`
}

// LockLibrary is one resolved library entry within a lock file target.
type LockLibrary struct {
	Type    string              `json:"type"`
	Compile map[string]struct{} `json:"compile"`
	Runtime map[string]struct{} `json:"runtime"`
}

// ArchiveStore locates a package's cached archive contents for the
// fallback path: the set of file paths it contains, grouped by the
// framework-specific folder they live under (e.g. "lib/net472",
// "lib/netstandard2.0").
type ArchiveStore interface {
	FilesByFrameworkGroup(ctx context.Context, id, version string) (map[string][]string, error)
}

// Restorer runs an external package restore against a synthesized project
// file and returns the path to the resulting lock file. Implementations
// shell out to the platform's real restore tool; this core only depends on
// the narrow contract.
type Restorer interface {
	Restore(ctx context.Context, projectPath string) (lockFilePath string, err error)
}

// ExecRestorer runs Command as a child process with RestoreTimeout,
// expecting it to write a lock file at <projectDir>/obj/project.assets.json.
type ExecRestorer struct {
	Command []string
}

// Restore implements Restorer by invoking the configured command with the
// project path appended, under RestoreTimeout. Exceeding the timeout kills
// the child process and returns an error (spec §4.3).
func (e ExecRestorer) Restore(ctx context.Context, projectPath string) (string, error) {
	if len(e.Command) == 0 {
		return "", errors.New("assets: no restore command configured")
	}

	ctx, cancel := context.WithTimeout(ctx, RestoreTimeout)
	defer cancel()

	args := append(append([]string{}, e.Command[1:]...), projectPath)
	cmd := exec.CommandContext(ctx, e.Command[0], args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.Wrap(ctx.Err(), "assets: restore timed out")
		}
		return "", errors.Wrap(err, "assets: restore failed")
	}

	lockPath := filepath.Join(filepath.Dir(projectPath), "obj", "project.assets.json")
	if _, err := os.Stat(lockPath); err != nil {
		return "", errors.Wrap(err, "assets: restore produced no lock file")
	}
	return lockPath, nil
}

// Resolver is the C3 implementation. It tries the high-fidelity restore
// path first and falls back to direct archive inspection on any failure.
type Resolver struct {
	Restorer Restorer
	Store    ArchiveStore
	// Synthesize writes a minimal project declaring only direct at path
	// and returns the path actually written (a unique temp path per call,
	// released on every exit path by the caller).
	Synthesize func(dir string, direct []model.PackageReference, framework string) (string, error)
	ParseLock  func(path string) (*LockFile, error)
}

// Resolve produces the transitive assembly set for direct under framework.
func (r *Resolver) Resolve(ctx context.Context, direct []model.PackageReference, framework string) (Set, error) {
	if set, err := r.resolveHighFidelity(ctx, direct, framework); err == nil {
		return set, nil
	}
	return r.resolveFallback(ctx, direct, framework)
}

func (r *Resolver) resolveHighFidelity(ctx context.Context, direct []model.PackageReference, framework string) (Set, error) {
	if r.Restorer == nil || r.Synthesize == nil || r.ParseLock == nil {
		return Set{}, errors.New("assets: high-fidelity path not configured")
	}

	tmpDir, err := os.MkdirTemp("", "sdkmigrate-restore-*")
	if err != nil {
		return Set{}, errors.Wrap(err, "assets: create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	projPath, err := r.Synthesize(tmpDir, direct, framework)
	if err != nil {
		return Set{}, errors.Wrap(err, "assets: synthesize minimal project")
	}

	lockPath, err := r.Restorer.Restore(ctx, projPath)
	if err != nil {
		return Set{}, err
	}

	lf, err := r.ParseLock(lockPath)
	if err != nil {
		return Set{}, errors.Wrap(err, "assets: parse lock file")
	}

	libs, ok := lf.Targets[framework]
	if !ok {
		return Set{}, errors.Errorf("assets: lock file has no target for %s", framework)
	}

	set := Set{}
	for key, lib := range libs {
		id := key
		if idx := strings.IndexByte(key, '/'); idx >= 0 {
			id = key[:idx]
		}
		for path := range lib.Compile {
			set.Compile = append(set.Compile, Assembly{PackageID: id, Path: path})
		}
		for path := range lib.Runtime {
			set.Runtime = append(set.Runtime, Assembly{PackageID: id, Path: path})
		}
	}
	return set, nil
}

func (r *Resolver) resolveFallback(ctx context.Context, direct []model.PackageReference, framework string) (Set, error) {
	if r.Store == nil {
		return Set{IsPartial: true}, nil
	}

	set := Set{IsPartial: true}
	for _, pkg := range direct {
		groups, err := r.Store.FilesByFrameworkGroup(ctx, pkg.ID, pkg.Version)
		if err != nil {
			continue
		}
		group := bestFrameworkGroup(groups, framework)
		for _, path := range group {
			set.Compile = append(set.Compile, Assembly{PackageID: pkg.ID, Path: path})
			set.Runtime = append(set.Runtime, Assembly{PackageID: pkg.ID, Path: path})
		}
	}
	return set, nil
}

// bestFrameworkGroup picks the exact-match group if one exists, otherwise
// the highest-version compatible group, otherwise nil — "exact >
// highest-version-compatible > nothing" per spec §4.3.
func bestFrameworkGroup(groups map[string][]string, framework string) []string {
	if exact, ok := groups[framework]; ok {
		return exact
	}

	var bestKey string
	for key := range groups {
		if !compatible(key, framework) {
			continue
		}
		if bestKey == "" || higherVersion(key, bestKey) {
			bestKey = key
		}
	}
	if bestKey == "" {
		return nil
	}
	return groups[bestKey]
}

// compatible reports whether a package's shipped framework folder (e.g.
// "netstandard2.0") can serve a project targeting framework. This module
// only needs same-family compatibility; cross-family compatibility (e.g.
// net472 consuming netstandard2.0) is intentionally conservative here and
// left to the richer per-kind handlers out of scope for this core.
func compatible(shipped, framework string) bool {
	return strings.EqualFold(shipped, framework) || strings.HasPrefix(strings.ToLower(framework), strings.ToLower(shipped))
}

func higherVersion(a, b string) bool {
	return extractVersionSuffix(a) > extractVersionSuffix(b)
}

func extractVersionSuffix(moniker string) string {
	for i, r := range moniker {
		if r >= '0' && r <= '9' {
			return moniker[i:]
		}
	}
	return ""
}
