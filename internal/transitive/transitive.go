// Package transitive implements the Transitive Detector (C5): reduces a
// flat direct package list to its minimal direct set by marking packages
// reachable only as a dependency of another input package.
package transitive

import (
	"context"
	"strings"

	"github.com/sdkmigrate/migrator/internal/model"
)

// GraphProvider supplies the full transitive dependency graph reachable
// from a package, under a target framework — the shape C3's Assets
// Resolver and the underlying package index both expose. Detector depends
// only on the dependency edges, not on assemblies, so it is a narrower
// contract than assets.Resolver.
type GraphProvider interface {
	// Dependencies returns the direct dependency ids of (id, version) under
	// framework. An empty/nil result with no error means "no known
	// dependencies", which offline mode treats as "nothing reachable".
	Dependencies(ctx context.Context, id, version, framework string) []string
}

// Detector is the C5 implementation.
type Detector struct {
	Graph GraphProvider
}

// Reduce marks each package in direct as transitive when it is reachable
// via at least one dependency path that does not start with itself, and
// returns the (possibly warned) input list with IsTransitive populated.
// A direct package is never marked transitive by virtue of depending on
// itself, and a package that is both directly requested and transitively
// reachable stays direct (spec §4.5 tie-break).
func (d *Detector) Reduce(ctx context.Context, direct []model.PackageReference, framework string) ([]model.PackageReference, []string) {
	var warnings []string
	if d.Graph == nil || len(direct) == 0 {
		return direct, warnings
	}

	reachableFrom := make(map[string]map[string]bool, len(direct)) // root id -> set of ids reachable from it (excluding root)
	allReachable := map[string]bool{}

	for _, p := range direct {
		rootKey := strings.ToLower(p.ID)
		visited := map[string]bool{rootKey: true}
		reached := map[string]bool{}
		d.walk(ctx, p.ID, p.Version, framework, visited, reached)
		reachableFrom[rootKey] = reached
		for k := range reached {
			allReachable[k] = true
		}
	}

	out := make([]model.PackageReference, len(direct))
	for i, p := range direct {
		out[i] = p
		key := strings.ToLower(p.ID)

		if !allReachable[key] {
			// Present in input but unreachable at all under offline/partial
			// data: keep as-is with a warning (spec §4.5).
			warnings = append(warnings, "package "+p.ID+" is not reachable in the dependency graph; kept as direct")
			continue
		}

		// Transitive iff reached by some OTHER root's walk, not merely by
		// its own (a direct package never marks itself transitive).
		if reachableByAnyOtherRoot(reachableFrom, key) {
			out[i].IsTransitive = true
		}
	}

	return out, warnings
}

func reachableByAnyOtherRoot(reachableFrom map[string]map[string]bool, key string) bool {
	for root, reached := range reachableFrom {
		if root == key {
			continue
		}
		if reached[key] {
			return true
		}
	}
	return false
}

func (d *Detector) walk(ctx context.Context, id, version, framework string, visited, reached map[string]bool) {
	deps := d.Graph.Dependencies(ctx, id, version, framework)
	for _, depID := range deps {
		key := strings.ToLower(depID)
		if visited[key] {
			continue
		}
		visited[key] = true
		reached[key] = true
		d.walk(ctx, depID, "", framework, visited, reached)
	}
}
