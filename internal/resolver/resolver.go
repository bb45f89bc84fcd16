// Package resolver implements the Package Resolver (C2): canonical package
// metadata lookup for a package id or an assembly identity, against either
// a remote package index (online) or a bundled fixed table (offline).
package resolver

import (
	"context"

	"github.com/sdkmigrate/migrator/internal/cache"
	"github.com/sdkmigrate/migrator/internal/identity"
	"github.com/sdkmigrate/migrator/internal/semver"
)

// Resolution is the outcome of resolving an assembly or package id:
// canonical id, resolved version, and the assembly identities the package
// publishes (for token validation).
type Resolution struct {
	ID         string
	Version    string
	Assemblies []identity.Assembly
}

// DependencyEdge is one (package-id, version-range) edge under a framework,
// mirroring spec.md §3's Dependency Edge.
type DependencyEdge struct {
	ID    string
	Range string
}

// Resolver is the C2 contract. Every method degrades gracefully: resolution
// failures return (zero value, false, nil) rather than an error when the
// failure is the expected "not found" case; only transport/parse failures
// return a non-nil error, and resolver.go's online implementation demotes
// even those to (false, nil) with a logged warning, per spec §4.2.
type Resolver interface {
	ResolveLatest(ctx context.Context, id string, includePrerelease bool) (string, bool)
	ResolveAssembly(ctx context.Context, asm identity.Assembly, framework string) (Resolution, bool)
	GetDependencies(ctx context.Context, id, version, framework string) []DependencyEdge
	ContainsAssembly(ctx context.Context, id, version string, asm identity.Assembly) bool
}

// Cached wraps any Resolver with the C1 Package Version Cache, memoizing
// every method for the process lifetime.
type Cached struct {
	inner Resolver
	cache *cache.Cache
}

// NewCached returns a Resolver that memoizes inner's results in c.
func NewCached(inner Resolver, c *cache.Cache) *Cached {
	return &Cached{inner: inner, cache: c}
}

func (r *Cached) ResolveLatest(ctx context.Context, id string, includePrerelease bool) (string, bool) {
	key := cache.LatestKey{ID: id, IncludePrerelease: includePrerelease}
	if v, ok := r.cache.GetLatest(key); ok {
		return v, v != ""
	}
	v, ok := r.inner.ResolveLatest(ctx, id, includePrerelease)
	if ok {
		r.cache.SetLatest(key, v)
	} else {
		r.cache.SetLatest(key, "")
	}
	return v, ok
}

func (r *Cached) ResolveAssembly(ctx context.Context, asm identity.Assembly, framework string) (Resolution, bool) {
	key := cache.AssemblyKey{Name: asm.Name, Framework: framework}
	if cached, ok := r.cache.GetAssembly(key); ok {
		if !cached.Found {
			return Resolution{}, false
		}
		return Resolution{ID: cached.PackageID, Version: cached.Version}, true
	}
	res, ok := r.inner.ResolveAssembly(ctx, asm, framework)
	r.cache.SetAssembly(key, cache.Resolution{PackageID: res.ID, Version: res.Version, Assembly: asm, Found: ok})
	return res, ok
}

func (r *Cached) GetDependencies(ctx context.Context, id, version, framework string) []DependencyEdge {
	key := cache.DependenciesKey{ID: id, Version: version, Framework: framework}
	if edges, ok := r.cache.GetDependencies(key); ok {
		return fromCacheEdges(edges)
	}
	deps := r.inner.GetDependencies(ctx, id, version, framework)
	r.cache.SetDependencies(key, toCacheEdges(deps))
	return deps
}

func (r *Cached) ContainsAssembly(ctx context.Context, id, version string, asm identity.Assembly) bool {
	return r.inner.ContainsAssembly(ctx, id, version, asm)
}

func toCacheEdges(edges []DependencyEdge) []cache.DependencyEdge {
	out := make([]cache.DependencyEdge, len(edges))
	for i, e := range edges {
		out[i] = cache.DependencyEdge{ID: e.ID, Range: e.Range}
	}
	return out
}

func fromCacheEdges(edges []cache.DependencyEdge) []DependencyEdge {
	out := make([]DependencyEdge, len(edges))
	for i, e := range edges {
		out[i] = DependencyEdge{ID: e.ID, Range: e.Range}
	}
	return out
}

// latestFromVersions picks the latest stable (or prerelease-inclusive)
// version out of a raw version list, sharing the semver package's ordering.
func latestFromVersions(versions []string, includePrerelease bool) (string, bool) {
	best := semver.LatestStable(versions, includePrerelease)
	if best == nil {
		return "", false
	}
	return best.Original(), true
}
