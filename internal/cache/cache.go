// Package cache implements the Package Version Cache (C1): thread-safe,
// process-lifetime memoization of id->versions, assembly->package
// resolution, and package->dependencies, each with hit/miss counters.
// Nothing is evicted; Clear exists for test isolation only.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/sdkmigrate/migrator/internal/identity"
)

// LatestKey addresses the (id, framework?, include-prerelease) -> version map.
type LatestKey struct {
	ID                string
	Framework         string
	IncludePrerelease bool
}

// AllVersionsKey addresses the (id, include-prerelease) -> all versions map.
type AllVersionsKey struct {
	ID                string
	IncludePrerelease bool
}

// AssemblyKey addresses the (assembly-name, framework?) -> resolution map.
type AssemblyKey struct {
	Name      string
	Framework string
}

// DependenciesKey addresses the (id, version, framework?) -> dependency set map.
type DependenciesKey struct {
	ID        string
	Version   string
	Framework string
}

// Resolution is a cached assembly->package lookup outcome.
type Resolution struct {
	PackageID string
	Version   string
	Assembly  identity.Assembly
	Found     bool
}

// DependencyEdge is one (package-id, version-range) edge under a framework.
type DependencyEdge struct {
	ID    string
	Range string
}

// counters tracks hit/miss statistics for a single map.
type counters struct {
	hits   int64
	misses int64
}

func (c *counters) hit()  { atomic.AddInt64(&c.hits, 1) }
func (c *counters) miss() { atomic.AddInt64(&c.misses, 1) }

// MapStats is a point-in-time snapshot of one map's hit/miss counts.
type MapStats struct {
	Hits   int64
	Misses int64
}

// Stats is the full cache statistics snapshot, one entry per map, exposed
// for the orchestrator's final report and the `analyze --report` surface.
type Stats struct {
	Latest       MapStats
	AllVersions  MapStats
	Assembly     MapStats
	Dependencies MapStats
}

// Cache is the concurrent-safe Package Version Cache. The zero value is not
// usable; construct with New.
type Cache struct {
	mu sync.RWMutex

	latest       map[LatestKey]string
	allVersions  map[AllVersionsKey][]string
	assembly     map[AssemblyKey]Resolution
	dependencies map[DependenciesKey][]DependencyEdge

	latestStats       counters
	allVersionsStats  counters
	assemblyStats     counters
	dependenciesStats counters
}

// New returns an empty Cache ready for concurrent use.
func New() *Cache {
	return &Cache{
		latest:       make(map[LatestKey]string),
		allVersions:  make(map[AllVersionsKey][]string),
		assembly:     make(map[AssemblyKey]Resolution),
		dependencies: make(map[DependenciesKey][]DependencyEdge),
	}
}

// GetLatest returns the cached latest version for key, if present.
func (c *Cache) GetLatest(key LatestKey) (string, bool) {
	c.mu.RLock()
	v, ok := c.latest[key]
	c.mu.RUnlock()
	if ok {
		c.latestStats.hit()
	} else {
		c.latestStats.miss()
	}
	return v, ok
}

// SetLatest upserts the latest version for key. Last-write-wins on
// concurrent writers, matching spec §5's shared-state discipline.
func (c *Cache) SetLatest(key LatestKey, version string) {
	c.mu.Lock()
	c.latest[key] = version
	c.mu.Unlock()
}

// GetAllVersions returns the cached version list for key, if present.
func (c *Cache) GetAllVersions(key AllVersionsKey) ([]string, bool) {
	c.mu.RLock()
	v, ok := c.allVersions[key]
	c.mu.RUnlock()
	if ok {
		c.allVersionsStats.hit()
	} else {
		c.allVersionsStats.miss()
	}
	return v, ok
}

// SetAllVersions upserts the version list for key.
func (c *Cache) SetAllVersions(key AllVersionsKey, versions []string) {
	c.mu.Lock()
	c.allVersions[key] = versions
	c.mu.Unlock()
}

// GetAssembly returns the cached assembly->package resolution for key.
func (c *Cache) GetAssembly(key AssemblyKey) (Resolution, bool) {
	c.mu.RLock()
	v, ok := c.assembly[key]
	c.mu.RUnlock()
	if ok {
		c.assemblyStats.hit()
	} else {
		c.assemblyStats.miss()
	}
	return v, ok
}

// SetAssembly upserts the resolution for key.
func (c *Cache) SetAssembly(key AssemblyKey, r Resolution) {
	c.mu.Lock()
	c.assembly[key] = r
	c.mu.Unlock()
}

// GetDependencies returns the cached dependency edge set for key.
func (c *Cache) GetDependencies(key DependenciesKey) ([]DependencyEdge, bool) {
	c.mu.RLock()
	v, ok := c.dependencies[key]
	c.mu.RUnlock()
	if ok {
		c.dependenciesStats.hit()
	} else {
		c.dependenciesStats.miss()
	}
	return v, ok
}

// SetDependencies upserts the dependency edge set for key.
func (c *Cache) SetDependencies(key DependenciesKey, edges []DependencyEdge) {
	c.mu.Lock()
	c.dependencies[key] = edges
	c.mu.Unlock()
}

// Stats returns a snapshot of hit/miss counters across all four maps.
func (c *Cache) Stats() Stats {
	return Stats{
		Latest:       MapStats{Hits: atomic.LoadInt64(&c.latestStats.hits), Misses: atomic.LoadInt64(&c.latestStats.misses)},
		AllVersions:  MapStats{Hits: atomic.LoadInt64(&c.allVersionsStats.hits), Misses: atomic.LoadInt64(&c.allVersionsStats.misses)},
		Assembly:     MapStats{Hits: atomic.LoadInt64(&c.assemblyStats.hits), Misses: atomic.LoadInt64(&c.assemblyStats.misses)},
		Dependencies: MapStats{Hits: atomic.LoadInt64(&c.dependenciesStats.hits), Misses: atomic.LoadInt64(&c.dependenciesStats.misses)},
	}
}

// Clear empties every map and resets counters. Intended for test isolation
// only; production runs never evict.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = make(map[LatestKey]string)
	c.allVersions = make(map[AllVersionsKey][]string)
	c.assembly = make(map[AssemblyKey]Resolution)
	c.dependencies = make(map[DependenciesKey][]DependencyEdge)
	atomic.StoreInt64(&c.latestStats.hits, 0)
	atomic.StoreInt64(&c.latestStats.misses, 0)
	atomic.StoreInt64(&c.allVersionsStats.hits, 0)
	atomic.StoreInt64(&c.allVersionsStats.misses, 0)
	atomic.StoreInt64(&c.assemblyStats.hits, 0)
	atomic.StoreInt64(&c.assemblyStats.misses, 0)
	atomic.StoreInt64(&c.dependenciesStats.hits, 0)
	atomic.StoreInt64(&c.dependenciesStats.misses, 0)
}
