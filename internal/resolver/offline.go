package resolver

import (
	"context"
	"strings"

	"github.com/sdkmigrate/migrator/internal/identity"
)

// Fixture is one bundled id->assembly-set entry in the offline table.
// Assemblies is keyed by the fixed framework-pattern grammar
// ("*", exact moniker, "netframework", "netcoreapp", "net"); the entry
// actually used for a given target framework is the most specific matching
// pattern (longest/most-specific wins, per spec §4.2).
type Fixture struct {
	ID           string
	Versions     []string
	Assemblies   map[string][]identity.Assembly
	Dependencies map[string][]DependencyEdge
}

// Offline resolves against a bundled, fixed id->(framework-pattern->assembly-set)
// table rather than a remote index. It never performs network I/O.
type Offline struct {
	byID        map[string]Fixture
	byAssembly  map[string][]string // lowercase assembly name -> candidate package ids
}

// NewOffline builds an Offline resolver from a fixture table, indexing it
// by assembly name for ResolveAssembly lookups.
func NewOffline(fixtures []Fixture) *Offline {
	o := &Offline{
		byID:       make(map[string]Fixture, len(fixtures)),
		byAssembly: make(map[string][]string),
	}
	for _, f := range fixtures {
		o.byID[strings.ToLower(f.ID)] = f
		seen := map[string]bool{}
		for _, asms := range f.Assemblies {
			for _, a := range asms {
				key := strings.ToLower(a.Name)
				if !seen[key] {
					seen[key] = true
					o.byAssembly[key] = append(o.byAssembly[key], f.ID)
				}
			}
		}
	}
	return o
}

func (o *Offline) ResolveLatest(_ context.Context, id string, includePrerelease bool) (string, bool) {
	f, ok := o.byID[strings.ToLower(id)]
	if !ok {
		return "", false
	}
	return latestFromVersions(f.Versions, includePrerelease)
}

// ResolveAssembly finds the offline package id that publishes an assembly
// matching asm.Name under the given framework, preferring the most
// specific matching pattern's assembly set.
func (o *Offline) ResolveAssembly(ctx context.Context, asm identity.Assembly, framework string) (Resolution, bool) {
	candidates := o.byAssembly[strings.ToLower(asm.Name)]
	for _, id := range candidates {
		f := o.byID[strings.ToLower(id)]
		pattern := bestPattern(patternsOf(f.Assemblies), framework)
		if pattern == "" {
			continue
		}
		for _, a := range f.Assemblies[pattern] {
			if strings.EqualFold(a.Name, asm.Name) {
				version, ok := o.ResolveLatest(ctx, f.ID, false)
				if !ok {
					continue
				}
				return Resolution{ID: f.ID, Version: version, Assemblies: f.Assemblies[pattern]}, true
			}
		}
	}
	return Resolution{}, false
}

func (o *Offline) GetDependencies(_ context.Context, id, _, framework string) []DependencyEdge {
	f, ok := o.byID[strings.ToLower(id)]
	if !ok {
		return nil
	}
	pattern := bestPattern(patternsOf(f.Dependencies), framework)
	if pattern == "" {
		return nil
	}
	return f.Dependencies[pattern]
}

// ContainsAssembly implements the must-validate-token contract: true only
// if the package publishes an assembly whose name matches case-insensitively
// and whose token is either compatible with the probe or the probe has none.
func (o *Offline) ContainsAssembly(_ context.Context, id, _ string, asm identity.Assembly) bool {
	f, ok := o.byID[strings.ToLower(id)]
	if !ok {
		return false
	}
	for _, asms := range f.Assemblies {
		for _, a := range asms {
			if strings.EqualFold(a.Name, asm.Name) && identity.TokenCompatible(a.Token, asm.Token) {
				return true
			}
		}
	}
	return false
}

func patternsOf[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// DefaultFixtures is the bundled offline table used when --offline is set
// and no richer index is reachable. It covers the packages exercised by the
// spec's end-to-end scenarios; production deployments can supply a larger
// table built the same way.
func DefaultFixtures() []Fixture {
	return []Fixture{
		{
			ID:       "Newtonsoft.Json",
			Versions: []string{"12.0.3", "13.0.1", "13.0.3"},
			Assemblies: map[string][]identity.Assembly{
				"*": {{Name: "Newtonsoft.Json", Token: "30ad4fe6b2a6aeed"}},
			},
		},
		{
			ID:       "Microsoft.AspNetCore.Http.Abstractions",
			Versions: []string{"2.2.0"},
			Assemblies: map[string][]identity.Assembly{
				"net": {{Name: "Microsoft.AspNetCore.Http.Abstractions"}},
			},
		},
		{
			ID:       "System.ValueTuple",
			Versions: []string{"4.5.0"},
			Assemblies: map[string][]identity.Assembly{
				"netframework": {{Name: "System.ValueTuple", Token: "cc7b13ffcd2ddd51"}},
			},
		},
	}
}
