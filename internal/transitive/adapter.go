package transitive

import (
	"context"

	"github.com/sdkmigrate/migrator/internal/resolver"
)

// ResolverGraph adapts a resolver.Resolver's GetDependencies (which
// returns version-range edges) into the plain id-list GraphProvider shape
// the walk needs.
type ResolverGraph struct {
	Resolver resolver.Resolver
}

// Dependencies implements GraphProvider.
func (g ResolverGraph) Dependencies(ctx context.Context, id, version, framework string) []string {
	edges := g.Resolver.GetDependencies(ctx, id, version, framework)
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}
