package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sdkmigrate/migrator/internal/identity"
)

// IndexClient is the remote package index surface the Online resolver
// delegates to. Implementations talk to whatever the deployment's package
// feed is; this core only depends on the narrow interface.
type IndexClient struct {
	// AllVersions returns every published version of id, or an error on
	// transport failure.
	AllVersions func(ctx context.Context, id string) ([]string, error)
	// Dependencies returns the dependency edges for (id, version) under
	// framework.
	Dependencies func(ctx context.Context, id, version, framework string) ([]DependencyEdge, error)
	// AssembliesOf returns the assembly identities a (id, version) package
	// publishes, used for both ResolveAssembly and ContainsAssembly.
	AssembliesOf func(ctx context.Context, id, version string) ([]identity.Assembly, error)
	// SearchByAssembly returns candidate package ids that might publish an
	// assembly of this name (a search-index query, not an exact match).
	SearchByAssembly func(ctx context.Context, assemblyName string) ([]string, error)
}

// Online resolves via a remote package index. Per spec §4.2, transport
// failures degrade to "not found" plus a logged warning; they are never
// fatal to the surrounding migration.
type Online struct {
	client  IndexClient
	log     *logrus.Logger
	timeout time.Duration
}

// NewOnline returns an Online resolver. timeout bounds each individual
// network call (spec §5: 20s per attempt, one retry, enforced by the
// caller supplying a context with that deadline); a zero timeout disables
// the resolver-level bound and relies solely on the caller's context.
func NewOnline(client IndexClient, log *logrus.Logger, timeout time.Duration) *Online {
	return &Online{client: client, log: log, timeout: timeout}
}

func (r *Online) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Online) warn(op, id string, err error) {
	r.log.WithFields(logrus.Fields{"op": op, "id": id, "error": err}).
		Warn("resolver: network call degraded to no-resolution")
}

// unconfigured reports whether the client function op is nil, warning and
// degrading to "not found" instead of panicking — the same treatment a
// transport failure gets, since an embedding caller may not have wired a
// real IndexClient yet (spec §1 external-collaborator boundary).
func (r *Online) unconfigured(op, id string, present bool) bool {
	if present {
		return false
	}
	r.warn(op, id, errors.New("index client function not configured"))
	return true
}

func (r *Online) ResolveLatest(ctx context.Context, id string, includePrerelease bool) (string, bool) {
	if r.unconfigured("ResolveLatest", id, r.client.AllVersions != nil) {
		return "", false
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	versions, err := r.client.AllVersions(ctx, id)
	if err != nil {
		r.warn("ResolveLatest", id, err)
		return "", false
	}
	return latestFromVersions(versions, includePrerelease)
}

func (r *Online) ResolveAssembly(ctx context.Context, asm identity.Assembly, framework string) (Resolution, bool) {
	if r.unconfigured("ResolveAssembly", asm.Name, r.client.SearchByAssembly != nil) {
		return Resolution{}, false
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ids, err := r.client.SearchByAssembly(ctx, asm.Name)
	if err != nil {
		r.warn("ResolveAssembly", asm.Name, err)
		return Resolution{}, false
	}
	for _, id := range ids {
		version, ok := r.ResolveLatest(ctx, id, false)
		if !ok {
			continue
		}
		if r.client.AssembliesOf == nil {
			continue
		}
		assemblies, err := r.client.AssembliesOf(ctx, id, version)
		if err != nil {
			r.warn("ResolveAssembly.AssembliesOf", id, err)
			continue
		}
		for _, a := range assemblies {
			if a.Equal(asm) || (a.Name != "" && identity.TokenCompatible(a.Token, asm.Token) && strings.EqualFold(a.Name, asm.Name)) {
				return Resolution{ID: id, Version: version, Assemblies: assemblies}, true
			}
		}
	}
	return Resolution{}, false
}

func (r *Online) GetDependencies(ctx context.Context, id, version, framework string) []DependencyEdge {
	if r.unconfigured("GetDependencies", id, r.client.Dependencies != nil) {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	edges, err := r.client.Dependencies(ctx, id, version, framework)
	if err != nil {
		r.warn("GetDependencies", id, err)
		return nil
	}
	return edges
}

func (r *Online) ContainsAssembly(ctx context.Context, id, version string, asm identity.Assembly) bool {
	if r.unconfigured("ContainsAssembly", id, r.client.AssembliesOf != nil) {
		return false
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	assemblies, err := r.client.AssembliesOf(ctx, id, version)
	if err != nil {
		r.warn("ContainsAssembly", id, err)
		return false
	}
	for _, a := range assemblies {
		if strings.EqualFold(a.Name, asm.Name) && identity.TokenCompatible(a.Token, asm.Token) {
			return true
		}
	}
	return false
}

