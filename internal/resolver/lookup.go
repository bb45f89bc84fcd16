package resolver

import (
	"context"
	"strings"

	"github.com/sdkmigrate/migrator/internal/semver"
)

// HasExactVersion reports whether the offline fixture for id lists version
// verbatim, used by the converter to prefer a reference's original version
// when the offline table actually carries it (spec §4.4 step 3).
func (o *Offline) HasExactVersion(id, version string) bool {
	f, ok := o.byID[strings.ToLower(id)]
	if !ok {
		return false
	}
	return semver.Contains(f.Versions, version)
}

// ResolveByID looks up a fixture directly by package id, used when a hint
// path or package-manifest entry already names the id and only the
// version/token still need validating.
func (o *Offline) ResolveByID(ctx context.Context, id string) (Resolution, bool) {
	f, ok := o.byID[strings.ToLower(id)]
	if !ok {
		return Resolution{}, false
	}
	version, ok := o.ResolveLatest(ctx, id, false)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{ID: f.ID, Version: version}, true
}
