// Package semver wraps Masterminds/semver/v3 with the version/range
// semantics legacy package references use: precise versions, the wildcard
// "*", and NuGet-style ranges.
package semver

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Parse parses a precise version string, four-part legacy versions included
// (the fourth component is dropped, matching assembly version semantics).
func Parse(v string) (*semver.Version, error) {
	parts := strings.Split(v, ".")
	if len(parts) > 3 {
		v = strings.Join(parts[:3], ".")
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return nil, errors.Wrapf(err, "semver: parse %q", v)
	}
	return sv, nil
}

// LatestStable returns the highest non-prerelease version in versions, or
// the highest overall if includePrerelease is true. Returns nil if versions
// is empty or none qualify.
func LatestStable(versions []string, includePrerelease bool) *semver.Version {
	var best *semver.Version
	for _, raw := range versions {
		sv, err := Parse(raw)
		if err != nil {
			continue
		}
		if sv.Prerelease() != "" && !includePrerelease {
			continue
		}
		if best == nil || sv.GreaterThan(best) {
			best = sv
		}
	}
	return best
}

// Satisfies reports whether version matches a requested constraint, which
// may be "*" (anything), a precise version, or a range expression
// understood by Masterminds/semver.
func Satisfies(version, constraint string) bool {
	if constraint == "" || constraint == "*" {
		return true
	}
	sv, err := Parse(version)
	if err != nil {
		return false
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		// Not a range; fall back to exact-string comparison against a
		// precise constraint version.
		cv, err := Parse(constraint)
		if err != nil {
			return false
		}
		return sv.Equal(cv)
	}
	return c.Check(sv)
}

// Contains reports whether the exact version string appears verbatim (by
// normalized semver equality) among versions.
func Contains(versions []string, version string) bool {
	target, err := Parse(version)
	if err != nil {
		return false
	}
	for _, raw := range versions {
		sv, err := Parse(raw)
		if err != nil {
			continue
		}
		if sv.Equal(target) {
			return true
		}
	}
	return false
}
