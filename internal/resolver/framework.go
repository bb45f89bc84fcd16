package resolver

import (
	"regexp"
	"strconv"
	"strings"
)

// family classifies a target framework moniker into one of the coarse
// groupings the offline fixture table's pattern grammar understands.
type family int

const (
	familyUnknown family = iota
	familyNetFramework
	familyNetCoreApp
	familyNet5Plus
	familyNetStandard
)

var (
	netFrameworkRe = regexp.MustCompile(`^net([2-9]|[1-9][0-9])$`)
	netCoreAppRe   = regexp.MustCompile(`^netcoreapp\d+\.\d+$`)
	net5PlusRe     = regexp.MustCompile(`^net(\d+)\.\d+$`)
	netStandardRe  = regexp.MustCompile(`^netstandard\d+\.\d+$`)
)

// classify determines which family a moniker like "net472", "netcoreapp3.1",
// "net8.0", or "netstandard2.1" belongs to.
//
// Open Question 2 from spec.md §9 is resolved here: netstandard monikers
// form their own family and are matched only by an exact pattern or the
// universal "*" wildcard — none of "netframework"/"netcoreapp"/"net" match
// netstandard*, since netstandard is a compatibility surface rather than a
// runtime, and silently folding it into "net5+" would misclassify packages
// that only ship a netstandard2.0 asset as net5.0+-native.
func classify(moniker string) family {
	m := strings.ToLower(moniker)
	switch {
	case netStandardRe.MatchString(m):
		return familyNetStandard
	case netCoreAppRe.MatchString(m):
		return familyNetCoreApp
	case netFrameworkRe.MatchString(m):
		return familyNetFramework
	default:
		if match := net5PlusRe.FindStringSubmatch(m); match != nil {
			if major, err := strconv.Atoi(match[1]); err == nil && major >= 5 {
				return familyNet5Plus
			}
		}
		return familyUnknown
	}
}

// matchesPattern reports whether moniker satisfies pattern under the fixed
// grammar: "*" matches anything; an exact moniker matches itself
// case-insensitively; "netframework", "netcoreapp", and "net" match their
// respective families (the last meaning "net5+").
func matchesPattern(pattern, moniker string) bool {
	p := strings.ToLower(pattern)
	m := strings.ToLower(moniker)
	switch p {
	case "*":
		return true
	case "netframework":
		return classify(m) == familyNetFramework
	case "netcoreapp":
		return classify(m) == familyNetCoreApp
	case "net":
		return classify(m) == familyNet5Plus
	default:
		return p == m
	}
}

// specificity ranks patterns for "most specific wins" ordering: an exact
// moniker outranks a family pattern, which outranks the universal wildcard.
func specificity(pattern string) int {
	switch strings.ToLower(pattern) {
	case "*":
		return 0
	case "netframework", "netcoreapp", "net":
		return 1
	default:
		return 2
	}
}

// bestPattern picks the most specific pattern in patterns that matches
// moniker, or "" if none do.
func bestPattern(patterns []string, moniker string) string {
	best := ""
	bestRank := -1
	for _, p := range patterns {
		if !matchesPattern(p, moniker) {
			continue
		}
		if r := specificity(p); r > bestRank {
			bestRank = r
			best = p
		}
	}
	return best
}
