// Package convert implements the Reference Converter (C4): per legacy
// reference, decide between a package reference and a preserved
// unconverted reference, enforcing identity/version fidelity.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sdkmigrate/migrator/internal/classify"
	"github.com/sdkmigrate/migrator/internal/identity"
	"github.com/sdkmigrate/migrator/internal/legacyproj"
	"github.com/sdkmigrate/migrator/internal/model"
	"github.com/sdkmigrate/migrator/internal/resolver"
)

// IntrinsicChecker reports whether an assembly name is a known
// framework-intrinsic for framework, owned by the classifier (C6).
type IntrinsicChecker func(assemblyName, framework string) bool

// Converter is the C4 implementation.
type Converter struct {
	Offline   *resolver.Offline
	General   resolver.Resolver
	Intrinsic IntrinsicChecker
	Log       *logrus.Logger
}

// New builds a Converter wired to the C6 static tables for framework
// intrinsics, the default wiring used outside of tests.
func New(offline *resolver.Offline, general resolver.Resolver, log *logrus.Logger) *Converter {
	return &Converter{
		Offline:   offline,
		General:   general,
		Intrinsic: classify.IsFrameworkIntrinsic,
		Log:       log,
	}
}

// Result bundles everything Convert produces for one project: the
// converted package references, preserved unconverted references, and
// warnings raised along the way (spec §4.4: "returns (converted package
// references, unconverted references, warnings) as one result").
type Result struct {
	Packages    []model.PackageReference
	Unconverted []model.UnconvertedReference
	Warnings    []string
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

var hintPathPattern = regexp.MustCompile(`(?i)packages[/\\]([A-Za-z0-9_.\-]+?)\.(\d[\d.]*(?:-[A-Za-z0-9.\-]+)?)[/\\]`)

// extractFromHintPath parses the conventional "...packages\Id.Version\..."
// shape out of a legacy hint path. Returns ok=false if it doesn't match.
func extractFromHintPath(hintPath string) (id, version string, ok bool) {
	if hintPath == "" {
		return "", "", false
	}
	m := hintPathPattern.FindStringSubmatch(filepath.ToSlash(hintPath))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Convert runs the full decision procedure over every <Reference> item,
// having already merged in the project's package-manifest entries (spec
// §4.7 step 3: "call C4 on the legacy project with the packages already
// parsed from the package-manifest file merged in").
func (c *Converter) Convert(ctx context.Context, refs []legacyproj.Item, manifest []legacyproj.ManifestPackage, framework string) Result {
	var res Result
	seen := map[string]bool{}

	// Package-manifest entries are the highest-priority source: first-wins
	// by case-insensitive id (spec §3 Package Reference invariant).
	for _, m := range manifest {
		key := strings.ToLower(m.ID)
		if seen[key] {
			continue
		}
		seen[key] = true
		meta := map[string]string{}
		if m.DevelopmentDependency {
			meta["PrivateAssets"] = "all"
		}
		res.Packages = append(res.Packages, model.PackageReference{
			ID:              m.ID,
			Version:         m.Version,
			TargetFramework: framework,
			Metadata:        meta,
		})
	}

	for _, ref := range refs {
		c.convertOne(ctx, ref, framework, seen, &res)
	}

	return res
}

func (c *Converter) convertOne(ctx context.Context, ref legacyproj.Item, framework string, seen map[string]bool, res *Result) {
	asm, err := identity.Parse(ref.Include)
	if err != nil {
		res.warn("reference %q: %v", ref.Include, err)
		res.Unconverted = append(res.Unconverted, model.UnconvertedReference{
			HintPath: ref.Meta("HintPath"),
			Metadata: ref.Metadata,
			Reason:   "unparseable reference identity",
		})
		return
	}

	hintPath := ref.Meta("HintPath")
	private := strings.EqualFold(ref.Meta("Private"), "true")

	// Step 2: framework-intrinsic, no hint path -> drop silently.
	if hintPath == "" && c.Intrinsic != nil && c.Intrinsic(asm.Name, framework) {
		return
	}

	// Hint-path reference: the path itself often names the package id and
	// version the legacy tool resolved it to.
	if hintID, hintVersion, ok := extractFromHintPath(hintPath); ok {
		key := strings.ToLower(hintID)
		if seen[key] {
			return
		}
		if c.resolveKnownID(ctx, hintID, hintVersion, asm, hintPath, framework, private, seen, res) {
			return
		}
	}

	// Step 3: framework-aware offline table by assembly identity.
	if c.Offline != nil {
		if candidate, ok := c.Offline.ResolveAssembly(ctx, asm, framework); ok {
			if c.emitIfValid(ctx, c.Offline, candidate.ID, candidate.Version, asm, hintPath, framework, private, seen, res) {
				return
			}
		}
	}

	// Step 4: delegate to the general resolver.
	if c.General != nil {
		if candidate, ok := c.General.ResolveAssembly(ctx, asm, framework); ok {
			if c.emitIfValid(ctx, c.General, candidate.ID, candidate.Version, asm, hintPath, framework, private, seen, res) {
				return
			}
		}
	}

	// Step 5: nothing resolved.
	res.Unconverted = append(res.Unconverted, model.UnconvertedReference{
		Assembly: asm,
		HintPath: hintPath,
		Private:  private,
		Metadata: ref.Metadata,
		Reason:   "no known package",
	})
}

// resolveKnownID handles an id already named by a hint path or otherwise
// known, validating its token and preferring the reference's own version
// when the offline table actually carries it.
func (c *Converter) resolveKnownID(ctx context.Context, id, hintVersion string, asm identity.Assembly, hintPath, framework string, private bool, seen map[string]bool, res *Result) bool {
	if c.Offline == nil {
		return false
	}
	resolved, ok := c.Offline.ResolveByID(ctx, id)
	if !ok {
		return false
	}
	return c.emitIfValid(ctx, c.Offline, resolved.ID, firstNonEmpty(hintVersion, resolved.Version), asm, hintPath, framework, private, seen, res)
}

type tokenValidator interface {
	ContainsAssembly(ctx context.Context, id, version string, asm identity.Assembly) bool
	HasExactVersion(id, version string) bool
}

// emitIfValid validates the candidate package's token against asm, and on
// success emits a package reference (preferring the reference's exact
// version when the source actually publishes it). On token mismatch it
// emits an unconverted reference and warns, per spec §4.4 step 3/4 — and
// returns true either way, since the reference's fate is now decided.
func (c *Converter) emitIfValid(ctx context.Context, src interface{}, id, version string, asm identity.Assembly, hintPath, framework string, private bool, seen map[string]bool, res *Result) bool {
	validator, _ := src.(tokenValidator)

	var contains bool
	if validator != nil {
		contains = validator.ContainsAssembly(ctx, id, version, asm)
	} else if gr, ok := src.(resolver.Resolver); ok {
		contains = gr.ContainsAssembly(ctx, id, version, asm)
	}

	if !contains {
		res.warn("reference %s: public-key-token mismatch against package %s %s", asm, id, version)
		res.Unconverted = append(res.Unconverted, model.UnconvertedReference{
			Assembly: asm,
			HintPath: hintPath,
			Private:  private,
			Reason:   "public-key-token mismatch",
		})
		return true
	}

	key := strings.ToLower(id)
	chosenVersion := version
	if asm.Version != "" {
		if validator != nil && validator.HasExactVersion(id, asm.Version) {
			chosenVersion = asm.Version
		} else if asm.Version != version {
			res.warn("reference %s: requested version %s shifted to %s", asm, asm.Version, version)
		}
	}

	if seen[key] {
		// First-wins dedup: the earlier converted entry stands; this one
		// is discarded, but the token-mismatch warning above (if any) was
		// already recorded and must not be suppressed.
		return true
	}
	seen[key] = true

	meta := map[string]string{}
	if private {
		meta["PrivateAssets"] = "all"
	}
	res.Packages = append(res.Packages, model.PackageReference{
		ID:              id,
		Version:         chosenVersion,
		TargetFramework: framework,
		Metadata:        meta,
	})
	return true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
