// Package synth implements the Project Synthesizer (C7): turns one parsed
// legacy project, plus the results of C4 (conversion) and C5 (transitive
// reduction), into a new SDK-style project XML document.
package synth

import (
	"context"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sdkmigrate/migrator/internal/assets"
	"github.com/sdkmigrate/migrator/internal/classify"
	"github.com/sdkmigrate/migrator/internal/convert"
	"github.com/sdkmigrate/migrator/internal/legacyproj"
	"github.com/sdkmigrate/migrator/internal/model"
	"github.com/sdkmigrate/migrator/internal/transitive"
)

// SDK attribute values the synthesized project may declare. Named
// generically: this core has no dependency on any one vendor's SDK
// catalog, only on the three shapes its capability detection distinguishes.
const (
	SdkDefault = "Sdk.Default"
	SdkDesktop = "Sdk.Desktop"
	SdkWeb     = "Sdk.Web"
)

// Options configures one Synthesize call.
type Options struct {
	// DefaultFramework is used when the legacy project declares no
	// target-framework property at all.
	DefaultFramework string
}

// Synthesizer is the C7 implementation, composed from C4 and C5.
type Synthesizer struct {
	Converter *convert.Converter
	Detector  *transitive.Detector
	// Assets is the C3 collaborator, used after conversion to sanity-check
	// that the resolved package set actually covers the assemblies it
	// claims to (spec §4.3/§4.7): optional, since a caller may not have a
	// restore tool or archive store available.
	Assets  *assets.Resolver
	Options Options
}

// New wires a Synthesizer from its two collaborators.
func New(converter *convert.Converter, detector *transitive.Detector, opts Options) *Synthesizer {
	return &Synthesizer{Converter: converter, Detector: detector, Options: opts}
}

// outputProject mirrors the new SDK-style project document shape (spec §6).
type outputProject struct {
	XMLName       xml.Name          `xml:"Project"`
	Sdk           string            `xml:"Sdk,attr"`
	PropertyGroup *outputProperties `xml:"PropertyGroup,omitempty"`
	ItemGroups    []outputItemGroup `xml:"ItemGroup,omitempty"`
	Imports       []outputImport    `xml:"Import,omitempty"`
	Targets       []outputTarget    `xml:"Target,omitempty"`
}

type outputProperties struct {
	TargetFramework string `xml:"TargetFramework,omitempty"`
	OutputType      string `xml:"OutputType,omitempty"`
	RootNamespace   string `xml:"RootNamespace,omitempty"`
	AssemblyName    string `xml:"AssemblyName,omitempty"`
	Extra           []outputProp `xml:",any"`
}

type outputProp struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type outputItemGroup struct {
	PackageReference []outputPackageRef `xml:"PackageReference,omitempty"`
	ProjectReference []outputItem       `xml:"ProjectReference,omitempty"`
	Reference        []outputItem       `xml:"Reference,omitempty"`
	Compile          []outputItem       `xml:"Compile,omitempty"`
	EmbeddedResource []outputItem       `xml:"EmbeddedResource,omitempty"`
	None             []outputItem       `xml:"None,omitempty"`
}

type outputPackageRef struct {
	Include       string `xml:"Include,attr"`
	Version       string `xml:"Version,attr,omitempty"`
	PrivateAssets string `xml:"PrivateAssets,attr,omitempty"`
}

type outputItem struct {
	Include string          `xml:"Include,attr,omitempty"`
	Update  string          `xml:"Update,attr,omitempty"`
	Remove  string          `xml:"Remove,attr,omitempty"`
	Attrs   []xml.Attr      `xml:",any,attr"`
}

type outputImport struct {
	Project string `xml:"Project,attr"`
}

// outputTarget carries a non-empty custom target through verbatim: its
// attributes (BeforeTargets, AfterTargets, DependsOnTargets, Condition,
// ...) and its body (tasks, item groups) copied from the parsed legacy
// Target unchanged.
type outputTarget struct {
	Name  string     `xml:"Name,attr"`
	Attrs []xml.Attr `xml:",any,attr"`
	Inner string     `xml:",innerxml"`
}

// tfmPattern matches the legacy TargetFrameworkVersion tag shape "vX.Y[.Z]".
var tfmPattern = regexp.MustCompile(`^[vV](\d+)\.(\d+)(?:\.(\d+))?$`)

// ConvertLegacyFrameworkVersion converts a legacy "vX.Y.Z" tag to a moniker
// "netX.Y[.Z]" (spec S4 scenario); returns ok=false for anything that
// doesn't match the legacy shape.
func ConvertLegacyFrameworkVersion(legacy string) (moniker string, ok bool) {
	m := tfmPattern.FindStringSubmatch(strings.TrimSpace(legacy))
	if m == nil {
		return "", false
	}
	if m[3] != "" {
		return fmt.Sprintf("net%s.%s.%s", m[1], m[2], m[3]), true
	}
	return fmt.Sprintf("net%s.%s", m[1], m[2]), true
}

// referenceMetadataAllowList is the narrow set of project-to-project
// reference metadata carried through verbatim (spec §4.7 step 4).
var referenceMetadataAllowList = []string{"Name", "Private", "SpecificVersion"}

// nonTrivialCompileMetadata marks a <Compile> item as needing an explicit
// entry even when it lives inside the project tree (spec §4.7 step 5b).
var nonTrivialCompileMetadata = []string{"Generator", "DependentUpon", "SubType", "Visible", "AutoGen", "DesignTime", "Link"}

// Synthesize runs steps 1-9 of spec §4.7 and returns the migration result
// and the rendered XML document.
func (s *Synthesizer) Synthesize(ctx context.Context, proj *legacyproj.ParsedLegacyProject, manifest []legacyproj.ManifestPackage) (*model.MigrationResult, string, error) {
	result := &model.MigrationResult{Success: true, InputPath: proj.Path}

	out := outputProject{Sdk: detectSDK(proj)}
	out.PropertyGroup = s.buildPropertyGroup(proj, result)

	pkgGroup := s.buildPackageGroup(ctx, proj, manifest, out.PropertyGroup.TargetFramework, result)
	if len(pkgGroup.PackageReference) > 0 {
		out.ItemGroups = append(out.ItemGroups, pkgGroup)
	}

	p2pGroup := buildProjectReferences(proj)
	if len(p2pGroup.ProjectReference) > 0 {
		out.ItemGroups = append(out.ItemGroups, p2pGroup)
	}

	compileGroup := buildCompileItems(proj, result)
	if len(compileGroup.Compile) > 0 {
		out.ItemGroups = append(out.ItemGroups, compileGroup)
	}

	resourceGroup := buildEmbeddedResourceItems(proj)
	if len(resourceGroup.EmbeddedResource) > 0 {
		out.ItemGroups = append(out.ItemGroups, resourceGroup)
	}

	contentGroup := buildContentItems(proj)
	if len(contentGroup.None) > 0 {
		out.ItemGroups = append(out.ItemGroups, contentGroup)
	}

	unconvertedGroup := buildUnconvertedItems(result.Unconverted)
	if len(unconvertedGroup.Reference) > 0 {
		out.ItemGroups = append(out.ItemGroups, unconvertedGroup)
	}

	out.Imports = buildImports(proj, result)
	out.Targets = buildTargets(proj, result)

	doc, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return result, "", fmt.Errorf("synth: render project xml: %w", err)
	}
	return result, xml.Header + string(doc), nil
}

func detectSDK(proj *legacyproj.ParsedLegacyProject) string {
	for _, it := range proj.ItemsOfKind("ApplicationDefinition") {
		_ = it
		return SdkDesktop
	}
	for _, it := range proj.ItemsOfKind("Page") {
		_ = it
		return SdkDesktop
	}
	for _, it := range proj.ItemsOfKind("Content") {
		if strings.EqualFold(filepath.Base(it.Include), "Web.config") {
			return SdkWeb
		}
	}
	if strings.Contains(proj.Properties["ProjectTypeGuids"], "349c5851-65df-11da-9384-00065b846f21") {
		return SdkWeb
	}
	return SdkDefault
}

func (s *Synthesizer) buildPropertyGroup(proj *legacyproj.ParsedLegacyProject, result *model.MigrationResult) *outputProperties {
	props := &outputProperties{}

	if legacy, ok := proj.Properties["TargetFrameworkVersion"]; ok && legacy != "" {
		if moniker, ok := ConvertLegacyFrameworkVersion(legacy); ok {
			props.TargetFramework = moniker
		} else {
			props.TargetFramework = s.Options.DefaultFramework
			result.AddWarning(fmt.Sprintf("unrecognized TargetFrameworkVersion %q; defaulted to %s", legacy, s.Options.DefaultFramework))
		}
	} else {
		props.TargetFramework = s.Options.DefaultFramework
	}

	if v := proj.Properties["OutputType"]; v != "" {
		props.OutputType = v
	}

	base := proj.BaseName()
	if v := proj.Properties["RootNamespace"]; v != "" && !strings.EqualFold(v, base) {
		props.RootNamespace = v
	}
	if v := proj.Properties["AssemblyName"]; v != "" && !strings.EqualFold(v, base) {
		props.AssemblyName = v
	}

	handled := map[string]bool{
		"TargetFrameworkVersion": true,
		"OutputType":             true,
		"RootNamespace":          true,
		"AssemblyName":           true,
	}

	for name, value := range proj.Properties {
		if handled[name] {
			continue
		}
		switch classify.ClassifyProperty(name) {
		case classify.ExtractShared:
			if value != "" {
				props.Extra = append(props.Extra, outputProp{XMLName: xml.Name{Local: name}, Value: value})
				if result.SharedProperties == nil {
					result.SharedProperties = map[string]string{}
				}
				result.SharedProperties[name] = value
			}
		case classify.Preserve:
			if value != "" {
				props.Extra = append(props.Extra, outputProp{XMLName: xml.Name{Local: name}, Value: value})
			}
		case classify.Remove:
			result.AddRemoved("property", name, "generated by legacy tooling, subsumed by SDK defaults")
		default:
			result.AddRemoved("property", name, "not part of the SDK-style property surface")
		}
	}

	return props
}

func (s *Synthesizer) buildPackageGroup(ctx context.Context, proj *legacyproj.ParsedLegacyProject, manifest []legacyproj.ManifestPackage, framework string, result *model.MigrationResult) outputItemGroup {
	mergedManifest := manifest
	for _, it := range proj.ItemsOfKind("PackageReference") {
		mergedManifest = append(mergedManifest, legacyproj.ManifestPackage{
			ID:      it.Include,
			Version: it.Meta("Version"),
		})
	}

	refs := proj.ItemsOfKind("Reference")
	var conv convert.Result
	if s.Converter != nil {
		conv = s.Converter.Convert(ctx, refs, mergedManifest, framework)
	}

	packages := conv.Packages
	var warnings []string
	if s.Detector != nil {
		packages, warnings = s.Detector.Reduce(ctx, packages, framework)
	}

	result.Unconverted = append(result.Unconverted, conv.Unconverted...)
	result.Warnings = append(result.Warnings, conv.Warnings...)
	result.Warnings = append(result.Warnings, warnings...)
	s.checkAssetCoverage(ctx, packages, framework, result)

	group := outputItemGroup{}
	for _, p := range packages {
		if p.IsTransitive {
			continue
		}
		result.Packages = append(result.Packages, p)
		group.PackageReference = append(group.PackageReference, outputPackageRef{
			Include:       p.ID,
			Version:       p.Version,
			PrivateAssets: p.Metadata["PrivateAssets"],
		})
	}
	return group
}

// checkAssetCoverage calls C3 against the direct (non-transitive) package
// set as a completeness sanity check: a restore-unavailable or partial
// result is surfaced as a warning rather than failing the migration, since
// C3's fallback path is itself best-effort (spec §4.3).
func (s *Synthesizer) checkAssetCoverage(ctx context.Context, packages []model.PackageReference, framework string, result *model.MigrationResult) {
	if s.Assets == nil {
		return
	}

	var direct []model.PackageReference
	for _, p := range packages {
		if !p.IsTransitive {
			direct = append(direct, p)
		}
	}
	if len(direct) == 0 {
		return
	}

	set, err := s.Assets.Resolve(ctx, direct, framework)
	if err != nil {
		result.AddWarning(fmt.Sprintf("asset resolution unavailable: %v", err))
		return
	}
	if set.IsPartial {
		result.AddWarning("assembly set resolved via fallback archive inspection; verify restored assemblies match expectations")
	}
}

func buildProjectReferences(proj *legacyproj.ParsedLegacyProject) outputItemGroup {
	group := outputItemGroup{}
	for _, it := range proj.ItemsOfKind("ProjectReference") {
		item := outputItem{Include: it.Include}
		for _, key := range referenceMetadataAllowList {
			if v := it.Meta(key); v != "" {
				item.Attrs = append(item.Attrs, xml.Attr{Name: xml.Name{Local: key}, Value: v})
			}
		}
		group.ProjectReference = append(group.ProjectReference, item)
	}
	return group
}

func buildCompileItems(proj *legacyproj.ParsedLegacyProject, result *model.MigrationResult) outputItemGroup {
	group := outputItemGroup{}
	for _, it := range proj.ItemsOfKind("Compile") {
		if it.IsRemoval {
			group.Compile = append(group.Compile, outputItem{Remove: it.Include})
			continue
		}
		if isOutsideProjectTree(it.Include) || hasAnyMetadata(it, nonTrivialCompileMetadata) {
			group.Compile = append(group.Compile, outputItem{Include: it.Include})
			continue
		}
		ext := filepath.Ext(it.Include)
		if !classify.IsImplicitSourceExtension(ext) {
			group.Compile = append(group.Compile, outputItem{Include: it.Include})
			continue
		}
		result.AddRemoved("item", it.Include, "implicitly included by the SDK's default compile glob")
	}
	return group
}

func buildEmbeddedResourceItems(proj *legacyproj.ParsedLegacyProject) outputItemGroup {
	group := outputItemGroup{}
	for _, it := range proj.ItemsOfKind("EmbeddedResource") {
		if !hasAnyMetadata(it, []string{"Generator", "DependentUpon", "SubType"}) {
			continue
		}
		item := outputItem{}
		if isOutsideProjectTree(it.Include) {
			item.Include = it.Include
		} else {
			item.Update = it.Include
		}
		group.EmbeddedResource = append(group.EmbeddedResource, item)
	}
	return group
}

func buildContentItems(proj *legacyproj.ParsedLegacyProject) outputItemGroup {
	group := outputItemGroup{}
	for _, it := range proj.ItemsOfKind("Content") {
		copyTo := it.Meta("CopyToOutputDirectory")
		if copyTo == "" {
			continue
		}
		item := outputItem{Update: it.Include}
		item.Attrs = append(item.Attrs, xml.Attr{Name: xml.Name{Local: "CopyToOutputDirectory"}, Value: copyTo})
		group.None = append(group.None, item)
	}
	return group
}

func buildUnconvertedItems(unconverted []model.UnconvertedReference) outputItemGroup {
	group := outputItemGroup{}
	for _, u := range unconverted {
		item := outputItem{Include: u.Assembly.String()}
		if u.HintPath != "" {
			item.Attrs = append(item.Attrs, xml.Attr{Name: xml.Name{Local: "HintPath"}, Value: u.HintPath})
		}
		if u.Private {
			item.Attrs = append(item.Attrs, xml.Attr{Name: xml.Name{Local: "Private"}, Value: "True"})
		}
		group.Reference = append(group.Reference, item)
	}
	return group
}

func buildImports(proj *legacyproj.ParsedLegacyProject, result *model.MigrationResult) []outputImport {
	var imports []outputImport
	for _, imp := range proj.RawImports {
		if classify.IsDefaultImport(imp) {
			result.AddRemoved("import", imp, "supplied implicitly by the SDK")
			continue
		}
		imports = append(imports, outputImport{Project: imp})
	}
	return imports
}

// buildTargets carries non-empty custom targets through verbatim, filtered
// against the problematic set only to decide whether to warn (spec §4.7
// step 9); empty scaffold targets are dropped and recorded as removed.
func buildTargets(proj *legacyproj.ParsedLegacyProject, result *model.MigrationResult) []outputTarget {
	var targets []outputTarget
	for _, t := range proj.Targets {
		if t.Empty {
			result.AddRemoved("target", t.Name, "empty legacy scaffold target")
			continue
		}
		if classify.IsProblematicTarget(t.Name) {
			result.AddWarning(fmt.Sprintf("custom target %q overrides SDK build behavior and was carried through unchanged", t.Name))
		}
		targets = append(targets, outputTarget{Name: t.Name, Attrs: t.Attrs, Inner: t.Body})
	}
	return targets
}

func isOutsideProjectTree(path string) bool {
	clean := filepath.ToSlash(path)
	return strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "..\\") || filepath.IsAbs(path)
}

func hasAnyMetadata(it legacyproj.Item, keys []string) bool {
	for _, k := range keys {
		if it.Meta(k) != "" {
			return true
		}
	}
	return false
}
