// Package classify holds the static catalog backing the Artifact & Element
// Classifier (C6): which legacy properties and items the SDK subsumes,
// which must be copied verbatim, and which graduate to a solution-wide
// shared properties file.
package classify

import "strings"

// Category is one of the three disjoint outcomes for a legacy property or
// item name.
type Category int

const (
	// Unknown means the name is not in any static table; callers treat
	// this as "preserve" for items and "drop silently" for properties
	// the synthesizer doesn't otherwise recognize.
	Unknown Category = iota
	Remove
	Preserve
	ExtractShared
)

// removeProperties are generated by the legacy tools and subsumed by the
// SDK's own defaults and implicit imports, keyed by canonical name.
var removeProperties = []string{
	"ProjectGuid",
	"ProjectTypeGuids",
	"SchemaVersion",
	"FileAlignment",
	"OldToolsVersion",
	"TargetFrameworkVersion",
	"Deterministic",
	"NuGetPackageImportStamp",
	"WarningLevel",
	"ErrorReport",
	"OutputPath",
	"IntermediateOutputPath",
	"BaseIntermediateOutputPath",
	"DebugSymbols",
	"DebugType",
	"Prefer32Bit",
	"AutoGenerateBindingRedirects",
}

// preserveProperties differ from SDK defaults often enough that they must
// be copied verbatim rather than dropped.
var preserveProperties = []string{
	"LangVersion",
	"Nullable",
	"AllowUnsafeBlocks",
	"DefineConstants",
	"NoWarn",
	"TreatWarningsAsErrors",
	"SignAssembly",
	"AssemblyOriginatorKeyFile",
	"DelaySign",
	"StartupObject",
	"ApplicationIcon",
}

// sharedProperties are ordinarily identical across every project in a
// solution and graduate to a shared properties file rather than being
// repeated per project (spec §4.6).
var sharedProperties = []string{
	"Company",
	"Copyright",
	"Product",
	"Version",
	"AssemblyVersion",
	"FileVersion",
	"NeutralLanguage",
	"Authors",
}

// implicitSourceExtensions need no explicit <Compile> item inside the
// project directory tree; the SDK globs them in implicitly.
var implicitSourceExtensions = map[string]bool{
	".cs": true,
	".vb": true,
	".fs": true,
}

// problematicTargets are legacy custom target names whose presence is
// usually a sign of hand-rolled build logic the SDK does not replicate,
// and so must be surfaced with a warning rather than silently carried or
// silently dropped.
var problematicTargets = []string{
	"BeforeBuild",
	"AfterBuild",
	"BeforeCompile",
	"AfterCompile",
	"BeforeResolveReferences",
}

var (
	removeIndex  = foldIndex(removeProperties)
	preserveIndex = foldIndex(preserveProperties)
	sharedIndex  = foldIndex(sharedProperties)
	targetIndex  = foldIndex(problematicTargets)
)

func foldIndex(names []string) map[string]string {
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[strings.ToLower(n)] = n
	}
	return m
}

// ClassifyProperty reports the category for a legacy property name,
// matched case-insensitively since the legacy XML schema itself is
// case-insensitive on element names.
func ClassifyProperty(name string) Category {
	key := strings.ToLower(name)
	switch {
	case removeIndex[key] != "":
		return Remove
	case sharedIndex[key] != "":
		return ExtractShared
	case preserveIndex[key] != "":
		return Preserve
	default:
		return Unknown
	}
}

// IsImplicitSourceExtension reports whether ext (including the leading
// dot) needs no explicit compile item when the file lives inside the
// project directory.
func IsImplicitSourceExtension(ext string) bool {
	return implicitSourceExtensions[strings.ToLower(ext)]
}

// IsProblematicTarget reports whether name is a legacy custom target that
// should raise a warning rather than pass through silently.
func IsProblematicTarget(name string) bool {
	return targetIndex[strings.ToLower(name)] != ""
}

// PreservedProperties returns the canonical names of properties the
// synthesizer should emit verbatim when present and non-empty.
func PreservedProperties() []string {
	out := make([]string, len(preserveProperties))
	copy(out, preserveProperties)
	return out
}

// SharedProperties returns the canonical names of properties eligible for
// extraction to a solution-wide shared file.
func SharedProperties() []string {
	out := make([]string, len(sharedProperties))
	copy(out, sharedProperties)
	return out
}
