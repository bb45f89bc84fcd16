// Package legacyproj models a parsed legacy (ToolsVersion-style) project
// file as the read-only evaluator abstraction described in spec.md §9: a
// ParsedLegacyProject exposing properties, items, and raw imports/targets,
// with $(…) macro evaluation over path-like metadata.
package legacyproj

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Item is one legacy <ItemGroup> entry: a Reference, Compile, Content,
// ProjectReference, etc., with its Include value and metadata.
type Item struct {
	Kind    string
	Include string
	// Metadata holds raw (unevaluated) metadata values, keyed by element
	// name (HintPath, Version, Culture, PublicKeyToken, Private,
	// CopyToOutputDirectory, Generator, DependentUpon, SubType, Link,
	// AutoGen, DesignTime, Visible, and any handler-specific names).
	Metadata map[string]string
	// Evaluated mirrors Metadata with $(…) macros substituted against
	// project properties, populated lazily by Evaluate.
	Evaluated map[string]string
	// IsRemoval marks an item declared with Remove="..." rather than
	// Include="...", an explicit exclusion of an otherwise-implicit file.
	IsRemoval bool
}

// Meta returns the evaluated metadata value for key, falling back to raw.
func (it Item) Meta(key string) string {
	if it.Evaluated != nil {
		if v, ok := it.Evaluated[key]; ok {
			return v
		}
	}
	return it.Metadata[key]
}

// ParsedLegacyProject is the read-only evaluator surface the rest of the
// migration core consumes; nothing downstream touches the XML tree
// directly.
type ParsedLegacyProject struct {
	Path       string
	ToolsVersion string
	Properties map[string]string
	Items      []Item
	RawImports []string
	Targets    []Target
}

// Target is a legacy custom <Target> declaration. Empty reports whether the
// element had no meaningful body — the old project templates scaffolded
// several hook targets (BeforeBuild, AfterBuild, ...) commented-out or
// whitespace-only, which carry no behavior worth warning about.
type Target struct {
	Name  string
	Empty bool
	// Body is the target's raw inner XML (tasks, item groups, conditions),
	// preserved verbatim so a non-empty custom target can be carried
	// through into the synthesized project rather than dropped.
	Body string
	// Attrs carries through attributes beyond Name (BeforeTargets,
	// AfterTargets, DependsOnTargets, Condition, ...) verbatim.
	Attrs []xml.Attr
}

var macroPattern = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_]*)\)`)

// evaluate substitutes $(PropertyName) references against p.Properties,
// iterating to a fixed point (bounded) so properties that reference other
// properties resolve too.
func (p *ParsedLegacyProject) evaluate(raw string) string {
	out := raw
	for i := 0; i < 8; i++ {
		replaced := macroPattern.ReplaceAllStringFunc(out, func(m string) string {
			name := macroPattern.FindStringSubmatch(m)[1]
			if v, ok := p.Properties[name]; ok {
				return v
			}
			return m
		})
		if replaced == out {
			break
		}
		out = replaced
	}
	return out
}

// BaseName returns the project file name without extension, used as the
// default AssemblyName/RootNamespace per spec §4.7 step 2.
func (p *ParsedLegacyProject) BaseName() string {
	base := filepath.Base(p.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// xmlProject mirrors the subset of the legacy MSBuild schema this core
// reads; unrecognized elements are ignored rather than erroring, matching
// the "evaluator" abstraction's narrow, name-addressed surface.
type xmlProject struct {
	ToolsVersion  string          `xml:"ToolsVersion,attr"`
	PropertyGroup []xmlPropGroup  `xml:"PropertyGroup"`
	ItemGroup     []xmlItemGroup  `xml:"ItemGroup"`
	Import        []xmlImport     `xml:"Import"`
	Target        []xmlTarget     `xml:"Target"`
}

type xmlPropGroup struct {
	Props []xmlProp `xml:",any"`
}

type xmlProp struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlItemGroup struct {
	Items []xmlItem `xml:",any"`
}

type xmlItem struct {
	XMLName xml.Name
	Include string    `xml:"Include,attr"`
	Remove  string    `xml:"Remove,attr"`
	Meta    []xmlProp `xml:",any"`
}

type xmlImport struct {
	Project string `xml:"Project,attr"`
}

type xmlTarget struct {
	Name  string     `xml:"Name,attr"`
	Attrs []xml.Attr `xml:",any,attr"`
	Body  string     `xml:",innerxml"`
}

// Parse reads and decodes a legacy project file at path into a
// ParsedLegacyProject. Malformed XML is an InputError-shaped failure: the
// caller (the orchestrator) records it against this one project and
// continues with its peers (spec §7).
func Parse(path string) (*ParsedLegacyProject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "legacyproj: open %s", path)
	}
	defer f.Close()

	var doc xmlProject
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "legacyproj: malformed project xml %s", path)
	}

	p := &ParsedLegacyProject{
		Path:         path,
		ToolsVersion: doc.ToolsVersion,
		Properties:   map[string]string{},
	}

	for _, pg := range doc.PropertyGroup {
		for _, prop := range pg.Props {
			p.Properties[prop.XMLName.Local] = prop.Value
		}
	}

	for _, ig := range doc.ItemGroup {
		for _, it := range ig.Items {
			meta := map[string]string{}
			for _, m := range it.Meta {
				meta[m.XMLName.Local] = m.Value
			}
			include := it.Include
			isRemoval := false
			if include == "" && it.Remove != "" {
				include = it.Remove
				isRemoval = true
			}
			p.Items = append(p.Items, Item{
				Kind:      it.XMLName.Local,
				Include:   include,
				Metadata:  meta,
				IsRemoval: isRemoval,
			})
		}
	}

	for _, imp := range doc.Import {
		p.RawImports = append(p.RawImports, imp.Project)
	}
	for _, t := range doc.Target {
		p.Targets = append(p.Targets, Target{
			Name:  t.Name,
			Empty: strings.TrimSpace(t.Body) == "",
			Body:  t.Body,
			Attrs: t.Attrs,
		})
	}

	p.evaluateItems()
	return p, nil
}

func (p *ParsedLegacyProject) evaluateItems() {
	for i := range p.Items {
		ev := make(map[string]string, len(p.Items[i].Metadata))
		for k, v := range p.Items[i].Metadata {
			ev[k] = p.evaluate(v)
		}
		p.Items[i].Evaluated = ev
		p.Items[i].Include = p.evaluate(p.Items[i].Include)
	}
}

// ItemsOfKind returns every item whose Kind matches, case-sensitively
// (legacy item names are fixed-case MSBuild element names).
func (p *ParsedLegacyProject) ItemsOfKind(kind string) []Item {
	var out []Item
	for _, it := range p.Items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}
