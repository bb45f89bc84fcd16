package synth

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/sdkmigrate/migrator/internal/model"
	"github.com/sdkmigrate/migrator/internal/transitive"
)

// genericElement is a round-trippable catch-all for one XML element this
// package doesn't otherwise need to understand: its name and attributes
// are typed, its children are kept as raw inner XML, matching the
// Include/Remove-plus-any-metadata pattern legacyproj.xmlItem already uses
// one level up the tree.
type genericElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

func attr(el genericElement, name string) string {
	for _, a := range el.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func removeAttr(el *genericElement, name string) {
	out := el.Attrs[:0]
	for _, a := range el.Attrs {
		if a.Name.Local != name {
			out = append(out, a)
		}
	}
	el.Attrs = out
}

type sdkDoc struct {
	XMLName  xml.Name         `xml:"Project"`
	Sdk      string           `xml:"Sdk,attr"`
	Children []genericElement `xml:",any"`
}

type itemGroupDoc struct {
	XMLName xml.Name         `xml:"ItemGroup"`
	Items   []genericElement `xml:",any"`
}

func parseSDKDoc(contents string) (*sdkDoc, error) {
	var doc sdkDoc
	if err := xml.Unmarshal([]byte(contents), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func decodeItemGroup(el genericElement) (*itemGroupDoc, error) {
	var ig itemGroupDoc
	wrapped := "<ItemGroup>" + el.Inner + "</ItemGroup>"
	if err := xml.Unmarshal([]byte(wrapped), &ig); err != nil {
		return nil, err
	}
	return &ig, nil
}

func marshalSDKDoc(doc *sdkDoc) (string, error) {
	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(b), nil
}

// CleanTransitiveDependencies re-runs the Transitive Detector (C5) against
// an already SDK-style project's PackageReference set and returns the
// rewritten document with transitive entries removed, alongside the
// dropped package ids. It is the engine behind the `clean-deps` command
// (a supplemented feature, not part of the original migration path).
func CleanTransitiveDependencies(ctx context.Context, contents, framework string, detector *transitive.Detector) (string, []string, error) {
	doc, err := parseSDKDoc(contents)
	if err != nil {
		return "", nil, err
	}

	var dropped []string
	for gi, child := range doc.Children {
		if child.XMLName.Local != "ItemGroup" {
			continue
		}
		ig, err := decodeItemGroup(child)
		if err != nil {
			continue
		}

		var refs []model.PackageReference
		for _, item := range ig.Items {
			if item.XMLName.Local != "PackageReference" {
				continue
			}
			refs = append(refs, model.PackageReference{ID: attr(item, "Include"), Version: attr(item, "Version")})
		}
		if len(refs) == 0 {
			continue
		}

		reduced := refs
		if detector != nil {
			reduced, _ = detector.Reduce(ctx, refs, framework)
		}

		keepByID := map[string]bool{}
		for _, r := range reduced {
			if !r.IsTransitive {
				keepByID[strings.ToLower(r.ID)] = true
			} else {
				dropped = append(dropped, r.ID)
			}
		}

		var rebuilt []genericElement
		for _, item := range ig.Items {
			if item.XMLName.Local == "PackageReference" && !keepByID[strings.ToLower(attr(item, "Include"))] {
				continue
			}
			rebuilt = append(rebuilt, item)
		}
		doc.Children[gi].Inner = innerXMLOf(rebuilt)
	}

	out, err := marshalSDKDoc(doc)
	return out, dropped, err
}

// ConvertToCentralPackageManagement strips per-project Version attributes
// from PackageReference items, returning the rewritten project document
// plus the (id, version) pairs the caller should fold into the solution's
// central package list file. It is the engine behind `clean-cpm`.
func ConvertToCentralPackageManagement(contents string) (string, []CentralPackageEntry, error) {
	doc, err := parseSDKDoc(contents)
	if err != nil {
		return "", nil, err
	}

	var extracted []CentralPackageEntry
	for gi, child := range doc.Children {
		if child.XMLName.Local != "ItemGroup" {
			continue
		}
		ig, err := decodeItemGroup(child)
		if err != nil {
			continue
		}

		changed := false
		for i, item := range ig.Items {
			if item.XMLName.Local != "PackageReference" {
				continue
			}
			version := attr(item, "Version")
			if version == "" {
				continue
			}
			extracted = append(extracted, CentralPackageEntry{ID: attr(item, "Include"), Version: version})
			removeAttr(&ig.Items[i], "Version")
			changed = true
		}
		if changed {
			doc.Children[gi].Inner = innerXMLOf(ig.Items)
		}
	}

	out, err := marshalSDKDoc(doc)
	return out, extracted, err
}

// CentralPackageEntry is one package id/version pair clean-cpm lifts out
// of a project into the solution-wide central package list.
type CentralPackageEntry struct {
	ID      string
	Version string
}

func innerXMLOf(items []genericElement) string {
	b, err := xml.Marshal(items)
	if err != nil {
		return ""
	}
	// xml.Marshal on a slice has no wrapping root element since each
	// genericElement carries its own XMLName; concatenation is exactly
	// the inner XML of the enclosing ItemGroup.
	return string(b)
}
