package orchestrate

import (
	"encoding/xml"
	"strings"
)

type validationDoc struct {
	ItemGroup []struct {
		PackageReference []struct {
			Include string `xml:"Include,attr"`
		} `xml:"PackageReference"`
	} `xml:"ItemGroup"`
}

// validate re-parses a synthesized document and confirms schema validity
// plus absence of duplicate package-reference ids (spec §4.9 step 6).
// Failures here are warnings, never rollbacks.
func validate(doc string) bool {
	var v validationDoc
	if err := xml.Unmarshal([]byte(doc), &v); err != nil {
		return false
	}

	seen := map[string]bool{}
	for _, group := range v.ItemGroup {
		for _, pkg := range group.PackageReference {
			key := strings.ToLower(pkg.Include)
			if seen[key] {
				return false
			}
			seen[key] = true
		}
	}
	return true
}
