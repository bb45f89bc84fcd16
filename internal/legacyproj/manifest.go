package legacyproj

import (
	"encoding/xml"
	"os"

	"github.com/pkg/errors"
)

// ManifestPackage is one <package id version [targetFramework]
// [developmentDependency]/> entry from a legacy packages.config file.
type ManifestPackage struct {
	ID                   string
	Version              string
	TargetFramework      string
	DevelopmentDependency bool
}

type xmlPackages struct {
	Package []xmlPackage `xml:"package"`
}

type xmlPackage struct {
	ID                    string `xml:"id,attr"`
	Version               string `xml:"version,attr"`
	TargetFramework       string `xml:"targetFramework,attr"`
	DevelopmentDependency bool   `xml:"developmentDependency,attr"`
}

// ParseManifest reads a packages.config file. A missing file is not an
// error: most projects have no package manifest, so callers should check
// os.IsNotExist themselves if they need to distinguish "absent" from
// "malformed".
func ParseManifest(path string) ([]ManifestPackage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc xmlPackages
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "legacyproj: malformed packages.config %s", path)
	}

	out := make([]ManifestPackage, 0, len(doc.Package))
	for _, p := range doc.Package {
		out = append(out, ManifestPackage{
			ID:                    p.ID,
			Version:               p.Version,
			TargetFramework:       p.TargetFramework,
			DevelopmentDependency: p.DevelopmentDependency,
		})
	}
	return out, nil
}
