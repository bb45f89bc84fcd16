package orchestrate

import (
	"encoding/xml"
	"os"
	"path/filepath"

	"github.com/sdkmigrate/migrator/internal/model"
	"github.com/sdkmigrate/migrator/internal/semver"
)

type sharedPropsDoc struct {
	XMLName       xml.Name `xml:"Project"`
	PropertyGroup struct {
		Props []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	} `xml:"PropertyGroup"`
}

type centralPkgDoc struct {
	XMLName   xml.Name `xml:"Project"`
	ItemGroup struct {
		PackageVersion []struct {
			Include string `xml:"Include,attr"`
			Version string `xml:"Version,attr"`
		} `xml:"PackageVersion"`
	} `xml:"ItemGroup"`
}

// generateSolutionWide builds the shared-properties file (properties whose
// value is identical across >= 2 projects) and the central package list
// (union of packages, versions reconciled by the configured strategy),
// spec §4.9 step 5.
func (o *Orchestrator) generateSolutionWide(root string, results []*model.MigrationResult) (sharedPath, centralPath string) {
	if o.Options.GenerateSharedProps {
		if shared := reconcileSharedProperties(results); len(shared) > 0 {
			sharedPath = filepath.Join(root, "Directory.Build.props")
			if err := writeSharedPropertiesFile(sharedPath, shared); err != nil && o.Log != nil {
				o.Log.WithError(err).Warn("orchestrate: failed to write shared properties file")
			}
		}
	}

	if o.Options.GenerateCentralPkgs {
		versions := reconcileCentralPackages(results, o.Options.CentralPackageStrategy)
		if len(versions) > 0 {
			centralPath = filepath.Join(root, "Directory.Packages.props")
			if err := writeCentralPackagesFile(centralPath, versions); err != nil && o.Log != nil {
				o.Log.WithError(err).Warn("orchestrate: failed to write central package list")
			}
		}
	}

	return sharedPath, centralPath
}

func reconcileSharedProperties(results []*model.MigrationResult) map[string]string {
	counts := map[string]map[string]int{} // name -> value -> count
	for _, r := range results {
		for name, value := range r.SharedProperties {
			if counts[name] == nil {
				counts[name] = map[string]int{}
			}
			counts[name][value]++
		}
	}

	shared := map[string]string{}
	for name, values := range counts {
		for value, count := range values {
			if count >= 2 {
				shared[name] = value
				break
			}
		}
	}
	return shared
}

func writeSharedPropertiesFile(path string, shared map[string]string) error {
	var doc sharedPropsDoc
	for name, value := range shared {
		doc.PropertyGroup.Props = append(doc.PropertyGroup.Props, struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		}{XMLName: xml.Name{Local: name}, Value: value})
	}
	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(xml.Header), b...), 0o644)
}

// centralPackageVersion is the reconciled outcome for one package id.
type centralPackageVersion struct {
	ID      string
	Version string
}

func reconcileCentralPackages(results []*model.MigrationResult, strategy CentralPackageStrategy) []centralPackageVersion {
	byID := map[string][]string{}
	order := []string{}
	for _, r := range results {
		for _, p := range r.Packages {
			key := p.ID
			if _, ok := byID[key]; !ok {
				order = append(order, key)
			}
			byID[key] = append(byID[key], p.Version)
		}
	}

	var out []centralPackageVersion
	for _, id := range order {
		versions := byID[id]
		chosen := versions[0]
		switch strategy {
		case HighestWins:
			if best := semver.LatestStable(versions, true); best != nil {
				chosen = best.Original()
			}
		case ManifestWins, UserPrompt:
			// First-declared wins: without an interactive surface (out of
			// scope per spec §1), user-prompt degrades to first-wins.
			chosen = versions[0]
		}
		out = append(out, centralPackageVersion{ID: id, Version: chosen})
	}
	return out
}

func writeCentralPackagesFile(path string, versions []centralPackageVersion) error {
	var doc centralPkgDoc
	for _, v := range versions {
		doc.ItemGroup.PackageVersion = append(doc.ItemGroup.PackageVersion, struct {
			Include string `xml:"Include,attr"`
			Version string `xml:"Version,attr"`
		}{Include: v.ID, Version: v.Version})
	}
	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(xml.Header), b...), 0o644)
}
