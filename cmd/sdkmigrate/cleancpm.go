package main

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sdkmigrate/migrator/internal/backup"
	"github.com/sdkmigrate/migrator/internal/discover"
	"github.com/sdkmigrate/migrator/internal/synth"
)

var cleanCPMCmd = &cobra.Command{
	Use:   "clean-cpm [root-directory]",
	Short: "Convert SDK-style projects to central package management",
	Long: `clean-cpm strips per-project Version attributes from PackageReference
items and writes (or augments) the solution's Directory.Packages.props
central package list with the extracted versions.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runCleanCPM,
}

func runCleanCPM(cmd *cobra.Command, args []string) error {
	log := newLogger()
	root := rootArg(args)

	paths, err := discover.Walker{}.Discover(context.Background(), root)
	if err != nil {
		return withExit(exitCatastrophic, err)
	}

	lock, staleWarning, err := backup.AcquireLock(root, lockTimeout())
	if err != nil {
		return withExit(exitCatastrophic, err)
	}
	defer lock.Release()
	if staleWarning != "" {
		log.Warn(staleWarning)
	}

	session, err := backup.NewSession(root)
	if err != nil {
		return withExit(exitCatastrophic, err)
	}

	central := map[string]string{} // first-wins per id, matching synth's manifest precedence
	var order []string

	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			log.WithField("path", path).WithError(err).Warn("clean-cpm: failed to read project")
			continue
		}

		rewritten, extracted, err := synth.ConvertToCentralPackageManagement(string(contents))
		if err != nil {
			log.WithField("path", path).WithError(err).Warn("clean-cpm: failed to parse project")
			continue
		}
		if len(extracted) == 0 {
			continue
		}
		for _, e := range extracted {
			if _, ok := central[e.ID]; !ok {
				order = append(order, e.ID)
			}
			central[e.ID] = e.Version
		}
		fmt.Printf("%s: extracted %d package version(s)\n", path, len(extracted))

		if flagDryRun {
			continue
		}
		if err := session.BackupFile(path); err != nil {
			return withExit(exitCatastrophic, err)
		}
		if err := os.WriteFile(path, []byte(rewritten), 0o644); err != nil {
			return withExit(exitCatastrophic, err)
		}
		if err := session.RecordPostHash(path); err != nil {
			log.WithError(err).Warn("clean-cpm: failed to record post-write hash")
		}
	}

	if len(order) > 0 && !flagDryRun {
		centralPath := filepath.Join(root, "Directory.Packages.props")
		if err := session.BackupFile(centralPath); err != nil {
			return withExit(exitCatastrophic, err)
		}
		if err := writeCentralPackagesFile(centralPath, order, central); err != nil {
			return withExit(exitCatastrophic, err)
		}
		if err := session.RecordPostHash(centralPath); err != nil {
			log.WithError(err).Warn("clean-cpm: failed to record post-write hash")
		}
	}

	if !flagDryRun {
		if err := session.Finalize(); err != nil {
			return withExit(exitCatastrophic, err)
		}
	}

	fmt.Printf("%d project(s) scanned, %d package version(s) centralized\n", len(paths), len(order))
	return nil
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

func writeCentralPackagesFile(path string, order []string, versions map[string]string) error {
	var doc centralPkgDoc
	for _, id := range order {
		doc.ItemGroup.PackageVersion = append(doc.ItemGroup.PackageVersion, struct {
			Include string `xml:"Include,attr"`
			Version string `xml:"Version,attr"`
		}{Include: id, Version: versions[id]})
	}
	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(xml.Header), b...), 0o644)
}
