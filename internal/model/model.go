// Package model holds the cross-cutting data model types from spec.md §3
// that more than one of C3-C9 needs to share: package references,
// unconverted references, removed elements, and the per-project migration
// result.
package model

import "github.com/sdkmigrate/migrator/internal/identity"

// PackageReference is one <PackageReference> the synthesizer will emit.
// Within a single project, ids are unique case-insensitively; IsTransitive
// is set after the fact by the Transitive Detector (C5) and is never true
// for an entry the caller declared directly until C5 runs.
type PackageReference struct {
	ID              string
	Version         string
	TargetFramework string
	Metadata        map[string]string
	IsTransitive    bool
}

// UnconvertedReference is a legacy <Reference> preserved verbatim because
// no safe package conversion exists.
type UnconvertedReference struct {
	Assembly  identity.Assembly
	HintPath  string
	Private   bool
	Metadata  map[string]string
	Reason    string
}

// RemovedElement records one property or item the synthesizer dropped from
// the legacy project, and why — spec §4.7 requires one entry per drop.
type RemovedElement struct {
	Kind   string // "property" | "item" | "target" | "import"
	Name   string
	Reason string
}

// MigrationResult is the per-project outcome spec.md §3 describes.
type MigrationResult struct {
	Success     bool
	InputPath   string
	OutputPath  string
	Packages    []PackageReference
	Unconverted []UnconvertedReference
	Removed     []RemovedElement
	Warnings    []string
	Errors      []string
	// SharedProperties holds this project's values for properties
	// classified "extract to shared" (C6), a candidate set the
	// orchestrator reconciles across projects into one shared file.
	SharedProperties map[string]string
}

// AddWarning appends a warning message to the result.
func (r *MigrationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError appends an error message and marks the result unsuccessful.
func (r *MigrationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Success = false
}

// AddRemoved records a dropped element with its reason.
func (r *MigrationResult) AddRemoved(kind, name, reason string) {
	r.Removed = append(r.Removed, RemovedElement{Kind: kind, Name: name, Reason: reason})
}
