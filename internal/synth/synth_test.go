package synth

import (
	"context"
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdkmigrate/migrator/internal/convert"
	"github.com/sdkmigrate/migrator/internal/legacyproj"
	"github.com/sdkmigrate/migrator/internal/resolver"
	"github.com/sdkmigrate/migrator/internal/transitive"
)

func newTestSynthesizer() *Synthesizer {
	converter := convert.New(resolver.NewOffline(resolver.DefaultFixtures()), nil, nil)
	detector := &transitive.Detector{}
	return New(converter, detector, Options{DefaultFramework: "net472"})
}

func TestConvertLegacyFrameworkVersion(t *testing.T) {
	moniker, ok := ConvertLegacyFrameworkVersion("v4.7.2")
	require.True(t, ok)
	assert.Equal(t, "net472", moniker)

	moniker, ok = ConvertLegacyFrameworkVersion("v4.5")
	require.True(t, ok)
	assert.Equal(t, "net45", moniker)

	_, ok = ConvertLegacyFrameworkVersion("garbage")
	assert.False(t, ok)
}

// S1: packages.config migration end-to-end through the synthesizer.
func TestSynthesizePackagesConfigMigration(t *testing.T) {
	s := newTestSynthesizer()
	proj := &legacyproj.ParsedLegacyProject{
		Path:         "App.csproj",
		Properties:   map[string]string{"TargetFrameworkVersion": "v4.7.2"},
		Items: []legacyproj.Item{
			{
				Kind:    "Reference",
				Include: "Newtonsoft.Json, Version=12.0.3, Culture=neutral, PublicKeyToken=30ad4fe6b2a6aeed",
				Metadata: map[string]string{
					"HintPath": `..\packages\Newtonsoft.Json.12.0.3\lib\net45\Newtonsoft.Json.dll`,
				},
			},
		},
	}
	manifest := []legacyproj.ManifestPackage{{ID: "Newtonsoft.Json", Version: "12.0.3"}}

	result, doc, err := s.Synthesize(context.Background(), proj, manifest)
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.Equal(t, "Newtonsoft.Json", result.Packages[0].ID)
	assert.Contains(t, doc, `Include="Newtonsoft.Json"`)
	assert.Contains(t, doc, `Version="12.0.3"`)
	assert.NotContains(t, doc, "<Reference")
}

// Custom targets: empty scaffold targets are dropped and recorded as
// removed; non-empty targets (including problematic ones) are carried
// through verbatim with their body and attributes intact.
func TestSynthesizeCustomTargets(t *testing.T) {
	s := newTestSynthesizer()
	proj := &legacyproj.ParsedLegacyProject{
		Path:       "App.csproj",
		Properties: map[string]string{"TargetFrameworkVersion": "v4.7.2"},
		Targets: []legacyproj.Target{
			{Name: "BeforeBuild", Empty: true},
			{
				Name:  "AfterBuild",
				Empty: false,
				Body:  `<Exec Command="echo hi" />`,
				Attrs: []xml.Attr{{Name: xml.Name{Local: "Condition"}, Value: "'$(Configuration)'=='Release'"}},
			},
		},
	}

	result, doc, err := s.Synthesize(context.Background(), proj, nil)
	require.NoError(t, err)

	assert.Contains(t, doc, `<Target Name="AfterBuild"`)
	assert.Contains(t, doc, `Condition=`)
	assert.Contains(t, doc, "$(Configuration)")
	assert.Contains(t, doc, `<Exec Command="echo hi" />`)
	assert.NotContains(t, doc, `Name="BeforeBuild"`)

	require.Len(t, result.Removed, 1)
	assert.Equal(t, "BeforeBuild", result.Removed[0].Name)
	assert.Contains(t, result.Warnings, `custom target "AfterBuild" overrides SDK build behavior and was carried through unchanged`)
}

// S4: target-framework conversion.
func TestSynthesizeTargetFrameworkConversion(t *testing.T) {
	s := newTestSynthesizer()
	proj := &legacyproj.ParsedLegacyProject{
		Path:       "App.csproj",
		Properties: map[string]string{"TargetFrameworkVersion": "v4.7.2"},
	}

	_, doc, err := s.Synthesize(context.Background(), proj, nil)
	require.NoError(t, err)
	assert.Contains(t, doc, "<TargetFramework>net472</TargetFramework>")
}

func TestSynthesizeRemovesGeneratedProperties(t *testing.T) {
	s := newTestSynthesizer()
	proj := &legacyproj.ParsedLegacyProject{
		Path: "App.csproj",
		Properties: map[string]string{
			"TargetFrameworkVersion": "v4.7.2",
			"ProjectGuid":            "{00000000-0000-0000-0000-000000000000}",
		},
	}

	result, doc, err := s.Synthesize(context.Background(), proj, nil)
	require.NoError(t, err)
	assert.NotContains(t, doc, "ProjectGuid")

	found := false
	for _, r := range result.Removed {
		if r.Name == "ProjectGuid" {
			found = true
		}
	}
	assert.True(t, found, "expected ProjectGuid to be recorded as a removed property")
}

func TestSynthesizePreservesLangVersion(t *testing.T) {
	s := newTestSynthesizer()
	proj := &legacyproj.ParsedLegacyProject{
		Path: "App.csproj",
		Properties: map[string]string{
			"TargetFrameworkVersion": "v4.7.2",
			"LangVersion":            "8.0",
		},
	}

	_, doc, err := s.Synthesize(context.Background(), proj, nil)
	require.NoError(t, err)
	assert.Contains(t, doc, "<LangVersion>8.0</LangVersion>")
}

func TestSynthesizeCompileOutsideTreeEmitted(t *testing.T) {
	s := newTestSynthesizer()
	proj := &legacyproj.ParsedLegacyProject{
		Path:       "App.csproj",
		Properties: map[string]string{"TargetFrameworkVersion": "v4.7.2"},
		Items: []legacyproj.Item{
			{Kind: "Compile", Include: `..\Shared\Helper.cs`},
			{Kind: "Compile", Include: `Program.cs`},
		},
	}

	_, doc, err := s.Synthesize(context.Background(), proj, nil)
	require.NoError(t, err)
	assert.Contains(t, doc, `Helper.cs`)
	assert.NotContains(t, doc, `Include="Program.cs"`)
}
