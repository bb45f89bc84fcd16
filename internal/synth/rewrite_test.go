package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdkmigrate/migrator/internal/transitive"
)

const sdkStyleProject = `<?xml version="1.0" encoding="utf-8"?>
<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net472</TargetFramework>
  </PropertyGroup>
  <ItemGroup>
    <PackageReference Include="A" Version="1.0.0" />
    <PackageReference Include="B" Version="1.0.0" />
    <Compile Remove="Old.cs" />
  </ItemGroup>
</Project>
`

type stubGraph map[string][]string

func (g stubGraph) Dependencies(ctx context.Context, id, version, framework string) []string {
	return g[id]
}

func TestCleanTransitiveDependenciesDropsReachableEntry(t *testing.T) {
	detector := &transitive.Detector{Graph: stubGraph{"B": {"A"}}}

	rewritten, dropped, err := CleanTransitiveDependencies(context.Background(), sdkStyleProject, "net472", detector)
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, dropped)
	assert.NotContains(t, rewritten, `Include="A"`)
	assert.Contains(t, rewritten, `Include="B"`)
	assert.Contains(t, rewritten, `Remove="Old.cs"`)
}

func TestCleanTransitiveDependenciesNoDetectorKeepsEverything(t *testing.T) {
	rewritten, dropped, err := CleanTransitiveDependencies(context.Background(), sdkStyleProject, "net472", nil)
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.Contains(t, rewritten, `Include="A"`)
	assert.Contains(t, rewritten, `Include="B"`)
}

func TestConvertToCentralPackageManagementStripsVersions(t *testing.T) {
	rewritten, extracted, err := ConvertToCentralPackageManagement(sdkStyleProject)
	require.NoError(t, err)
	require.Len(t, extracted, 2)
	assert.Contains(t, rewritten, `Include="A"`)
	assert.NotContains(t, rewritten, `Version="1.0.0"`)

	byID := map[string]string{}
	for _, e := range extracted {
		byID[e.ID] = e.Version
	}
	assert.Equal(t, "1.0.0", byID["A"])
	assert.Equal(t, "1.0.0", byID["B"])
}
