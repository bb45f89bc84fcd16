package orchestrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdkmigrate/migrator/internal/convert"
	"github.com/sdkmigrate/migrator/internal/model"
	"github.com/sdkmigrate/migrator/internal/resolver"
	"github.com/sdkmigrate/migrator/internal/synth"
	"github.com/sdkmigrate/migrator/internal/transitive"
)

type stubDiscoverer struct {
	paths []string
}

func (d stubDiscoverer) Discover(ctx context.Context, root string) ([]string, error) {
	return d.paths, nil
}

const sampleProject = `<?xml version="1.0" encoding="utf-8"?>
<Project ToolsVersion="15.0">
  <PropertyGroup>
    <TargetFrameworkVersion>v4.7.2</TargetFrameworkVersion>
    <ProjectGuid>{00000000-0000-0000-0000-000000000000}</ProjectGuid>
  </PropertyGroup>
  <ItemGroup>
    <Reference Include="Newtonsoft.Json, Version=12.0.3, Culture=neutral, PublicKeyToken=30ad4fe6b2a6aeed">
      <HintPath>..\packages\Newtonsoft.Json.12.0.3\lib\net45\Newtonsoft.Json.dll</HintPath>
    </Reference>
  </ItemGroup>
</Project>
`

func newTestOrchestrator(paths []string) *Orchestrator {
	converter := convert.New(resolver.NewOffline(resolver.DefaultFixtures()), nil, nil)
	detector := &transitive.Detector{}
	s := synth.New(converter, detector, synth.Options{DefaultFramework: "net472"})
	return &Orchestrator{
		Discoverer: stubDiscoverer{paths: paths},
		Synth:      s,
		Options:    Options{Parallelism: 4},
	}
}

func TestRunMigratesProjectsAndWritesBackup(t *testing.T) {
	root := t.TempDir()
	projPath := filepath.Join(root, "App.csproj")
	require.NoError(t, os.WriteFile(projPath, []byte(sampleProject), 0o644))

	o := newTestOrchestrator([]string{projPath})
	rr, err := o.Run(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, rr.Projects, 1)

	result := rr.Projects[0]
	assert.True(t, result.Success)
	require.Len(t, result.Packages, 1)
	assert.Equal(t, "Newtonsoft.Json", result.Packages[0].ID)

	content, err := os.ReadFile(projPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `Include="Newtonsoft.Json"`)
	assert.NotContains(t, string(content), "ProjectGuid")
}

// S6: running with parallelism > 1 produces the same set of results
// (modulo order) as parallelism 1.
func TestRunParallelSafety(t *testing.T) {
	root := t.TempDir()
	var paths []string
	for i := 0; i < 10; i++ {
		p := filepath.Join(root, "Proj"+string(rune('A'+i))+".csproj")
		require.NoError(t, os.WriteFile(p, []byte(sampleProject), 0o644))
		paths = append(paths, p)
	}

	o1 := newTestOrchestrator(paths)
	o1.Options.Parallelism = 1
	rr1, err := o1.Run(context.Background(), root)
	require.NoError(t, err)

	root2 := t.TempDir()
	var paths2 []string
	for i := 0; i < 10; i++ {
		p := filepath.Join(root2, "Proj"+string(rune('A'+i))+".csproj")
		require.NoError(t, os.WriteFile(p, []byte(sampleProject), 0o644))
		paths2 = append(paths2, p)
	}
	o8 := newTestOrchestrator(paths2)
	o8.Options.Parallelism = 8
	rr8, err := o8.Run(context.Background(), root2)
	require.NoError(t, err)

	assert.Equal(t, len(rr1.Projects), len(rr8.Projects))
}

func TestRunDryRunDoesNotWriteFiles(t *testing.T) {
	root := t.TempDir()
	projPath := filepath.Join(root, "App.csproj")
	require.NoError(t, os.WriteFile(projPath, []byte(sampleProject), 0o644))

	o := newTestOrchestrator([]string{projPath})
	o.Options.DryRun = true
	rr, err := o.Run(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, rr.Projects, 1)

	content, err := os.ReadFile(projPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ToolsVersion")
}

func TestReconcileSharedPropertiesRequiresAtLeastTwoAgreeingProjects(t *testing.T) {
	r1 := &model.MigrationResult{SharedProperties: map[string]string{"Company": "Acme"}}
	r2 := &model.MigrationResult{SharedProperties: map[string]string{"Company": "Acme"}}
	r3 := &model.MigrationResult{SharedProperties: map[string]string{"Company": "Other"}}

	shared := reconcileSharedProperties([]*model.MigrationResult{r1, r2, r3})
	assert.Equal(t, "Acme", shared["Company"])
}

func TestReconcileSharedPropertiesSingleProjectNotExtracted(t *testing.T) {
	r1 := &model.MigrationResult{SharedProperties: map[string]string{"Company": "Acme"}}
	shared := reconcileSharedProperties([]*model.MigrationResult{r1})
	assert.Empty(t, shared)
}

func TestReconcileCentralPackagesHighestWins(t *testing.T) {
	r1 := &model.MigrationResult{Packages: []model.PackageReference{{ID: "Foo", Version: "1.0.0"}}}
	r2 := &model.MigrationResult{Packages: []model.PackageReference{{ID: "Foo", Version: "2.0.0"}}}

	versions := reconcileCentralPackages([]*model.MigrationResult{r1, r2}, HighestWins)
	require.Len(t, versions, 1)
	assert.Equal(t, "2.0.0", versions[0].Version)
}
