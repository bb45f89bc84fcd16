package discover

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("<Project/>"), 0o644))
}

func TestDiscoverFindsLegacyProjectFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "App", "App.csproj"))
	touch(t, filepath.Join(root, "Lib", "Lib.vbproj"))
	touch(t, filepath.Join(root, "Fs", "Fs.fsproj"))
	touch(t, filepath.Join(root, "App", "bin", "Debug", "App.dll.csproj"))
	touch(t, filepath.Join(root, "App", "obj", "App.csproj"))
	touch(t, filepath.Join(root, "App", "readme.txt"))

	paths, err := Walker{}.Discover(context.Background(), root)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"App.csproj", "Fs.fsproj", "Lib.vbproj"}, names)
}

func TestDiscoverSkipsVersionControlAndPackagesDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, ".git", "hooks", "fake.csproj"))
	touch(t, filepath.Join(root, "packages", "Some.Pkg", "fake.csproj"))
	touch(t, filepath.Join(root, "Real", "Real.csproj"))

	paths, err := Walker{}.Discover(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "Real.csproj", filepath.Base(paths[0]))
}

func TestDiscoverRespectsCancellation(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "App.csproj"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Walker{}.Discover(ctx, root)
	assert.Error(t, err)
}
