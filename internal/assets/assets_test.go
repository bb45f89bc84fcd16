package assets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdkmigrate/migrator/internal/model"
)

type stubStore struct {
	groups map[string][]string
}

func (s stubStore) FilesByFrameworkGroup(ctx context.Context, id, version string) (map[string][]string, error) {
	return s.groups, nil
}

func TestBestFrameworkGroupExactMatch(t *testing.T) {
	groups := map[string][]string{
		"net472":          {"lib/net472/Foo.dll"},
		"netstandard2.0": {"lib/netstandard2.0/Foo.dll"},
	}
	got := bestFrameworkGroup(groups, "net472")
	assert.Equal(t, []string{"lib/net472/Foo.dll"}, got)
}

func TestBestFrameworkGroupFallsBackToNothing(t *testing.T) {
	groups := map[string][]string{
		"net8.0": {"lib/net8.0/Foo.dll"},
	}
	got := bestFrameworkGroup(groups, "net472")
	assert.Nil(t, got)
}

func TestResolveFallbackMarksPartial(t *testing.T) {
	r := &Resolver{
		Store: stubStore{groups: map[string][]string{"net472": {"lib/net472/Foo.dll"}}},
	}

	set, err := r.Resolve(context.Background(), []model.PackageReference{{ID: "Foo", Version: "1.0.0"}}, "net472")
	require.NoError(t, err)
	assert.True(t, set.IsPartial)
	require.Len(t, set.Compile, 1)
	assert.Equal(t, "Foo", set.Compile[0].PackageID)
}

func TestResolveWithoutStoreReturnsEmptyPartialSet(t *testing.T) {
	r := &Resolver{}
	set, err := r.Resolve(context.Background(), nil, "net472")
	require.NoError(t, err)
	assert.True(t, set.IsPartial)
	assert.Empty(t, set.Compile)
}
