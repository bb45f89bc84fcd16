package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdkmigrate/migrator/internal/identity"
)

func TestOfflineResolveAssemblyTokenMatch(t *testing.T) {
	off := NewOffline(DefaultFixtures())
	asm, err := identity.Parse("Newtonsoft.Json, Version=12.0.3, PublicKeyToken=30ad4fe6b2a6aeed")
	require.NoError(t, err)

	res, ok := off.ResolveAssembly(context.Background(), asm, "net472")
	require.True(t, ok)
	assert.Equal(t, "Newtonsoft.Json", res.ID)
}

func TestOfflineContainsAssemblyTokenMismatch(t *testing.T) {
	off := NewOffline(DefaultFixtures())
	asm, _ := identity.Parse("Newtonsoft.Json, PublicKeyToken=bbbbbbbbbbbbbbbb")

	ok := off.ContainsAssembly(context.Background(), "Newtonsoft.Json", "13.0.3", asm)
	assert.False(t, ok, "mismatched token must not validate")
}

func TestOfflineContainsAssemblyNoProbeToken(t *testing.T) {
	off := NewOffline(DefaultFixtures())
	asm, _ := identity.Parse("Newtonsoft.Json")

	ok := off.ContainsAssembly(context.Background(), "Newtonsoft.Json", "13.0.3", asm)
	assert.True(t, ok)
}

func TestFrameworkFamilyMatching(t *testing.T) {
	assert.True(t, matchesPattern("netframework", "net472"))
	assert.False(t, matchesPattern("netframework", "net8.0"))
	assert.True(t, matchesPattern("net", "net8.0"))
	assert.False(t, matchesPattern("net", "netcoreapp3.1"))
	assert.True(t, matchesPattern("netcoreapp", "netcoreapp3.1"))
	assert.False(t, matchesPattern("netframework", "netstandard2.1"))
	assert.False(t, matchesPattern("net", "netstandard2.1"))
	assert.True(t, matchesPattern("netstandard2.1", "netstandard2.1"))
	assert.True(t, matchesPattern("*", "netstandard2.1"))
}

func TestBestPatternPrefersMostSpecific(t *testing.T) {
	patterns := []string{"*", "netframework", "net472"}
	assert.Equal(t, "net472", bestPattern(patterns, "net472"))
}

func TestOnlineDegradesOnNetworkError(t *testing.T) {
	client := IndexClient{
		AllVersions: func(ctx context.Context, id string) ([]string, error) {
			return nil, assertErr
		},
	}
	online := NewOnline(client, testLogger(), 0)

	_, ok := online.ResolveLatest(context.Background(), "Foo", false)
	assert.False(t, ok, "network failure must degrade, never panic or error out")
}
