package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatestMissThenHit(t *testing.T) {
	c := New()
	key := LatestKey{ID: "Newtonsoft.Json"}

	_, ok := c.GetLatest(key)
	assert.False(t, ok)

	c.SetLatest(key, "13.0.3")
	v, ok := c.GetLatest(key)
	assert.True(t, ok)
	assert.Equal(t, "13.0.3", v)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Latest.Misses)
	assert.Equal(t, int64(1), stats.Latest.Hits)
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := AssemblyKey{Name: "Foo", Framework: "net472"}
			c.SetAssembly(key, Resolution{PackageID: "Foo", Found: true})
			c.GetAssembly(key)
		}(i)
	}
	wg.Wait()

	r, ok := c.GetAssembly(AssemblyKey{Name: "Foo", Framework: "net472"})
	assert.True(t, ok)
	assert.True(t, r.Found)
}

func TestClearResetsMapsAndStats(t *testing.T) {
	c := New()
	c.SetLatest(LatestKey{ID: "A"}, "1.0.0")
	c.GetLatest(LatestKey{ID: "A"})

	c.Clear()

	_, ok := c.GetLatest(LatestKey{ID: "A"})
	assert.False(t, ok)
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Latest.Misses)
	assert.Equal(t, int64(0), stats.Latest.Hits)
}
