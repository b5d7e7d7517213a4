package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/motoyard/yardmap/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify Backend implements storage.Backend interface
var _ storage.Backend = (*Backend)(nil)

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	b := New()
	require.NoError(t, b.Init())
	defer b.Close()

	_, ok, err := b.Get(ctx, "yard_zones")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set(ctx, "yard_zones", `{"zones":[]}`))
	require.NoError(t, b.Set(ctx, "yard_zones", `{"zones":[1]}`))

	v, ok, err := b.Get(ctx, "yard_zones")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"zones":[1]}`, v)
	assert.Equal(t, 2, b.Writes())
	assert.Equal(t, []string{"yard_zones"}, b.Keys())
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	b := New()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%02d", i%5)
			_ = b.Set(ctx, key, "v")
			_, _, _ = b.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.Len(t, b.Keys(), 5)
	assert.Equal(t, 20, b.Writes())
}
