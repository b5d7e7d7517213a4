package cache

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignments_SetGetDelete(t *testing.T) {
	c := NewAssignments()

	c.Set("m1", "z1")
	zoneID, ok := c.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "z1", zoneID)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Delete("m1")
	assert.Equal(t, 0, c.Len())
}

func TestAssignments_Replace(t *testing.T) {
	c := NewAssignments()

	changes := c.Replace(map[string]string{"m1": "z1", "m2": ""})
	require.Len(t, changes, 1)
	assert.Equal(t, Change{MarkerID: "m1", From: "", To: "z1"}, changes[0])

	changes = c.Replace(map[string]string{"m1": "z2", "m2": "", "m3": "z1"})
	sort.Slice(changes, func(i, j int) bool { return changes[i].MarkerID < changes[j].MarkerID })
	assert.Equal(t, []Change{
		{MarkerID: "m1", From: "z1", To: "z2"},
		{MarkerID: "m3", From: "", To: "z1"},
	}, changes)

	changes = c.Replace(map[string]string{"m1": ""})
	assert.Equal(t, []Change{{MarkerID: "m1", From: "z2", To: ""}}, changes)
	assert.Equal(t, 1, c.Len())

	assert.Empty(t, c.Replace(map[string]string{"m1": ""}))
}

func TestAssignments_Reset(t *testing.T) {
	c := NewAssignments()
	c.Set("m1", "z1")
	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestAssignments_Concurrent(t *testing.T) {
	c := NewAssignments()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("m%d", i)
			c.Set(id, "z")
			c.Get(id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}
