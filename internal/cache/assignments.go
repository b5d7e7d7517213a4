// Package cache keeps derived state that is cheap to recompute but needed
// between recomputations.
package cache

import "sync"

// Change is a marker whose zone assignment differs from the cached one.
// An empty zone id means the marker is in no zone.
type Change struct {
	MarkerID string
	From     string
	To       string
}

// Assignments maps marker ids to the zone that contains them.
type Assignments struct {
	mu      sync.RWMutex
	markers map[string]string
}

// NewAssignments creates an empty cache.
func NewAssignments() *Assignments {
	return &Assignments{
		markers: make(map[string]string),
	}
}

// Get returns the cached zone of a marker.
func (c *Assignments) Get(markerID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	zoneID, ok := c.markers[markerID]
	return zoneID, ok
}

// Set stores the zone of a marker.
func (c *Assignments) Set(markerID, zoneID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers[markerID] = zoneID
}

// Delete removes a marker.
func (c *Assignments) Delete(markerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.markers, markerID)
}

// Len returns the number of cached markers.
func (c *Assignments) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.markers)
}

// Replace swaps in a complete assignment set and returns what changed.
// Markers seen for the first time are reported with an empty From; markers
// that disappeared are dropped without a change entry.
func (c *Assignments) Replace(next map[string]string) []Change {
	c.mu.Lock()
	defer c.mu.Unlock()

	var changes []Change
	for markerID, zoneID := range next {
		prev, seen := c.markers[markerID]
		if !seen && zoneID == "" {
			continue
		}
		if prev != zoneID {
			changes = append(changes, Change{MarkerID: markerID, From: prev, To: zoneID})
		}
	}

	c.markers = make(map[string]string, len(next))
	for k, v := range next {
		c.markers[k] = v
	}
	return changes
}

// Reset clears the cache.
func (c *Assignments) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers = make(map[string]string)
}
