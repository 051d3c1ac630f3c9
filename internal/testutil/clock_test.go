package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepClock_Advances(t *testing.T) {
	c := NewStepClock()
	first := c.Now()
	second := c.Now()

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Second, second.Sub(first))
}

func TestSequentialIDs_Unique(t *testing.T) {
	g := NewSequentialIDs("")
	id, err := g.NewID()
	require.NoError(t, err)
	assert.Equal(t, "run-0001", id)

	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				id, _ := g.NewID()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 100)
}
