package valueobjects

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestImportance(t *testing.T) {
	assert.Equal(t, "Low", ImportanceLow.Label())
	assert.Equal(t, "Medium", ImportanceMedium.Label())
	assert.Equal(t, "High", ImportanceHigh.Label())

	assert.Equal(t, ImportanceHigh, ParseImportance("3"))
	assert.False(t, ParseImportance("x").IsValid())
	assert.False(t, Importance(4).IsValid())
}

func TestStatus_IsValid(t *testing.T) {
	assert.True(t, StatusInProgress.IsValid())
	assert.False(t, Status("Done").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestIDGenerator_UsesClockMillis(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_123)
	g := NewIDGenerator(func() time.Time { return fixed })

	assert.Equal(t, "1700000000123", g.Next())
}

func TestIDGenerator_SameMillisecondStillUnique(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := NewIDGenerator(func() time.Time { return fixed })

	first := g.Next()
	second := g.Next()

	assert.Equal(t, "1700000000000", first)
	assert.Equal(t, "1700000000001", second)
}

func TestIDGenerator_Concurrent(t *testing.T) {
	g := NewIDGenerator(nil)
	const n = 200

	var mu sync.Mutex
	seen := make(map[string]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Next()
			_, err := strconv.ParseInt(id, 10, 64)
			assert.NoError(t, err)
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}
