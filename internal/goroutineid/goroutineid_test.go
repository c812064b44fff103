package goroutineid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for in, want := range map[string]int64{
		"goroutine 123 [running]:\n": 123,
		"goroutine 7":                7,
		"goroutine  [running]":       0,
		"something else\n":           0,
		"":                           0,
		"xgoroutine 5 [running]":     0,
	} {
		assert.Equal(t, want, parse([]byte(in)), in)
	}
}

func TestGet_StablePerGoroutine(t *testing.T) {
	id := Get()
	require.Positive(t, id)
	assert.Equal(t, id, Get())

	var wg sync.WaitGroup
	other := make([]int64, 4)
	for i := range other {
		wg.Go(func() { other[i] = Get() })
	}
	wg.Wait()
	seen := map[int64]bool{id: true}
	for _, o := range other {
		require.Positive(t, o)
		assert.False(t, seen[o], "goroutine ids are not reused")
		seen[o] = true
	}
}
