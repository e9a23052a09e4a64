package id

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	assert.NotEqual(t, id1.String(), id2.String())
	assert.Len(t, gen.GenerateString(), 26)
}

func TestGenerateMonotonic(t *testing.T) {
	gen := NewGenerator()

	prev := gen.Generate()
	for i := 0; i < 1000; i++ {
		next := gen.Generate()
		require.Equal(t, 1, next.Compare(prev), "ids must strictly increase")
		prev = next
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{TabPrefix, FolderPrefix, WindowPrefix} {
		t.Run(prefix, func(t *testing.T) {
			s := gen.GenerateWithPrefix(prefix)
			require.True(t, strings.HasPrefix(s, prefix+"_"), s)

			parts := strings.Split(s, "_")
			require.Len(t, parts, 2)
			assert.True(t, IsValid(parts[1]))
			assert.True(t, IsValid(s))
		})
	}
}

func TestTypedIDs(t *testing.T) {
	tab := NewTabID()
	folder := NewFolderID()
	win := NewWindowID()

	assert.True(t, tab.IsTab())
	assert.False(t, tab.IsFolder())
	assert.True(t, folder.IsFolder())
	assert.True(t, strings.HasPrefix(win.String(), "win_"))

	_, err := Timestamp(tab.String())
	assert.NoError(t, err)
}

func TestNewPartitionIsRandom(t *testing.T) {
	a, b := NewPartition(), NewPartition()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, PartitionPrefix+"_"))
}

func TestIncrementEntropyOverflow(t *testing.T) {
	out, ok := incrementEntropy([]byte{0x00, 0xff})
	assert.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x00}, out)

	_, ok = incrementEntropy([]byte{0xff, 0xff})
	assert.False(t, ok)
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const n = 200

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := gen.GenerateString()
			mu.Lock()
			seen[s] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}
