package replay

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/songozero/songozero/game"
)

func makeExample(tag float32) Example {
	var ex Example
	ex.Outcome = tag
	return ex
}

func TestAddRespectsCapacity(t *testing.T) {
	b := New(3)
	b.Add([]Example{makeExample(1), makeExample(2), makeExample(3), makeExample(4)})
	require.Equal(t, 3, b.Size())
}

func TestAddEvictsOldestOnOverflow(t *testing.T) {
	b := New(2)
	b.Add([]Example{makeExample(1), makeExample(2)})
	b.Add([]Example{makeExample(3)})

	require.Equal(t, 2, b.Size())
	tags := map[float32]bool{}
	for _, ex := range b.examples {
		tags[ex.Outcome] = true
	}
	require.False(t, tags[1], "oldest example should have been evicted")
	require.True(t, tags[2])
	require.True(t, tags[3])
}

func TestSampleCapsAtBufferSize(t *testing.T) {
	b := New(10)
	b.Add([]Example{makeExample(1), makeExample(2)})

	rng := rand.New(rand.NewSource(1))
	sample := b.Sample(5, rng)
	require.Len(t, sample, 2)
}

func TestSampleReturnsDistinctElements(t *testing.T) {
	b := New(10)
	for i := 0; i < 10; i++ {
		b.Add([]Example{makeExample(float32(i))})
	}

	rng := rand.New(rand.NewSource(1))
	sample := b.Sample(5, rng)
	require.Len(t, sample, 5)

	seen := map[float32]bool{}
	for _, ex := range sample {
		require.False(t, seen[ex.Outcome], "sample without replacement must not repeat")
		seen[ex.Outcome] = true
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b := New(5)
	ex := makeExample(1)
	ex.Features[0] = 0.5
	ex.Policy[0] = 1
	b.Add([]Example{ex})

	var buf bytes.Buffer
	require.NoError(t, b.Save(&buf))

	b2 := New(5)
	require.NoError(t, b2.Load(&buf))
	require.Equal(t, b.examples, b2.examples)
}

func TestExampleShapesMatchGame(t *testing.T) {
	var ex Example
	require.Len(t, ex.Features, game.EncodedSize)
	require.Len(t, ex.Policy, game.ActionSpace)
}
