package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeInitialState(t *testing.T) {
	g := NewGame()
	features := Encode(g)

	require.Len(t, features, EncodedSize)
	for i := 0; i < TotalPits; i++ {
		require.InDelta(t, float32(InitialSeeds)/float32(TotalSeeds), features[i], 1e-6)
	}
	require.InDelta(t, float32(0), features[TotalPits], 1e-6)
	require.InDelta(t, float32(0), features[TotalPits+1], 1e-6)
	require.InDelta(t, float32(0), features[TotalPits+2], 1e-6, "P1 to move encodes as 0")
}

func TestEncodeCurrentPlayerFlag(t *testing.T) {
	g := NewGame()
	g.currentPlayer = P2
	features := Encode(g)
	require.InDelta(t, float32(1), features[TotalPits+2], 1e-6, "P2 to move encodes as 1")
}

func TestEncodeIsDeterministic(t *testing.T) {
	g := Execute(NewGame(), 1)
	require.Equal(t, Encode(g), Encode(g))
}
