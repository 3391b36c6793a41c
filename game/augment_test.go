package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMirrorIsInvolution(t *testing.T) {
	g := Execute(NewGame(), 2)
	features := Encode(g)
	var policy [ActionSpace]float32
	for i := range policy {
		policy[i] = float32(i) / float32(ActionSpace)
	}

	mf, mp := Mirror(features, policy)
	f2, p2 := Mirror(mf, mp)
	require.Equal(t, features, f2)
	require.Equal(t, policy, p2)
}

func TestMirrorSwapsSides(t *testing.T) {
	var features [EncodedSize]float32
	for i := 0; i < PitsPerPlayer; i++ {
		features[i] = float32(i + 1)         // P1 pits 1..7
		features[PitsPerPlayer+i] = float32(10 + i) // P2 pits 10..16
	}
	features[TotalPits] = 3   // P1 score
	features[TotalPits+1] = 5 // P2 score
	features[TotalPits+2] = 0 // P1 to move

	var policy [ActionSpace]float32
	mf, _ := Mirror(features, policy)

	require.Equal(t, float32(16), mf[0], "P2's last pit becomes P1's first")
	require.Equal(t, float32(5), mf[TotalPits], "scores swap")
	require.Equal(t, float32(3), mf[TotalPits+1])
	require.Equal(t, float32(1), mf[TotalPits+2], "to-move flag flips")
}
