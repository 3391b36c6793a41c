package songozero

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/songozero/songozero/game"
	"github.com/songozero/songozero/mcts"
)

type uniformEvaluator struct{}

func (uniformEvaluator) Evaluate(_ [game.EncodedSize]float32) (policy [game.ActionSpace]float32, value float32) {
	for i := range policy {
		policy[i] = 1.0 / float32(game.ActionSpace)
	}
	return policy, 0
}

func TestPlayGameTerminatesAndProducesExamples(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sp := NewSelfPlay(uniformEvaluator{}, mcts.Config{PUCT: 1.0, NumSimulation: 8}, 1.0, 30, rng)

	examples := sp.PlayGame()
	require.NotEmpty(t, examples)
	for _, ex := range examples {
		require.Contains(t, []float32{-1, 0, 1}, ex.Outcome)
	}
}

func TestAugmentDoublesExamples(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sp := NewSelfPlay(uniformEvaluator{}, mcts.Config{PUCT: 1.0, NumSimulation: 4}, 1.0, 30, rng)
	examples := sp.PlayGame()

	augmented := Augment(examples)
	require.Len(t, augmented, len(examples)*2)
}
