package songozero

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/songozero/songozero/mcts"
)

func TestEvaluateVsRandomTalliesAllGames(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	result := EvaluateVsRandom(uniformEvaluator{}, mcts.Config{PUCT: 1.0, NumSimulation: 4}, 4, rng)

	require.Equal(t, 4, result.Wins+result.Draws+result.Losses)
}

func TestWinRateZeroGames(t *testing.T) {
	var r EvalResult
	require.Equal(t, float32(0), r.WinRate())
}

func TestWinRateComputation(t *testing.T) {
	r := EvalResult{Wins: 3, Draws: 1, Losses: 1}
	require.InDelta(t, float32(0.6), r.WinRate(), 1e-6)
}
