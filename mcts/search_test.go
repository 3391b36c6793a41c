package mcts

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/songozero/songozero/game"
)

// uniformEvaluator returns an equal prior for every action and a fixed
// value, standing in for an untrained network.
type uniformEvaluator struct{ value float32 }

func (u uniformEvaluator) Evaluate(_ [game.EncodedSize]float32) (policy [game.ActionSpace]float32, value float32) {
	for i := range policy {
		policy[i] = 1.0 / float32(game.ActionSpace)
	}
	return policy, u.value
}

func TestSearchPolicySumsToOne(t *testing.T) {
	tree := New(uniformEvaluator{}, Config{PUCT: 1.0, NumSimulation: 64})
	policy := tree.Search(game.NewGame())

	var sum float32
	for _, p := range policy {
		sum += p
	}
	require.InDelta(t, float32(1), sum, 1e-4)
}

func TestSearchOnlyAssignsLegalMoves(t *testing.T) {
	tree := New(uniformEvaluator{}, Config{PUCT: 1.0, NumSimulation: 32})
	state := game.NewGame()
	policy := tree.Search(state)

	legal := map[int]bool{}
	for _, m := range game.ValidMoves(state) {
		legal[m] = true
	}
	for a, p := range policy {
		if p > 0 {
			require.True(t, legal[a], "action %d got nonzero visits but is illegal", a)
		}
	}
}

func TestSearchIsDeterministicForFixedSimulationCount(t *testing.T) {
	conf := Config{PUCT: 1.0, NumSimulation: 50}
	state := game.NewGame()

	a := New(uniformEvaluator{}, conf).Search(state)
	b := New(uniformEvaluator{}, conf).Search(state)
	require.Equal(t, a, b, "search over a fixed evaluator must be deterministic")
}

func TestGetActionWithTempGreedyIsLegal(t *testing.T) {
	tree := New(uniformEvaluator{}, Config{PUCT: 1.0, NumSimulation: 32})
	state := game.NewGame()
	action := tree.GetActionWithTemp(state, 0)

	legal := map[int]bool{}
	for _, m := range game.ValidMoves(state) {
		legal[m] = true
	}
	require.True(t, legal[action])
}

func TestSelectActionUniformFallbackOnZeroPolicy(t *testing.T) {
	var policy [game.ActionSpace]float32
	rng := rand.New(rand.NewSource(1))
	action := SelectAction(policy, game.NewGame(), 1.0, rng)

	legal := map[int]bool{}
	for _, m := range game.ValidMoves(game.NewGame()) {
		legal[m] = true
	}
	require.True(t, legal[action])
}

func TestConfigIsValid(t *testing.T) {
	require.True(t, DefaultConfig().IsValid())
	require.False(t, Config{PUCT: 0, NumSimulation: 10}.IsValid())
	require.False(t, Config{PUCT: 1, NumSimulation: 0}.IsValid())
}
