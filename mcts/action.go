package mcts

import (
	"github.com/chewxy/math32"
	"golang.org/x/exp/rand"

	"github.com/songozero/songozero/game"
)

// SelectAction picks a move from policy π under temperature τ, restricted
// to state's legal moves, per spec.md §4.D:
//
//   - τ = 0: the legal action with maximum π, ties broken by smallest
//     action index.
//   - τ = 1: sample directly from π restricted to legal moves and
//     renormalized.
//   - otherwise: raise π to 1/τ, renormalize over legal moves, sample.
func SelectAction(policy [game.ActionSpace]float32, state game.GameState, temperature float32, rng *rand.Rand) int {
	legal := game.ValidMoves(state)

	if temperature == 0 {
		best := legal[0]
		bestP := policy[best]
		for _, a := range legal[1:] {
			if policy[a] > bestP {
				bestP = policy[a]
				best = a
			}
		}
		return best
	}

	weights := make([]float32, len(legal))
	var sum float32
	for i, a := range legal {
		w := policy[a]
		if temperature != 1 {
			w = math32.Pow(w, 1/temperature)
		}
		weights[i] = w
		sum += w
	}

	if sum <= 0 {
		// all-zero guard: fall back to uniform over legal moves.
		for i := range weights {
			weights[i] = 1
		}
		sum = float32(len(weights))
	}

	r := rng.Float32() * sum
	var accum float32
	for i, w := range weights {
		accum += w
		if r < accum {
			return legal[i]
		}
	}
	return legal[len(legal)-1]
}

// GetActionWithTemp runs Search from state and selects a move under
// temperature, mirroring original_source/training/mcts.py:
// get_action_with_temp.
func (t *MCTS) GetActionWithTemp(state game.GameState, temperature float32) int {
	policy := t.Search(state)
	return SelectAction(policy, state, temperature, t.rng)
}
