package songozero

import (
	"golang.org/x/exp/rand"

	"github.com/songozero/songozero/game"
	"github.com/songozero/songozero/mcts"
)

// EvalResult tallies the outcome of an evaluation match.
type EvalResult struct {
	Wins, Draws, Losses int
}

// WinRate returns the fraction of games won, 0 if no games were played.
func (r EvalResult) WinRate() float32 {
	total := r.Wins + r.Draws + r.Losses
	if total == 0 {
		return 0
	}
	return float32(r.Wins) / float32(total)
}

// EvaluateVsRandom plays numGames games between evaluator (driven by
// greedy MCTS) and a uniform-random mover, alternating which player the
// network plays each game, mirroring
// original_source/training/train.py:evaluate_vs_random.
func EvaluateVsRandom(evaluator game.Evaluator, mctsConf mcts.Config, numGames int, rng *rand.Rand) EvalResult {
	var result EvalResult
	tree := mcts.New(evaluator, mctsConf)

	for g := 0; g < numGames; g++ {
		networkIsP1 := g%2 == 0
		state := game.NewGame()

		for state.Status() == game.Playing {
			networksTurn := (state.CurrentPlayer() == game.P1) == networkIsP1
			var action int
			if networksTurn {
				action = tree.GetActionWithTemp(state, 0)
			} else {
				legal := game.ValidMoves(state)
				action = legal[rng.Intn(len(legal))]
			}
			state = game.Execute(state, action)
		}
		tree.Reset()

		winner, hasWinner := state.Winner()
		switch {
		case !hasWinner:
			result.Draws++
		case (winner == game.P1) == networkIsP1:
			result.Wins++
		default:
			result.Losses++
		}
	}
	return result
}
