// Package songozero is the top-level orchestration layer: self-play
// game generation, the training loop, and evaluation against a random
// opponent. Grounded in the teacher's agogo.go/arena.go (Arena.Play,
// AZ.LearnAZ) and original_source/training/self_play.py's
// SelfPlayEngine, adapted from the teacher's two-agent best/current
// arena to the single-network self-play the Python original and
// spec.md both describe.
package songozero

import (
	"golang.org/x/exp/rand"

	"github.com/songozero/songozero/game"
	"github.com/songozero/songozero/mcts"
	"github.com/songozero/songozero/replay"
)

// SelfPlay generates training examples by having one network play
// against itself with MCTS-guided move selection.
type SelfPlay struct {
	tree                 *mcts.MCTS
	temperature          float32
	temperatureThreshold int // after this many moves, selection becomes greedy
	rng                  *rand.Rand
}

// NewSelfPlay builds a SelfPlay engine. temperature is the exploration
// temperature used for the opening moves of each game, per
// original_source/training/self_play.py:play_game's default
// (temperature=1.0, temperature_threshold=30).
func NewSelfPlay(evaluator game.Evaluator, mctsConf mcts.Config, temperature float32, temperatureThreshold int, rng *rand.Rand) *SelfPlay {
	return &SelfPlay{
		tree:                 mcts.New(evaluator, mctsConf),
		temperature:          temperature,
		temperatureThreshold: temperatureThreshold,
		rng:                  rng,
	}
}

// pending is an in-progress example, awaiting the eventual game outcome.
type pending struct {
	features [game.EncodedSize]float32
	policy   [game.ActionSpace]float32
	player   game.Player
}

// PlayGame plays one self-play game to completion and returns every
// move's training example, each carrying the final outcome from its own
// mover's perspective.
func (s *SelfPlay) PlayGame() []replay.Example {
	state := game.NewGame()
	var history []pending
	moveNum := 0

	for state.Status() == game.Playing {
		moveNum++
		features := game.Encode(state)
		policy := s.tree.Search(state)

		history = append(history, pending{features: features, policy: policy, player: state.CurrentPlayer()})

		temp := s.temperature
		if moveNum > s.temperatureThreshold {
			temp = 0
		}
		action := mcts.SelectAction(policy, state, temp, s.rng)
		state = game.Execute(state, action)
	}
	s.tree.Reset()

	winner, hasWinner := state.Winner()
	examples := make([]replay.Example, len(history))
	for i, p := range history {
		var outcome float32
		if hasWinner {
			if winner == p.player {
				outcome = 1
			} else {
				outcome = -1
			}
		}
		examples[i] = replay.Example{Features: p.features, Policy: p.policy, Outcome: outcome}
	}
	return examples
}

// GenerateGames plays numGames self-play games and returns every
// example produced, mirroring
// original_source/training/self_play.py:generate_games.
func (s *SelfPlay) GenerateGames(numGames int) []replay.Example {
	var all []replay.Example
	for i := 0; i < numGames; i++ {
		all = append(all, s.PlayGame()...)
	}
	return all
}

// Augment returns a new slice holding every example followed by its
// board-mirror twin, per original_source/training/self_play.py:augment_data.
func Augment(examples []replay.Example) []replay.Example {
	out := make([]replay.Example, 0, len(examples)*2)
	for _, ex := range examples {
		out = append(out, ex)
		mf, mp := game.Mirror(ex.Features, ex.Policy)
		out = append(out, replay.Example{Features: mf, Policy: mp, Outcome: ex.Outcome})
	}
	return out
}
