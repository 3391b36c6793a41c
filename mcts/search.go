package mcts

import (
	"github.com/songozero/songozero/game"
)

// Search builds a fresh tree rooted at state and runs Config.NumSimulation
// simulations, returning the visit-count policy:
//
//	π[a] = child(a).visits / sum_b child(b).visits
//
// with 0 for actions that have no child. Grounded in spec.md §4.D and the
// teacher's mcts/search.go pipeline (EXPAND+SIMULATE, SELECT+RECURSE,
// BACKPROPAGATE), simplified to sequential single-threaded simulations
// per spec.md §5.
func (t *MCTS) Search(state game.GameState) [game.ActionSpace]float32 {
	t.nodes = t.nodes[:0]
	t.root = t.alloc(state, nilNode, -1, 0)

	for i := 0; i < t.config.NumSimulation; i++ {
		t.simulate()
	}

	var policy [game.ActionSpace]float32
	root := &t.nodes[t.root]
	var total uint32
	for a := 0; a < game.ActionSpace; a++ {
		if c := root.children[a]; c.isValid() {
			total += t.nodes[c].visits
		}
	}
	if total > 0 {
		for a := 0; a < game.ActionSpace; a++ {
			if c := root.children[a]; c.isValid() {
				policy[a] = float32(t.nodes[c].visits) / float32(total)
			}
		}
	}
	return policy
}

// simulate runs one SELECT -> EXPAND -> BACKPROPAGATE pass from the root.
func (t *MCTS) simulate() {
	var path []naughty
	id := t.root
	path = append(path, id)

	for {
		node := &t.nodes[id]
		if node.state.Status() == game.Finished {
			t.backup(path, t.terminalValue(id))
			return
		}
		if node.isLeaf() {
			v := t.expand(id)
			t.backup(path, -v)
			return
		}
		action := t.selectChild(id)
		id = node.children[action]
		path = append(path, id)
	}
}

// terminalValue implements spec.md §4.D's terminal-leaf value: +1 if the
// winner is the player that moved into this leaf (the parent's to-move
// player), -1 for the opponent, 0 for a draw.
func (t *MCTS) terminalValue(id naughty) float32 {
	node := &t.nodes[id]
	winner, hasWinner := node.state.Winner()
	if !hasWinner {
		return 0
	}

	mover := node.state.CurrentPlayer().Opponent()
	if node.parent.isValid() {
		mover = t.nodes[node.parent].state.CurrentPlayer()
	}
	if winner == mover {
		return 1
	}
	return -1
}

// expand evaluates leaf id with the evaluator, creates one child per
// legal action with a (re)normalized prior, and returns the evaluator's
// raw value (from the leaf state's own current-player perspective).
func (t *MCTS) expand(id naughty) float32 {
	state := t.nodes[id].state
	features := game.Encode(state)
	policy, value := t.evaluator.Evaluate(features)

	legal := game.ValidMoves(state)
	var sum float32
	for _, a := range legal {
		sum += policy[a]
	}

	for _, a := range legal {
		var prior float32
		if sum > 0 {
			prior = policy[a] / sum
		} else {
			prior = 1 / float32(len(legal))
		}
		child := game.Execute(state, a)
		t.nodes[id].children[a] = t.alloc(child, id, a, prior)
	}
	t.nodes[id].expanded = true
	return value
}

// backup walks path from leaf to root, incrementing visits and adding
// the (sign-flipping) value at each node, per spec.md §4.D.
func (t *MCTS) backup(path []naughty, v float32) {
	for i := len(path) - 1; i >= 0; i-- {
		t.nodes[path[i]].update(v)
		v = -v
	}
}
