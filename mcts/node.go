package mcts

import (
	"github.com/chewxy/math32"

	"github.com/songozero/songozero/game"
)

// Node is one position in the search tree, arena-allocated and
// addressed by a naughty index. Grounded in the teacher's mcts/node.go,
// simplified to single-threaded use (no per-node lock, no status enum —
// spec.md §5 makes one search call synchronous).
type Node struct {
	state    game.GameState
	action   int  // the move that produced this node from its parent; -1 at root
	parent   naughty
	prior    float32
	visits   uint32
	valueSum float32

	expanded bool
	children [game.ActionSpace]naughty
}

// isLeaf reports whether n has not yet been expanded.
func (n *Node) isLeaf() bool { return !n.expanded }

// q returns Q(n) = value_sum / max(1, visits), 0 for an unvisited node.
func (n *Node) q() float32 {
	if n.visits == 0 {
		return 0
	}
	return n.valueSum / float32(n.visits)
}

// update accumulates one backed-up value.
func (n *Node) update(v float32) {
	n.visits++
	n.valueSum += v
}

// selectChild returns the child action maximizing the PUCT score, per
// spec.md §4.D:
//
//	U(a) = -Q(child(a)) + c_puct * P(a) * sqrt(sum_b N(child(b))) / (1 + N(child(a)))
//
// Ties are broken by first-insertion (lowest action index) order.
func (t *MCTS) selectChild(id naughty) int {
	n := &t.nodes[id]

	var totalVisits uint32
	for a := 0; a < game.ActionSpace; a++ {
		if c := n.children[a]; c.isValid() {
			totalVisits += t.nodes[c].visits
		}
	}
	numerator := math32.Sqrt(float32(totalVisits))

	best := -1
	bestScore := math32.Inf(-1)
	for a := 0; a < game.ActionSpace; a++ {
		c := n.children[a]
		if !c.isValid() {
			continue
		}
		child := &t.nodes[c]
		u := -child.q() + t.config.PUCT*child.prior*(numerator/(1+float32(child.visits)))
		if u > bestScore {
			bestScore = u
			best = a
		}
	}
	return best
}
