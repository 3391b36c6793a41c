package mcts

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/songozero/songozero/game"
)

// Config configures an MCTS searcher's PUCT search. Grounded in the teacher's
// mcts/tree.go Config/DefaultConfig/IsValid pattern.
type Config struct {
	PUCT          float32 // exploration constant, c_puct in spec.md §4.D
	NumSimulation int     // simulations run per Search call
}

// DefaultConfig returns a reasonable starting configuration.
func DefaultConfig() Config {
	return Config{PUCT: 1.0, NumSimulation: 100}
}

// IsValid reports whether c can be used to run a search.
func (c Config) IsValid() bool {
	return c.PUCT > 0 && c.NumSimulation > 0
}

// MCTS is a PUCT search tree, rooted and discarded fresh on every Search
// call (spec.md §4.D: "create a fresh root from state"). Nodes are
// arena-allocated (indexed by naughty) rather than individually
// heap-allocated, per spec.md §9's systems-language recommendation and
// grounded in the teacher's mcts/tree.go.
type MCTS struct {
	config    Config
	evaluator game.Evaluator
	rng       *rand.Rand

	nodes []Node
	root  naughty
}

// New creates an MCTS searcher using evaluator to expand leaves.
func New(evaluator game.Evaluator, config Config) *MCTS {
	return &MCTS{
		config:    config,
		evaluator: evaluator,
		rng:       rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		nodes:     make([]Node, 0, 4096),
	}
}

func (t *MCTS) alloc(state game.GameState, parent naughty, action int, prior float32) naughty {
	n := Node{
		state:  state,
		parent: parent,
		action: action,
		prior:  prior,
	}
	for i := range n.children {
		n.children[i] = nilNode
	}
	t.nodes = append(t.nodes, n)
	return naughty(len(t.nodes) - 1)
}

// Reset discards all nodes, freeing the arena for reuse on the next
// search. The teacher's Tree.Reset reuses a freelist under concurrent
// allocation; single-threaded use here just truncates.
func (t *MCTS) Reset() {
	t.nodes = t.nodes[:0]
	t.root = nilNode
}
