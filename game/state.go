// Package game implements the Songo (Akông) rules engine: a pure,
// deterministic move generator and executor, a state encoder and the
// evaluator contract consumed by the mcts package.
package game

import "fmt"

// Player identifies one of the two sides.
type Player uint8

// The two players. P1 owns pits 0..6, P2 owns pits 7..13.
const (
	P1 Player = iota
	P2
	NoPlayer // sentinel for "no player"; never a current player
)

// String implements fmt.Stringer.
func (p Player) String() string {
	switch p {
	case P1:
		return "P1"
	case P2:
		return "P2"
	default:
		return "none"
	}
}

// Opponent returns the other player.
func (p Player) Opponent() Player {
	if p == P1 {
		return P2
	}
	return P1
}

// Status is the game's lifecycle state.
type Status uint8

// Status values.
const (
	Playing Status = iota
	Finished
)

func (s Status) String() string {
	if s == Playing {
		return "PLAYING"
	}
	return "FINISHED"
}

// Board layout constants.
const (
	PitsPerPlayer = 7
	TotalPits     = 14
	InitialSeeds  = 5
	WinningScore  = 36
	TotalSeeds    = TotalPits * InitialSeeds // 70, conserved across all reachable states
)

// Move is a pit index in 0..13.
type Move int

// ActionSpace is the fixed number of permissible move slots (pit indices).
const ActionSpace = TotalPits

// Owner reports which player owns pit i.
func Owner(i int) Player {
	if i < PitsPerPlayer {
		return P1
	}
	return P2
}

// PlayerPits returns the half-open range of pit indices [lo, hi) owned by p.
func PlayerPits(p Player) (lo, hi int) {
	if p == P1 {
		return 0, PitsPerPlayer
	}
	return PitsPerPlayer, TotalPits
}

// RightmostPit returns the index of p's rightmost pit (6 for P1, 13 for P2).
func RightmostPit(p Player) int {
	_, hi := PlayerPits(p)
	return hi - 1
}

// GameState is an immutable-by-convention value type: Execute always
// returns a new GameState, never mutates its receiver's board array in
// place from the caller's perspective (the array is copied on write).
type GameState struct {
	board                 [TotalPits]int
	scores                [2]int
	currentPlayer         Player
	status                Status
	winner                Player
	hasWinner             bool
	solidarityMode        bool
	solidarityBeneficiary Player
}

// NewGame returns the initial Songo position: every pit holds 5 seeds,
// both scores are 0, P1 moves first.
func NewGame() GameState {
	g := GameState{currentPlayer: P1, status: Playing}
	for i := range g.board {
		g.board[i] = InitialSeeds
	}
	return g
}

// Board returns a copy of the 14 pit counts.
func (g GameState) Board() [TotalPits]int { return g.board }

// Pit returns the seed count at pit i.
func (g GameState) Pit(i int) int { return g.board[i] }

// Score returns p's accumulated captured seeds.
func (g GameState) Score(p Player) int { return g.scores[p] }

// CurrentPlayer returns whose turn it is.
func (g GameState) CurrentPlayer() Player { return g.currentPlayer }

// Status returns whether the game is still in progress.
func (g GameState) Status() Status { return g.status }

// Winner returns the winning player and whether there is one (false on
// draw or on a still-playing game).
func (g GameState) Winner() (Player, bool) { return g.winner, g.hasWinner }

// SolidarityMode reports whether the next move must feed a beneficiary,
// and who that beneficiary is.
func (g GameState) SolidarityMode() (Player, bool) {
	return g.solidarityBeneficiary, g.solidarityMode
}

// String renders the board for debugging, grounded in
// original_source/training/songo_env.py's render().
func (g GameState) String() string {
	s := fmt.Sprintf("P2: ")
	for i := TotalPits - 1; i >= PitsPerPlayer; i-- {
		s += fmt.Sprintf("[%2d]", g.board[i])
	}
	s += fmt.Sprintf("\nP1: ")
	for i := 0; i < PitsPerPlayer; i++ {
		s += fmt.Sprintf("[%2d]", g.board[i])
	}
	s += fmt.Sprintf("\nscores P1=%d P2=%d to-move=%v status=%v",
		g.scores[P1], g.scores[P2], g.currentPlayer, g.status)
	return s
}

// Evaluator is the stateless policy+value contract MCTS expands leaves
// with. Implementations must be safe for concurrent read-only use.
type Evaluator interface {
	Evaluate(features [EncodedSize]float32) (policy [ActionSpace]float32, value float32)
}
