package mcts

// naughty is an arena index standing in for *Node, avoiding per-node
// heap allocation. Grounded in the teacher's mcts/naughty.go.
type naughty int32

const nilNode naughty = -1

func (n naughty) isValid() bool { return n >= 0 }
