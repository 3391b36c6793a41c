// Package replay implements the bounded experience replay buffer used
// between self-play and training, grounded in
// original_source/training/train.py's ReplayBuffer.
package replay

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/songozero/songozero/game"
)

// Example is one training example: an encoded state, the MCTS visit-count
// policy target, and the eventual game outcome from that state's
// to-move player's perspective.
type Example struct {
	Features [game.EncodedSize]float32
	Policy   [game.ActionSpace]float32
	Outcome  float32
}

// Buffer is a fixed-capacity FIFO replay buffer: once full, adding a new
// example evicts the oldest one. Unlike the Python original's
// slice-slicing eviction, capacity is enforced with a ring so Add is
// O(1) regardless of buffer size.
type Buffer struct {
	examples []Example
	capacity int
	next     int // ring write cursor, once full
	full     bool
}

// New creates an empty Buffer holding at most capacity examples.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic("replay: capacity must be positive")
	}
	return &Buffer{capacity: capacity, examples: make([]Example, 0, capacity)}
}

// Add appends examples to the buffer, evicting the oldest entries once
// capacity is exceeded.
func (b *Buffer) Add(examples []Example) {
	for _, ex := range examples {
		if len(b.examples) < b.capacity {
			b.examples = append(b.examples, ex)
			continue
		}
		b.examples[b.next] = ex
		b.next = (b.next + 1) % b.capacity
		b.full = true
	}
}

// Size returns the number of examples currently held.
func (b *Buffer) Size() int { return len(b.examples) }

// Sample draws min(n, Size()) examples without replacement, uniformly at
// random, using gonum's sampleuv.WithoutReplacement in place of the
// Python original's np.random.choice.
func (b *Buffer) Sample(n int, rng *rand.Rand) []Example {
	if n > len(b.examples) {
		n = len(b.examples)
	}
	if n == 0 {
		return nil
	}

	idx := make([]int, n)
	sampleuv.WithoutReplacement(idx, len(b.examples), rng)

	out := make([]Example, n)
	for i, j := range idx {
		out[i] = b.examples[j]
	}
	return out
}

// Save gob-encodes the buffer's contents, oldest example first.
func (b *Buffer) Save(w io.Writer) error {
	ordered := b.examples
	if b.full {
		ordered = append(append([]Example(nil), b.examples[b.next:]...), b.examples[:b.next]...)
	}
	if err := gob.NewEncoder(w).Encode(ordered); err != nil {
		return errors.Wrap(err, "replay: Save")
	}
	return nil
}

// Load replaces b's contents with examples decoded from r, truncating to
// the most recent capacity entries if the saved buffer is larger.
func (b *Buffer) Load(r io.Reader) error {
	var examples []Example
	if err := gob.NewDecoder(r).Decode(&examples); err != nil {
		return errors.Wrap(err, "replay: Load")
	}
	if len(examples) > b.capacity {
		examples = examples[len(examples)-b.capacity:]
	}
	b.examples = examples
	b.next = 0
	b.full = len(examples) == b.capacity
	return nil
}
