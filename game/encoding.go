package game

// EncodedSize is the length of the feature vector produced by Encode:
// 14 pit counts, 2 scores, 1 to-move flag.
const EncodedSize = TotalPits + 2 + 1

// seedDivisor is the total-seed conservation constant; board and score
// values are normalized by it so the encoder's output stays in a small,
// network-friendly range.
const seedDivisor = float32(TotalSeeds)

// Encode maps a GameState to its fixed-size feature vector. It is a pure
// function: Encode(s) == Encode(s) for any two equal states.
func Encode(state GameState) [EncodedSize]float32 {
	var features [EncodedSize]float32
	for i := 0; i < TotalPits; i++ {
		features[i] = float32(state.board[i]) / seedDivisor
	}
	features[TotalPits] = float32(state.scores[P1]) / seedDivisor
	features[TotalPits+1] = float32(state.scores[P2]) / seedDivisor
	if state.currentPlayer == P2 {
		features[TotalPits+2] = 1
	}
	return features
}
