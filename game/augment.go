package game

// Mirror reflects an encoded feature vector and its policy about the
// P1/P2 axis, producing the board-mirror twin used for training
// augmentation. Grounded in original_source/training/self_play.py:
// augment_data.
func Mirror(features [EncodedSize]float32, policy [ActionSpace]float32) (mFeatures [EncodedSize]float32, mPolicy [ActionSpace]float32) {
	for i := 0; i < PitsPerPlayer; i++ {
		mFeatures[i] = features[PitsPerPlayer+PitsPerPlayer-1-i]
		mFeatures[PitsPerPlayer+i] = features[PitsPerPlayer-1-i]

		mPolicy[i] = policy[PitsPerPlayer+PitsPerPlayer-1-i]
		mPolicy[PitsPerPlayer+i] = policy[PitsPerPlayer-1-i]
	}
	mFeatures[TotalPits] = features[TotalPits+1]
	mFeatures[TotalPits+1] = features[TotalPits]
	mFeatures[TotalPits+2] = 1 - features[TotalPits+2]
	return mFeatures, mPolicy
}
