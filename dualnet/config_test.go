package dualnet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.True(t, DefaultConfig(17, 14).IsValid())
	require.True(t, SmallConfig(17, 14).IsValid())
}

func TestConfigInvalidFields(t *testing.T) {
	base := DefaultConfig(17, 14)

	zeroHidden := base
	zeroHidden.HiddenSize = 0
	require.False(t, zeroHidden.IsValid())

	zeroBatch := base
	zeroBatch.BatchSize = 0
	require.False(t, zeroBatch.IsValid())

	negLR := base
	negLR.LearnRate = -0.1
	require.False(t, negLR.IsValid())
}
