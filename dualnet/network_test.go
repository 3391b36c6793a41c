package dualnet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/songozero/songozero/game"
)

func smallConf() Config {
	c := SmallConfig(game.EncodedSize, game.ActionSpace)
	c.HiddenSize = 8
	c.BatchSize = 4
	return c
}

func TestNewRejectsMismatchedDims(t *testing.T) {
	c := smallConf()
	c.InputSize = game.EncodedSize + 1
	_, err := New(c)
	require.Error(t, err)
}

func TestEvaluateReturnsNormalizedPolicyOverLegalShape(t *testing.T) {
	net, err := New(smallConf())
	require.NoError(t, err)

	features := game.Encode(game.NewGame())
	policy, value := net.Evaluate(features)

	var sum float32
	for _, p := range policy {
		require.GreaterOrEqual(t, p, float32(0))
		sum += p
	}
	require.InDelta(t, float32(1), sum, 1e-3)
	require.GreaterOrEqual(t, value, float32(-1))
	require.LessOrEqual(t, value, float32(1))
}

func TestTrainReducesLossOverRepeatedSteps(t *testing.T) {
	net, err := New(smallConf())
	require.NoError(t, err)

	features := game.Encode(game.NewGame())
	var policy [game.ActionSpace]float32
	for _, m := range game.ValidMoves(game.NewGame()) {
		policy[m] = 1.0 / float32(len(game.ValidMoves(game.NewGame())))
	}

	batch := Batch{
		Features: make([][game.EncodedSize]float32, 4),
		Policies: make([][game.ActionSpace]float32, 4),
		Values:   make([]float32, 4),
	}
	for i := range batch.Features {
		batch.Features[i] = features
		batch.Policies[i] = policy
		batch.Values[i] = 1
	}

	first, err := net.Train(batch)
	require.NoError(t, err)
	var last float32
	for i := 0; i < 20; i++ {
		last, err = net.Train(batch)
		require.NoError(t, err)
	}
	require.Less(t, last, first, "loss should decrease after repeated gradient steps on a fixed batch")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	net, err := New(smallConf())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, net.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)

	features := game.Encode(game.NewGame())
	p1, v1 := net.Evaluate(features)
	p2, v2 := loaded.Evaluate(features)
	require.Equal(t, p1, p2)
	require.Equal(t, v1, v2)
}

func TestCloseReleasesVMsWithoutError(t *testing.T) {
	net, err := New(smallConf())
	require.NoError(t, err)
	require.NoError(t, net.Close())
}

func TestExportJSONContainsExpectedKeys(t *testing.T) {
	net, err := New(smallConf())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, net.ExportJSON(&buf))
	require.Contains(t, buf.String(), `"fc1.weight"`)
	require.Contains(t, buf.String(), `"policy_fc2.weight"`)
	require.Contains(t, buf.String(), `"value_fc2.weight"`)
}
