package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/songozero/songozero/dualnet"
	"github.com/songozero/songozero/game"
)

func smallConf() dualnet.Config {
	c := dualnet.SmallConfig(game.EncodedSize, game.ActionSpace)
	c.HiddenSize = 8
	c.BatchSize = 4
	return c
}

func TestSaveAndLoadLatestRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")

	net, err := dualnet.New(smallConf())
	require.NoError(t, err)

	require.NoError(t, SaveLatest(dir, 7, net))

	loaded, iteration, err := LoadLatest(dir)
	require.NoError(t, err)
	require.Equal(t, 7, iteration)

	features := game.Encode(game.NewGame())
	p1, v1 := net.Evaluate(features)
	p2, v2 := loaded.Evaluate(features)
	require.Equal(t, p1, p2)
	require.Equal(t, v1, v2)
}

func TestSaveLatestWritesLatestAndMetaOnly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	net, err := dualnet.New(smallConf())
	require.NoError(t, err)

	require.NoError(t, SaveLatest(dir, 3, net))
	require.FileExists(t, filepath.Join(dir, "latest.gob"))
	require.FileExists(t, filepath.Join(dir, "meta.json"))
	require.NoFileExists(t, filepath.Join(dir, "iter_3.gob"))
}

func TestSaveNumberedWritesIterationFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	net, err := dualnet.New(smallConf())
	require.NoError(t, err)

	require.NoError(t, SaveNumbered(dir, 3, net))
	require.FileExists(t, filepath.Join(dir, "iter_3.gob"))
}

func TestLoadLatestMissingDirErrors(t *testing.T) {
	_, _, err := LoadLatest(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
