// Package checkpoint persists a training run's network weights and
// iteration metadata to disk, grounded in the teacher's
// agogo.go:SaveAZ/Load (a meta.json sidecar plus a gob-encoded model
// file), generalized to versioned checkpoints (iter_<N>.gob) plus an
// always-current latest.gob, and made crash-safe with a
// write-to-temp-then-rename.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/songozero/songozero/dualnet"
)

const (
	metaFile   = "meta.json"
	latestFile = "latest.gob"
)

// MetaData is the JSON sidecar recorded alongside every checkpoint.
type MetaData struct {
	Iteration int            `json:"iteration"`
	NNConf    dualnet.Config `json:"nn_conf"`
}

// SaveLatest atomically overwrites dir's rolling "latest.gob" (plus its
// meta.json sidecar) with net's weights at iteration. Called
// unconditionally at the end of every training iteration, per spec.md
// §4.H step 6 and original_source/training/train.py's unconditional
// save_checkpoint(..., "songo_latest.pt") — so Resume never loses more
// than the in-flight iteration's work.
func SaveLatest(dir string, iteration int, net *dualnet.Dual) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "checkpoint: SaveLatest: mkdir")
	}
	if err := writeAtomic(filepath.Join(dir, latestFile), net.Save); err != nil {
		return errors.Wrap(err, "checkpoint: SaveLatest: write")
	}

	meta := MetaData{Iteration: iteration, NNConf: net.Conf()}
	jsonStr, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "checkpoint: SaveLatest: marshal meta")
	}
	writeMeta := func(w io.Writer) error {
		_, err := w.Write(jsonStr)
		return err
	}
	if err := writeAtomic(filepath.Join(dir, metaFile), writeMeta); err != nil {
		return errors.Wrap(err, "checkpoint: SaveLatest: write meta")
	}
	return nil
}

// SaveNumbered atomically writes a standalone "iter_<iteration>.gob"
// snapshot to dir, independent of and in addition to SaveLatest.
func SaveNumbered(dir string, iteration int, net *dualnet.Dual) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "checkpoint: SaveNumbered: mkdir")
	}
	iterFile := filepath.Join(dir, fmt.Sprintf("iter_%d.gob", iteration))
	if err := writeAtomic(iterFile, net.Save); err != nil {
		return errors.Wrap(err, "checkpoint: SaveNumbered: write")
	}
	return nil
}

// LoadLatest loads the most recently saved checkpoint from dir,
// returning the reconstructed network and the iteration it was saved at.
func LoadLatest(dir string) (*dualnet.Dual, int, error) {
	metaStr, err := ioutil.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, 0, errors.Wrap(err, "checkpoint: LoadLatest: read meta")
	}
	var meta MetaData
	if err := json.Unmarshal(metaStr, &meta); err != nil {
		return nil, 0, errors.Wrap(err, "checkpoint: LoadLatest: unmarshal meta")
	}

	f, err := os.Open(filepath.Join(dir, latestFile))
	if err != nil {
		return nil, 0, errors.Wrap(err, "checkpoint: LoadLatest: open model")
	}
	defer f.Close()

	net, err := dualnet.Load(f)
	if err != nil {
		return nil, 0, errors.Wrap(err, "checkpoint: LoadLatest: decode model")
	}
	return net, meta.Iteration, nil
}

// writeAtomic writes the output of encode to path via a temp file in the
// same directory followed by an atomic rename, so a crash mid-write
// never leaves a truncated checkpoint in place.
func writeAtomic(path string, encode func(io.Writer) error) (err error) {
	tmp, err := ioutil.TempFile(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if err = encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
