package dualnet

import (
	"encoding/gob"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// snapshot is the gob-serializable form of a Dual's weights. Adam's
// internal moment/velocity state is deliberately not captured: gorgonia's
// Solver interface does not expose it, so a resumed run starts the
// optimizer state fresh while keeping the learned weights. See
// DESIGN.md.
type snapshot struct {
	Conf Config

	W1, B1 tensorData
	W2, B2 tensorData
	W3, B3 tensorData

	PW1, PB1 tensorData
	PW2, PB2 tensorData

	VW1, VB1 tensorData
	VW2, VB2 tensorData
}

// tensorData is a shape+flat-data pair used to move *tensor.Dense values
// through gob without depending on tensor's own (version-fragile) gob
// encoding.
type tensorData struct {
	Shape []int
	Data  []float32
}

func toTensorData(t *tensor.Dense) tensorData {
	return tensorData{Shape: append([]int(nil), t.Shape()...), Data: append([]float32(nil), t.Data().([]float32)...)}
}

func fromTensorData(td tensorData) *tensor.Dense {
	return tensor.New(tensor.WithShape(td.Shape...), tensor.WithBacking(append([]float32(nil), td.Data...)))
}

func (d *Dual) snapshot() snapshot {
	w := d.w
	return snapshot{
		Conf: d.conf,
		W1:   toTensorData(w.w1), B1: toTensorData(w.b1),
		W2: toTensorData(w.w2), B2: toTensorData(w.b2),
		W3: toTensorData(w.w3), B3: toTensorData(w.b3),
		PW1: toTensorData(w.pw1), PB1: toTensorData(w.pb1),
		PW2: toTensorData(w.pw2), PB2: toTensorData(w.pb2),
		VW1: toTensorData(w.vw1), VB1: toTensorData(w.vb1),
		VW2: toTensorData(w.vw2), VB2: toTensorData(w.vb2),
	}
}

// Save gob-encodes d's weights and configuration to w.
func (d *Dual) Save(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(d.snapshot()); err != nil {
		return errors.Wrap(err, "dualnet: Save")
	}
	return nil
}

// Load reads a checkpoint written by Save and builds a fresh Dual from
// it. The checkpoint's own Config is used, not a caller-supplied one, so
// a loaded network always matches the architecture it was trained with.
func Load(r io.Reader) (*Dual, error) {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, errors.Wrap(err, "dualnet: Load: decode")
	}

	d, err := New(snap.Conf)
	if err != nil {
		return nil, errors.Wrap(err, "dualnet: Load: rebuild")
	}

	assign := func(dst *tensor.Dense, td tensorData) {
		copy(dst.Data().([]float32), td.Data)
	}
	assign(d.w.w1, snap.W1)
	assign(d.w.b1, snap.B1)
	assign(d.w.w2, snap.W2)
	assign(d.w.b2, snap.B2)
	assign(d.w.w3, snap.W3)
	assign(d.w.b3, snap.B3)
	assign(d.w.pw1, snap.PW1)
	assign(d.w.pb1, snap.PB1)
	assign(d.w.pw2, snap.PW2)
	assign(d.w.pb2, snap.PB2)
	assign(d.w.vw1, snap.VW1)
	assign(d.w.vb1, snap.VB1)
	assign(d.w.vw2, snap.VW2)
	assign(d.w.vb2, snap.VB2)
	return d, nil
}

// exportedModel is the JSON weights-export format described in
// spec.md §6, grounded in
// original_source/training/export_model.py:export_to_json.
type exportedModel struct {
	Architecture string                 `json:"architecture"`
	InputSize    int                    `json:"input_size"`
	OutputSize   int                    `json:"output_size"`
	HiddenSize   int                    `json:"hidden_size"`
	Weights      map[string]interface{} `json:"weights"`
}

// ExportJSON writes d's weights in the browser-friendly JSON layout used
// by the original Python tooling, so a trained model can be consumed by
// a non-Go client without round-tripping through gob.
func (d *Dual) ExportJSON(w io.Writer) error {
	// weightRows transposes t (stored here as (in, out), the shape
	// Evaluate/Train multiply against) into PyTorch's nn.Linear
	// (out, in) row-major convention, matching export_model.py's
	// param.detach().numpy().tolist() and the inference_example.ts
	// consumer's output[i] += input[j] * weight[i][j].
	weightRows := func(t *tensor.Dense) [][]float32 {
		shape := t.Shape()
		data := t.Data().([]float32)
		in, out := shape[0], shape[1]
		rows := make([][]float32, out)
		for o := 0; o < out; o++ {
			row := make([]float32, in)
			for i := 0; i < in; i++ {
				row[i] = data[i*out+o]
			}
			rows[o] = row
		}
		return rows
	}

	// biasRow flattens a (1, out) bias tensor to the flat list PyTorch
	// state_dict bias parameters serialize as.
	biasRow := func(t *tensor.Dense) []float32 {
		return append([]float32(nil), t.Data().([]float32)...)
	}

	model := exportedModel{
		Architecture: "SongoNet",
		InputSize:    d.conf.InputSize,
		OutputSize:   d.conf.ActionSpace,
		HiddenSize:   d.conf.HiddenSize,
		Weights: map[string]interface{}{
			"fc1.weight": weightRows(d.w.w1), "fc1.bias": biasRow(d.w.b1),
			"fc2.weight": weightRows(d.w.w2), "fc2.bias": biasRow(d.w.b2),
			"fc3.weight": weightRows(d.w.w3), "fc3.bias": biasRow(d.w.b3),
			"policy_fc1.weight": weightRows(d.w.pw1), "policy_fc1.bias": biasRow(d.w.pb1),
			"policy_fc2.weight": weightRows(d.w.pw2), "policy_fc2.bias": biasRow(d.w.pb2),
			"value_fc1.weight": weightRows(d.w.vw1), "value_fc1.bias": biasRow(d.w.vb1),
			"value_fc2.weight": weightRows(d.w.vw2), "value_fc2.bias": biasRow(d.w.vb2),
		},
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(model); err != nil {
		return errors.Wrap(err, "dualnet: ExportJSON")
	}
	return nil
}
