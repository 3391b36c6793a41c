package dualnet

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gorgonia.org/vecf32"

	"github.com/songozero/songozero/game"
)

// Dual is a policy+value network implementing game.Evaluator, grounded in
// original_source/training/songo_net.py's SongoNet: a shared trunk of
// dense+relu layers with one residual connection, followed by a policy
// head (softmax over game.ActionSpace moves) and a value head (tanh
// scalar). BatchNorm from the Python original is dropped — gorgonia
// v0.9's batch-norm op assumes a training-mode batch, which is a poor
// fit for the single-state inference the search tree performs; see
// DESIGN.md.
//
// Two gorgonia graphs share one set of weight tensors: an inference
// graph fixed at batch size 1 (used by Evaluate, on the hot path of
// every MCTS leaf expansion) and a training graph fixed at
// Config.BatchSize (used by Train). Weight nodes in both graphs are
// built with gorgonia.WithValue pointing at the same *tensor.Dense
// backing array, so a solver step against the training graph is
// immediately visible to the inference graph.
type Dual struct {
	conf Config

	w weights

	inferGraph  *G.ExprGraph
	inferVM     G.VM
	inferInput  *G.Node
	inferPolicy *G.Node
	inferValue  *G.Node

	trainGraph   *G.ExprGraph
	trainVM      G.VM
	trainSolver  G.Solver
	trainInput   *G.Node
	trainPTarget *G.Node
	trainVTarget *G.Node
	trainLoss    *G.Node
	learnables   G.Nodes
}

// weights holds the raw parameter tensors shared between the inference
// and training graphs.
type weights struct {
	w1, b1 *tensor.Dense
	w2, b2 *tensor.Dense
	w3, b3 *tensor.Dense

	pw1, pb1 *tensor.Dense
	pw2, pb2 *tensor.Dense

	vw1, vb1 *tensor.Dense
	vw2, vb2 *tensor.Dense
}

// Conf returns the configuration d was built from.
func (d *Dual) Conf() Config { return d.conf }

// New builds and initializes a Dual network from conf.
func New(conf Config) (*Dual, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("dualnet: invalid config %+v", conf)
	}
	if conf.InputSize != game.EncodedSize {
		return nil, errors.Errorf("dualnet: input size %d does not match game.EncodedSize %d", conf.InputSize, game.EncodedSize)
	}
	if conf.ActionSpace != game.ActionSpace {
		return nil, errors.Errorf("dualnet: action space %d does not match game.ActionSpace %d", conf.ActionSpace, game.ActionSpace)
	}

	h := conf.HiddenSize
	d := &Dual{conf: conf}
	d.w = weights{
		w1: glorot(conf.InputSize, h), b1: tensor.New(tensor.WithShape(1, h), tensor.Of(tensor.Float32)),
		w2: glorot(h, h), b2: tensor.New(tensor.WithShape(1, h), tensor.Of(tensor.Float32)),
		w3: glorot(h, h), b3: tensor.New(tensor.WithShape(1, h), tensor.Of(tensor.Float32)),

		pw1: glorot(h, h/2), pb1: tensor.New(tensor.WithShape(1, h/2), tensor.Of(tensor.Float32)),
		pw2: glorot(h/2, conf.ActionSpace), pb2: tensor.New(tensor.WithShape(1, conf.ActionSpace), tensor.Of(tensor.Float32)),

		vw1: glorot(h, h/4), vb1: tensor.New(tensor.WithShape(1, h/4), tensor.Of(tensor.Float32)),
		vw2: glorot(h/4, 1), vb2: tensor.New(tensor.WithShape(1, 1), tensor.Of(tensor.Float32)),
	}

	if err := d.buildInferGraph(); err != nil {
		return nil, err
	}
	if err := d.buildTrainGraph(); err != nil {
		return nil, err
	}
	return d, nil
}

// forward wires the shared trunk plus both heads onto g for a batch of
// size bs, binding every weight node to its shared tensor in d.w so the
// two graphs always see the same parameters.
func (d *Dual) forward(g *G.ExprGraph, bs int, input *G.Node) (policyLogits, value *G.Node, err error) {
	w := d.w
	mustNode := func(n *G.Node, e error) *G.Node {
		if e != nil && err == nil {
			err = e
		}
		return n
	}
	weight := func(t *tensor.Dense, name string) *G.Node {
		return G.NewMatrix(g, tensor.Float32, G.WithShape(t.Shape()...), G.WithName(name), G.WithValue(t))
	}
	bias := func(t *tensor.Dense, name string) *G.Node {
		return G.NewMatrix(g, tensor.Float32, G.WithShape(t.Shape()...), G.WithName(name), G.WithValue(t))
	}

	w1, b1 := weight(w.w1, "w1"), bias(w.b1, "b1")
	w2, b2 := weight(w.w2, "w2"), bias(w.b2, "b2")
	w3, b3 := weight(w.w3, "w3"), bias(w.b3, "b3")
	pw1, pb1 := weight(w.pw1, "pw1"), bias(w.pb1, "pb1")
	pw2, pb2 := weight(w.pw2, "pw2"), bias(w.pb2, "pb2")
	vw1, vb1 := weight(w.vw1, "vw1"), bias(w.vb1, "vb1")
	vw2, vb2 := weight(w.vw2, "vw2"), bias(w.vb2, "vb2")

	x1 := mustNode(G.Rectify(mustNode(G.BroadcastAdd(mustNode(G.Mul(input, w1)), b1, nil, []byte{0}))))
	x2 := mustNode(G.Rectify(mustNode(G.BroadcastAdd(mustNode(G.Mul(x1, w2)), b2, nil, []byte{0}))))
	x3pre := mustNode(G.Rectify(mustNode(G.BroadcastAdd(mustNode(G.Mul(x2, w3)), b3, nil, []byte{0}))))
	x3 := mustNode(G.Add(x3pre, x1))

	p1 := mustNode(G.Rectify(mustNode(G.BroadcastAdd(mustNode(G.Mul(x3, pw1)), pb1, nil, []byte{0}))))
	policyLogits = mustNode(G.BroadcastAdd(mustNode(G.Mul(p1, pw2)), pb2, nil, []byte{0}))

	v1 := mustNode(G.Rectify(mustNode(G.BroadcastAdd(mustNode(G.Mul(x3, vw1)), vb1, nil, []byte{0}))))
	vraw := mustNode(G.BroadcastAdd(mustNode(G.Mul(v1, vw2)), vb2, nil, []byte{0}))
	value = mustNode(G.Tanh(vraw))

	if err != nil {
		return nil, nil, errors.Wrap(err, "dualnet: building forward graph")
	}
	_ = bs
	return policyLogits, value, nil
}

func (d *Dual) buildInferGraph() error {
	g := G.NewGraph()
	input := G.NewMatrix(g, tensor.Float32, G.WithShape(1, d.conf.InputSize), G.WithName("infer_input"))
	logits, value, err := d.forward(g, 1, input)
	if err != nil {
		return err
	}
	policy, err := G.SoftMax(logits)
	if err != nil {
		return errors.Wrap(err, "dualnet: softmax")
	}

	d.inferGraph = g
	d.inferInput = input
	d.inferPolicy = policy
	d.inferValue = value
	d.inferVM = G.NewTapeMachine(g)
	return nil
}

func (d *Dual) buildTrainGraph() error {
	bs := d.conf.BatchSize
	g := G.NewGraph()
	input := G.NewMatrix(g, tensor.Float32, G.WithShape(bs, d.conf.InputSize), G.WithName("train_input"))
	policyTarget := G.NewMatrix(g, tensor.Float32, G.WithShape(bs, d.conf.ActionSpace), G.WithName("policy_target"))
	valueTarget := G.NewMatrix(g, tensor.Float32, G.WithShape(bs, 1), G.WithName("value_target"))

	logits, value, err := d.forward(g, bs, input)
	if err != nil {
		return err
	}

	logProbs, err := G.LogSoftmax(logits)
	if err != nil {
		return errors.Wrap(err, "dualnet: log softmax")
	}
	// cross-entropy against the MCTS visit-count target distribution:
	// -mean(sum_a target[a] * log_softmax(logits)[a])
	ce, err := G.HadamardProd(policyTarget, logProbs)
	if err != nil {
		return errors.Wrap(err, "dualnet: policy loss hadamard")
	}
	ceSum, err := G.Sum(ce)
	if err != nil {
		return err
	}
	policyLoss, err := G.Neg(G.Must(G.Div(ceSum, G.NewConstant(float32(bs)))))
	if err != nil {
		return errors.Wrap(err, "dualnet: policy loss")
	}

	diff, err := G.Sub(value, valueTarget)
	if err != nil {
		return err
	}
	sq, err := G.Square(diff)
	if err != nil {
		return err
	}
	valueLoss, err := G.Mean(sq)
	if err != nil {
		return err
	}

	loss, err := G.Add(policyLoss, valueLoss)
	if err != nil {
		return errors.Wrap(err, "dualnet: total loss")
	}

	learnables := G.Nodes{}
	for _, n := range g.AllNodes() {
		if n.IsVar() && n != input && n != policyTarget && n != valueTarget {
			learnables = append(learnables, n)
		}
	}
	if _, err := G.Grad(loss, learnables...); err != nil {
		return errors.Wrap(err, "dualnet: backprop graph")
	}

	d.trainGraph = g
	d.trainInput = input
	d.trainPTarget = policyTarget
	d.trainVTarget = valueTarget
	d.trainLoss = loss
	d.learnables = learnables
	d.trainVM = G.NewTapeMachine(g, G.BindDualValues(learnables...))
	d.trainSolver = G.NewAdamSolver(G.WithLearnRate(float64(d.conf.LearnRate)))
	return nil
}

// Evaluate implements game.Evaluator by running the inference graph on a
// single encoded state.
func (d *Dual) Evaluate(features [game.EncodedSize]float32) (policy [game.ActionSpace]float32, value float32) {
	in := tensor.New(tensor.WithShape(1, d.conf.InputSize), tensor.WithBacking(append([]float32(nil), features[:]...)))
	if err := G.Let(d.inferInput, in); err != nil {
		panic(fmt.Sprintf("dualnet: Evaluate: %v", err))
	}
	if err := d.inferVM.RunAll(); err != nil {
		panic(fmt.Sprintf("dualnet: Evaluate: %v", err))
	}
	defer d.inferVM.Reset()

	pData := d.inferPolicy.Value().Data().([]float32)
	copy(policy[:], pData)
	value = d.inferValue.Value().Data().([]float32)[0]
	return policy, value
}

// Close releases the gorgonia VMs backing d. A Dual must not be used
// after Close.
func (d *Dual) Close() error {
	var errs *multierror.Error
	if err := d.inferVM.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := d.trainVM.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// WeightNorm returns the L2 norm of every trunk and head weight matrix
// concatenated together, a cheap training-health diagnostic (a norm
// that diverges or collapses to zero usually means the learning rate is
// off). Computed directly over the raw backing slices with
// gorgonia.org/vecf32 rather than through the graph, since it is a
// read-only stat that does not need a forward pass.
func (d *Dual) WeightNorm() float32 {
	var sumSq float32
	for _, t := range []*tensor.Dense{
		d.w.w1, d.w.w2, d.w.w3,
		d.w.pw1, d.w.pw2,
		d.w.vw1, d.w.vw2,
	} {
		data := t.Data().([]float32)
		sumSq += vecf32.Dot(data, data)
	}
	return math32.Sqrt(sumSq)
}

// Batch is one minibatch of self-play examples for Train.
type Batch struct {
	Features [][game.EncodedSize]float32
	Policies [][game.ActionSpace]float32
	Values   []float32
}

// Train runs one gradient step over batch, which must have exactly
// Config.BatchSize rows, and returns the combined policy+value loss.
func (d *Dual) Train(batch Batch) (float32, error) {
	n := len(batch.Features)
	if n != d.conf.BatchSize {
		return 0, errors.Errorf("dualnet: Train: batch has %d rows, want %d", n, d.conf.BatchSize)
	}

	inputData := make([]float32, 0, n*d.conf.InputSize)
	for _, f := range batch.Features {
		inputData = append(inputData, f[:]...)
	}
	policyData := make([]float32, 0, n*d.conf.ActionSpace)
	for _, p := range batch.Policies {
		policyData = append(policyData, p[:]...)
	}

	inTensor := tensor.New(tensor.WithShape(n, d.conf.InputSize), tensor.WithBacking(inputData))
	pTensor := tensor.New(tensor.WithShape(n, d.conf.ActionSpace), tensor.WithBacking(policyData))
	vTensor := tensor.New(tensor.WithShape(n, 1), tensor.WithBacking(append([]float32(nil), batch.Values...)))

	if err := G.Let(d.trainInput, inTensor); err != nil {
		return 0, err
	}
	if err := G.Let(d.trainPTarget, pTensor); err != nil {
		return 0, err
	}
	if err := G.Let(d.trainVTarget, vTensor); err != nil {
		return 0, err
	}

	if err := d.trainVM.RunAll(); err != nil {
		return 0, errors.Wrap(err, "dualnet: Train: forward+backward")
	}
	defer d.trainVM.Reset()

	if err := d.trainSolver.Step(G.NodesToValueGrads(d.learnables)); err != nil {
		return 0, errors.Wrap(err, "dualnet: Train: solver step")
	}

	return d.trainLoss.Value().Data().(float32), nil
}

// glorot initializes a (rows, cols) weight tensor with Glorot-normal
// values (gain 1.0).
func glorot(rows, cols int) *tensor.Dense {
	g := G.NewGraph()
	n := G.NewMatrix(g, tensor.Float32, G.WithShape(rows, cols), G.WithInit(G.GlorotN(1.0)), G.WithName("init"))
	vm := G.NewTapeMachine(g)
	if err := vm.RunAll(); err != nil {
		panic(fmt.Sprintf("dualnet: glorot init: %v", err))
	}
	defer vm.Close()
	return n.Value().(*tensor.Dense).Clone().(*tensor.Dense)
}
