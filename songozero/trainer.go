package songozero

import (
	"log"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/songozero/songozero/checkpoint"
	"github.com/songozero/songozero/dualnet"
	"github.com/songozero/songozero/game"
	"github.com/songozero/songozero/mcts"
	"github.com/songozero/songozero/replay"
)

// Config configures a training run, mirroring the flags parsed by
// original_source/training/train.py's argparse CLI.
type Config struct {
	NNConf   dualnet.Config
	MCTSConf mcts.Config

	NumIterations        int
	GamesPerIteration    int
	TrainStepsPerIter    int
	Temperature          float32
	TemperatureThreshold int
	UseAugmentation      bool

	ReplayBufferSize int
	EvalFrequency    int // iterations between random-opponent evaluations
	EvalGames        int
	CheckpointFreq   int // iterations between numbered checkpoints
	CheckpointDir    string
}

// DefaultConfig mirrors train.py's default CLI flag values.
func DefaultConfig() Config {
	return Config{
		NNConf:                dualnet.DefaultConfig(game.EncodedSize, game.ActionSpace),
		MCTSConf:              mcts.DefaultConfig(),
		NumIterations:         100,
		GamesPerIteration:     20,
		TrainStepsPerIter:     50,
		Temperature:           1.0,
		TemperatureThreshold:  30,
		UseAugmentation:       true,
		ReplayBufferSize:      50000,
		EvalFrequency:         5,
		EvalGames:             20,
		CheckpointFreq:        10,
		CheckpointDir:         "checkpoints",
	}
}

// Trainer runs the self-play/train/evaluate/checkpoint loop described in
// spec.md's component H, grounded in the teacher's AZ.LearnAZ and
// original_source/training/train.py's main().
type Trainer struct {
	conf   Config
	net    *dualnet.Dual
	buffer *replay.Buffer
	rng    *rand.Rand
	logger *log.Logger

	startIteration int
}

// NewTrainer builds a Trainer starting from iteration 0 with a freshly
// initialized network.
func NewTrainer(conf Config, logger *log.Logger) (*Trainer, error) {
	net, err := dualnet.New(conf.NNConf)
	if err != nil {
		return nil, errors.Wrap(err, "songozero: NewTrainer")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Trainer{
		conf:   conf,
		net:    net,
		buffer: replay.New(conf.ReplayBufferSize),
		rng:    rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		logger: logger,
	}, nil
}

// Resume loads the latest checkpoint in conf.CheckpointDir and continues
// training from the following iteration, mirroring
// train.py's --resume-from handling.
func Resume(conf Config, logger *log.Logger) (*Trainer, error) {
	net, iteration, err := checkpoint.LoadLatest(conf.CheckpointDir)
	if err != nil {
		return nil, errors.Wrap(err, "songozero: Resume")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Trainer{
		conf:           conf,
		net:            net,
		buffer:         replay.New(conf.ReplayBufferSize),
		rng:            rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		logger:         logger,
		startIteration: iteration,
	}, nil
}

// Network exposes the trainer's current network, e.g. for an interactive
// play command.
func (t *Trainer) Network() *dualnet.Dual { return t.net }

// Close releases the trainer's network resources. Call after Run returns.
func (t *Trainer) Close() error { return t.net.Close() }

// Run executes conf.NumIterations training iterations: self-play,
// optional augmentation, replay buffer insertion, a batch of gradient
// steps, periodic random-opponent evaluation, and checkpointing. The
// rolling latest checkpoint is written after every iteration
// unconditionally, matching train.py's unconditional "save latest"
// call; a numbered snapshot is additionally written every
// CheckpointFreq iterations and on the final iteration.
func (t *Trainer) Run() error {
	for iteration := t.startIteration; iteration < t.conf.NumIterations; iteration++ {
		t.logger.Printf("iteration %d/%d: self-play", iteration+1, t.conf.NumIterations)

		sp := NewSelfPlay(t.net, t.conf.MCTSConf, t.conf.Temperature, t.conf.TemperatureThreshold, t.rng)
		examples := sp.GenerateGames(t.conf.GamesPerIteration)
		if t.conf.UseAugmentation {
			examples = Augment(examples)
		}
		t.buffer.Add(examples)
		t.logger.Printf("iteration %d: replay buffer size %d", iteration+1, t.buffer.Size())

		avgLoss, err := t.trainSteps()
		if err != nil {
			return errors.Wrapf(err, "songozero: Run: iteration %d", iteration+1)
		}
		t.logger.Printf("iteration %d: avg loss %.4f, weight norm %.4f", iteration+1, avgLoss, t.net.WeightNorm())

		if (iteration+1)%t.conf.EvalFrequency == 0 {
			result := EvaluateVsRandom(t.net, t.conf.MCTSConf, t.conf.EvalGames, t.rng)
			t.logger.Printf("iteration %d: eval vs random W%d D%d L%d (%.1f%%)",
				iteration+1, result.Wins, result.Draws, result.Losses, result.WinRate()*100)
		}

		if err := t.maybeCheckpoint(iteration + 1); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trainer) trainSteps() (float32, error) {
	if t.buffer.Size() == 0 {
		return 0, nil
	}

	var total float32
	var steps int
	var errs *multierror.Error
	for i := 0; i < t.conf.TrainStepsPerIter; i++ {
		sample := t.buffer.Sample(t.conf.NNConf.BatchSize, t.rng)
		if len(sample) < t.conf.NNConf.BatchSize {
			continue
		}
		batch := dualnet.Batch{
			Features: make([][game.EncodedSize]float32, len(sample)),
			Policies: make([][game.ActionSpace]float32, len(sample)),
			Values:   make([]float32, len(sample)),
		}
		for j, ex := range sample {
			batch.Features[j] = ex.Features
			batch.Policies[j] = ex.Policy
			batch.Values[j] = ex.Outcome
		}
		loss, err := t.net.Train(batch)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		total += loss
		steps++
	}
	if steps == 0 {
		return 0, errs.ErrorOrNil()
	}
	return total / float32(steps), errs.ErrorOrNil()
}

// maybeCheckpoint writes the rolling latest checkpoint unconditionally,
// per spec.md §4.H step 6, and additionally writes a numbered snapshot
// every CheckpointFreq iterations (and always on the final iteration).
func (t *Trainer) maybeCheckpoint(iteration int) error {
	if err := checkpoint.SaveLatest(t.conf.CheckpointDir, iteration, t.net); err != nil {
		return errors.Wrapf(err, "songozero: latest checkpoint at iteration %d", iteration)
	}

	isNumbered := iteration%t.conf.CheckpointFreq == 0
	isLast := iteration == t.conf.NumIterations
	if !isNumbered && !isLast {
		return nil
	}
	if err := checkpoint.SaveNumbered(t.conf.CheckpointDir, iteration, t.net); err != nil {
		return errors.Wrapf(err, "songozero: numbered checkpoint at iteration %d", iteration)
	}
	t.logger.Printf("iteration %d: checkpoint saved", iteration)
	return nil
}
