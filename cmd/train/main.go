// Command train runs the self-play/train/evaluate/checkpoint loop,
// grounded in the teacher's cmd/train/main.go (flag-based config
// assembly, log.SetFlags(log.Ltime)) with the HDFS upload/tar-compress
// steps dropped — those exist in the teacher to push a trained model to
// a particular company's cluster, which has no equivalent here.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/songozero/songozero/dualnet"
	"github.com/songozero/songozero/game"
	"github.com/songozero/songozero/mcts"
	"github.com/songozero/songozero/songozero"
)

var (
	checkpointDir   = flag.String("checkpoint_dir", "checkpoints", "directory to read/write checkpoints")
	resume          = flag.Bool("resume", false, "resume from the latest checkpoint in checkpoint_dir")
	iterations      = flag.Int("iterations", 100, "number of training iterations")
	gamesPerIter    = flag.Int("games_per_iteration", 20, "self-play games per iteration")
	trainSteps      = flag.Int("train_steps", 50, "gradient steps per iteration")
	simulations     = flag.Int("simulations", 100, "MCTS simulations per move")
	hiddenSize      = flag.Int("hidden_size", 256, "shared trunk width")
	batchSize       = flag.Int("batch_size", 128, "training batch size")
	learnRate       = flag.Float64("learn_rate", 0.001, "Adam learning rate")
	evalFrequency   = flag.Int("eval_frequency", 5, "iterations between evaluations vs. a random opponent")
	evalGames       = flag.Int("eval_games", 20, "games played per evaluation")
	checkpointEvery = flag.Int("checkpoint_frequency", 10, "iterations between numbered checkpoints")
	noAugment       = flag.Bool("no_augmentation", false, "disable board-mirror data augmentation")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	conf := songozero.DefaultConfig()
	conf.NNConf = dualnet.DefaultConfig(game.EncodedSize, game.ActionSpace)
	conf.NNConf.HiddenSize = *hiddenSize
	conf.NNConf.BatchSize = *batchSize
	conf.NNConf.LearnRate = float32(*learnRate)
	conf.MCTSConf = mcts.Config{PUCT: 1.0, NumSimulation: *simulations}
	conf.NumIterations = *iterations
	conf.GamesPerIteration = *gamesPerIter
	conf.TrainStepsPerIter = *trainSteps
	conf.UseAugmentation = !*noAugment
	conf.EvalFrequency = *evalFrequency
	conf.EvalGames = *evalGames
	conf.CheckpointFreq = *checkpointEvery
	conf.CheckpointDir = *checkpointDir

	logger := log.New(os.Stderr, "", log.Ltime)

	var trainer *songozero.Trainer
	var err error
	if *resume {
		trainer, err = songozero.Resume(conf, logger)
	} else {
		trainer, err = songozero.NewTrainer(conf, logger)
	}
	if err != nil {
		log.Fatalf("songozero: train: %+v", err)
	}
	defer trainer.Close()

	if err := trainer.Run(); err != nil {
		log.Fatalf("songozero: train: %+v", err)
	}
}
