// Command play runs an interactive human-vs-agent Songo game in the
// terminal, grounded in the teacher's cmd/infer/main.go
// (bufio.Scanner-driven move input, render-after-every-move loop).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/songozero/songozero/checkpoint"
	"github.com/songozero/songozero/game"
	"github.com/songozero/songozero/mcts"
)

var (
	checkpointDir = flag.String("checkpoint_dir", "checkpoints", "directory containing a trained checkpoint")
	simulations   = flag.Int("simulations", 200, "MCTS simulations per agent move")
	humanFirst    = flag.Bool("human_first", true, "human plays P1 and moves first")
)

func main() {
	flag.Parse()

	net, iteration, err := checkpoint.LoadLatest(*checkpointDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading checkpoint: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("loaded checkpoint from iteration %d\n", iteration)
	defer net.Close()

	tree := mcts.New(net, mcts.Config{PUCT: 1.0, NumSimulation: *simulations})
	humanPlayer := game.P1
	if !*humanFirst {
		humanPlayer = game.P2
	}

	state := game.NewGame()
	scanner := bufio.NewScanner(os.Stdin)

	for state.Status() == game.Playing {
		fmt.Println(state.String())
		legal := game.ValidMoves(state)

		var action int
		if state.CurrentPlayer() == humanPlayer {
			fmt.Printf("your move, legal pits: %v\n", legal)
			scanner.Scan()
			move, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err != nil || !isLegal(move, legal) {
				fmt.Println("invalid input, try again")
				continue
			}
			action = move
		} else {
			fmt.Println("agent is thinking...")
			action = tree.GetActionWithTemp(state, 0)
			fmt.Printf("agent plays pit %d\n", action)
		}
		state = game.Execute(state, action)
	}

	fmt.Println(state.String())
	winner, hasWinner := state.Winner()
	if !hasWinner {
		fmt.Println("draw")
		return
	}
	if winner == humanPlayer {
		fmt.Println("you win")
	} else {
		fmt.Println("agent wins")
	}
}

func isLegal(move int, legal []int) bool {
	for _, m := range legal {
		if m == move {
			return true
		}
	}
	return false
}
