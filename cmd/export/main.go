// Command export writes a trained checkpoint's weights to the
// browser-friendly JSON format described in spec.md §6, grounded in
// original_source/training/export_model.py's export_to_json.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/songozero/songozero/checkpoint"
)

var (
	checkpointDir = flag.String("checkpoint_dir", "checkpoints", "directory containing a trained checkpoint")
	output        = flag.String("output", "model.json", "output JSON file path")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	net, iteration, err := checkpoint.LoadLatest(*checkpointDir)
	if err != nil {
		log.Fatalf("export: loading checkpoint: %+v", err)
	}
	log.Printf("loaded checkpoint from iteration %d", iteration)
	defer net.Close()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("export: creating output file: %v", err)
	}
	defer f.Close()

	if err := net.ExportJSON(f); err != nil {
		log.Fatalf("export: writing JSON: %+v", err)
	}
	log.Printf("exported model to %s", *output)
}
