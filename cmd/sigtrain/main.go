// Command sigtrain fits the fallback classifier from a JSON file of
// labeled descriptor sets and persists it to the model store.
//
// The samples file is an array of {"features": {...}, "label": 0|1}
// records; sigenroll output can be pasted in as the features object.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"signature-analyzer/internal/analyze"
	"signature-analyzer/internal/config"
	"signature-analyzer/internal/logging"
	"signature-analyzer/internal/model"
)

func main() {
	samplesPath := flag.String("samples", "", "Path to labeled samples JSON")
	configPath := flag.String("config", "", "Optional TOML config file")
	flag.Parse()

	if *samplesPath == "" {
		fmt.Println("Usage: sigtrain -samples <labeled-samples.json> [-config file]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(&logging.Config{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    logging.ParseFormat(cfg.Log.Format),
		Output:    "stderr",
		Component: "sigtrain",
	})

	data, err := os.ReadFile(*samplesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read samples: %v\n", err)
		os.Exit(1)
	}

	var samples []analyze.TrainingSample
	if err := json.Unmarshal(data, &samples); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse samples: %v\n", err)
		os.Exit(1)
	}

	genuine, forged := 0, 0
	for _, s := range samples {
		if s.Label == 1 {
			genuine++
		} else {
			forged++
		}
	}
	fmt.Printf("Loaded %d samples (%d genuine, %d forged) from %s\n",
		len(samples), genuine, forged, *samplesPath)

	analyzer := analyze.New(cfg, logger)
	if err := analyzer.Train(samples); err != nil {
		if errors.Is(err, model.ErrInsufficientTraining) {
			fmt.Fprintf(os.Stderr, "Training requires at least %d samples, got %d\n",
				model.MinTrainingSamples, len(samples))
		} else {
			fmt.Fprintf(os.Stderr, "Training failed: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Model written to %s\n", analyzer.ModelPath())
}
