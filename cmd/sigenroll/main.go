// Command sigenroll extracts a descriptor template from a reference
// signature image and writes it as JSON for later verification.
package main

import (
	"flag"
	"fmt"
	"os"

	"signature-analyzer/internal/config"
	"signature-analyzer/internal/feature"
	"signature-analyzer/internal/imageio"
	"signature-analyzer/internal/logging"
	"signature-analyzer/internal/preprocess"
)

func main() {
	imagePath := flag.String("image", "", "Path to reference signature image (PNG, JPEG, BMP, or TIFF)")
	outPath := flag.String("out", "template.json", "Output template JSON path")
	configPath := flag.String("config", "", "Optional TOML config file")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: sigenroll -image <path> [-out template.json] [-config file]")
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
		Component: "sigenroll",
	})

	raw, err := imageio.ReadFile(*imagePath, cfg.Image.MaxFileSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	params := preprocess.DefaultParams().
		WithTargetSize(cfg.Image.TargetWidth, cfg.Image.TargetHeight)

	mat, err := preprocess.Preprocess(raw, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Preprocessing failed: %v\n", err)
		os.Exit(1)
	}
	defer mat.Close()

	features := feature.NewExtractor(logger).Extract(mat)
	if features.Empty() {
		fmt.Fprintln(os.Stderr, "Feature extraction failed: no descriptors computed")
		os.Exit(1)
	}

	data, err := features.Serialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to serialize template: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write template: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Enrolled template from %s (sha256 %s)\n", *imagePath, imageio.Hash(raw)[:16])
	fmt.Printf("\n%-20s %12s\n", "Feature", "Value")
	for _, name := range feature.CanonicalNames {
		fmt.Printf("%-20s %12.5f\n", name, features.Get(name))
	}
	fmt.Printf("\nWrote %d features to %s\n", len(features), *outPath)
}
