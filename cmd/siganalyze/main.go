// Command siganalyze scores a signature image for authenticity,
// either against an enrolled template or standalone.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"signature-analyzer/internal/analyze"
	"signature-analyzer/internal/config"
	"signature-analyzer/internal/feature"
	"signature-analyzer/internal/imageio"
	"signature-analyzer/internal/logging"
	"signature-analyzer/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to signature image (PNG, JPEG, BMP, or TIFF)")
	templatePath := flag.String("template", "", "Optional enrolled template JSON to compare against")
	configPath := flag.String("config", "", "Optional TOML config file")
	threshold := flag.Float64("threshold", 0, "Override confidence threshold (0 = use config)")
	asJSON := flag.Bool("json", false, "Print the full result as JSON")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("siganalyze %s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	if *imagePath == "" {
		fmt.Println("Usage: siganalyze -image <path> [-template template.json] [-threshold 0.7] [-json]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *threshold > 0 {
		cfg.Analysis.ConfidenceThreshold = *threshold
	}

	logger := logging.New(&logging.Config{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    logging.ParseFormat(cfg.Log.Format),
		Output:    "stderr",
		Component: "siganalyze",
	})

	analyzer := analyze.New(cfg, logger)
	analyzer.LoadModel()

	var template feature.DescriptorSet
	if *templatePath != "" {
		data, err := os.ReadFile(*templatePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read template: %v\n", err)
			os.Exit(1)
		}
		template = feature.Deserialize(data)
		if template.Empty() {
			fmt.Fprintf(os.Stderr, "Template %s holds no features\n", *templatePath)
			os.Exit(1)
		}
	}

	raw, err := imageio.ReadFile(*imagePath, cfg.Image.MaxFileSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	result, err := analyzer.Analyze(raw, template)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to serialize result: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("Analyzed %s (%s strategy, %.1f ms)\n",
		*imagePath, result.Strategy, float64(result.ProcessingTime.Microseconds())/1000)
	fmt.Printf("\n%-22s %10s\n", "Metric", "Value")
	fmt.Printf("%-22s %10.4f\n", "Authenticity score", result.AuthenticityScore)
	fmt.Printf("%-22s %10.4f\n", "Confidence level", result.ConfidenceLevel)
	fmt.Printf("%-22s %10.2f\n", "Decision threshold", analyzer.Threshold())
	fmt.Printf("%-22s %10v\n", "Authentic", result.IsAuthentic)

	if d := result.Details; d != nil {
		fmt.Printf("\nShape:   aspect=%.3f density=%.4f compactness=%.2f eccentricity=%.3f\n",
			d.FeatureAnalysis.AspectRatio, d.FeatureAnalysis.Density,
			d.FeatureAnalysis.Compactness, d.FeatureAnalysis.Eccentricity)
		fmt.Printf("Stroke:  width=%.2f±%.2f lifts=%.0f\n",
			d.StrokeAnalysis.StrokeWidthMean, d.StrokeAnalysis.StrokeWidthStd,
			d.StrokeAnalysis.PenLifts)
		fmt.Printf("Quality: solidity=%.3f convexity=%.3f pressure=%.3f\n",
			d.QualityIndicators.Solidity, d.QualityIndicators.Convexity,
			d.QualityIndicators.PressureVariation)
		fmt.Printf("\nRecommendation: %s\n", d.Recommendation)
	}
}
