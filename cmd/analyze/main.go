// Command analyze prints catalog statistics and, with -demo, trains a model
// and shows recommendations for the preset personas.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"laptopadvisor/internal/config"
	"laptopadvisor/internal/ingest"
	"laptopadvisor/internal/logging"
	"laptopadvisor/internal/model"
	"laptopadvisor/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	path := flag.String("catalog", cfg.Catalog.Path, "catalog file (csv or xlsx); empty uses the sample catalog")
	demo := flag.Bool("demo", false, "train a model and run the preset personas")
	topK := flag.Int("top", 3, "recommendations per preset")
	asJSON := flag.Bool("json", false, "print JSON instead of text")
	verbose := flag.Bool("v", false, "log training progress")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level, Format: "console"})

	ctx := context.Background()
	svc := service.NewRecommendationService(cfg.Service(), nil, logger)

	if err := load(ctx, svc, cfg, *path, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load catalog")
	}

	stats, err := svc.Stats()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to compute statistics")
	}

	report := map[string]any{"stats": stats}
	if *demo {
		run, err := svc.Train(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("Training failed")
		}
		report["training"] = run

		results := make(map[string]*model.RecommendResponse, len(model.Presets))
		for _, p := range model.Presets {
			resp, err := svc.Recommend(ctx, &model.RecommendRequest{Query: p.Query.Slice(), TopK: *topK})
			if err != nil {
				logger.Fatal().Err(err).Str("preset", p.Name).Msg("Recommendation failed")
			}
			results[p.Name] = resp
		}
		report["presets"] = results
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Fatal().Err(err).Msg("Failed to encode report")
		}
		return
	}

	printStats(os.Stdout, stats)
	if *demo {
		printTraining(os.Stdout, report["training"].(*model.TrainingRun))
		printPresets(os.Stdout, report["presets"].(map[string]*model.RecommendResponse))
	}
}

func load(ctx context.Context, svc *service.RecommendationService, cfg *config.Config, path string, logger zerolog.Logger) error {
	if path == "" {
		_, err := svc.LoadLaptops(ctx, ingest.SampleCatalog())
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		if !cfg.Catalog.SampleFallback {
			return err
		}
		logger.Warn().Err(err).Msg("Using built-in sample catalog")
		_, err = svc.LoadLaptops(ctx, ingest.SampleCatalog())
		return err
	}
	defer f.Close()

	format := service.FormatCSV
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		format = service.FormatXLSX
	}
	resp, err := svc.Ingest(ctx, f, format)
	if err != nil {
		return err
	}
	logger.Info().
		Int("rows", resp.TotalRows).
		Int("accepted", resp.Accepted).
		Int("rejected", resp.Rejected).
		Int("skipped", len(resp.Warnings)).
		Msg("Catalog ingested")
	return nil
}

func printStats(w io.Writer, s *service.CatalogStats) {
	fmt.Fprintf(w, "Catalog: %d laptops (version %d)\n", s.Count, s.CatalogVersion)
	fmt.Fprintf(w, "Price:   min %.0f  max %.0f  avg %.0f\n", s.Price.Min, s.Price.Max, s.Price.Avg)
	fmt.Fprintf(w, "Rating:  min %.2f  max %.2f  avg %.2f\n", s.Rating.Min, s.Rating.Max, s.Rating.Avg)
	fmt.Fprintf(w, "Average confidence: %.2f\n", s.AvgConfidence)

	printCounts(w, "RAM distribution", s.RAMDistribution)
	printCounts(w, "Screen sizes", s.ScreenDistribution)
	printCounts(w, "Categories", s.CategoryCounts)
	printCounts(w, "Top brands", s.TopBrands)
}

func printCounts(w io.Writer, title string, entries []service.CountEntry) {
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, e := range entries {
		fmt.Fprintf(w, "  %-14s %d\n", e.Label, e.Count)
	}
}

func printTraining(w io.Writer, run *model.TrainingRun) {
	fmt.Fprintf(w, "\nTrained %s (%s) on %d items, validated on %d: loss %.4f, val loss %.4f in %s\n",
		run.Estimator, run.Strategy, run.TrainSize, run.ValidationSize, run.FinalLoss, run.FinalValLoss, run.Duration)
}

func printPresets(w io.Writer, results map[string]*model.RecommendResponse) {
	for _, p := range model.Presets {
		resp := results[p.Name]
		fmt.Fprintf(w, "\n%s - %s\n", p.Name, p.Description)
		for _, r := range resp.Results {
			fmt.Fprintf(w, "  %d. %s (%s, %s) score %.3f, predicted %.2f, actual %.1f\n",
				r.Rank, r.Name, r.Brand, r.PriceDisplay, r.FinalScore, r.PredictedRating, r.ActualRating)
			fmt.Fprintf(w, "     %s\n", strings.Join(r.MatchedReasons, ", "))
		}
	}
}
