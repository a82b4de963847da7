// Command seed writes a synthetic laptop catalog as CSV or XLSX.
package main

import (
	"flag"
	"io"
	"os"
	"strings"

	"laptopadvisor/internal/ingest"
	"laptopadvisor/internal/logging"
)

func main() {
	count := flag.Int("count", 500, "number of laptops to generate")
	seed := flag.Int64("seed", 42, "random seed; the same seed yields the same catalog")
	invalid := flag.Float64("invalid", 0.05, "share of rows generated with an out-of-range price")
	format := flag.String("format", "", "csv or xlsx (default: from -out extension, else csv)")
	out := flag.String("out", "-", "output path, - for stdout")
	flag.Parse()

	logger := logging.New(logging.Config{Level: "info", Format: "console"})

	if *count <= 0 {
		logger.Fatal().Int("count", *count).Msg("count must be positive")
	}
	if *invalid < 0 || *invalid >= 1 {
		logger.Fatal().Float64("invalid", *invalid).Msg("invalid ratio must be in [0, 1)")
	}

	if *format == "" {
		*format = "csv"
		if strings.HasSuffix(strings.ToLower(*out), ".xlsx") {
			*format = "xlsx"
		}
	}

	rows := ingest.GenerateSynthetic(ingest.SyntheticConfig{
		Count:        *count,
		Seed:         *seed,
		InvalidRatio: *invalid,
	})

	var w io.Writer = os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *out).Msg("Failed to create output file")
		}
		defer f.Close()
		w = f
	}

	var err error
	switch *format {
	case "csv":
		err = ingest.WriteCSV(w, ingest.SyntheticHeaders, rows)
	case "xlsx":
		err = ingest.WriteXLSX(w, ingest.SyntheticHeaders, rows)
	default:
		logger.Fatal().Str("format", *format).Msg("Unsupported format")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to write catalog")
	}

	logger.Info().
		Int("rows", len(rows)).
		Int64("seed", *seed).
		Str("format", *format).
		Str("out", *out).
		Msg("Synthetic catalog written")
}
