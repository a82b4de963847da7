package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SyntheticHeaders is the column layout written by the synthetic generator
var SyntheticHeaders = []string{
	"id", "name", "company", "Price (in Indian Rupees)", "RAM (in GB)", "Storage",
	"Screen Size (in inch)", "Weight (in kg)", "user rating", "battery_backup",
	"CPU_ranking", "gpu_benchmark", "Type",
}

var syntheticSeries = map[string][]string{
	"ASUS":      {"Vivobook", "Zenbook", "ROG Strix", "TUF Gaming"},
	"Lenovo":    {"IdeaPad", "ThinkPad", "Legion", "Yoga"},
	"Dell":      {"Inspiron", "XPS", "Latitude", "Alienware"},
	"HP":        {"Pavilion", "Envy", "Victus", "Spectre x360"},
	"Acer":      {"Aspire", "Swift", "Nitro", "Predator"},
	"MSI":       {"Modern", "Prestige", "Katana", "Stealth"},
	"Apple":     {"MacBook Air", "MacBook Pro"},
	"Microsoft": {"Surface Laptop", "Surface Pro"},
	"Samsung":   {"Galaxy Book"},
	"LG":        {"Gram"},
}

var syntheticBrands = []string{"ASUS", "Lenovo", "Dell", "HP", "Acer", "MSI", "Apple", "Microsoft", "Samsung", "LG"}

// SyntheticConfig controls GenerateSynthetic
type SyntheticConfig struct {
	Count int
	Seed  int64
	// InvalidRatio is the share of rows generated with an out-of-range price
	InvalidRatio float64
}

// GenerateSynthetic produces catalog rows in SyntheticHeaders order. Ratings
// correlate with CPU and GPU strength so a trained estimator has signal to
// learn. The same seed always yields the same rows.
func GenerateSynthetic(cfg SyntheticConfig) [][]string {
	faker := gofakeit.New(cfg.Seed)
	printer := message.NewPrinter(language.English)

	rows := make([][]string, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		brand := faker.RandomString(syntheticBrands)
		series := faker.RandomString(syntheticSeries[brand])
		typeCode := faker.Number(1, 4)

		ram := []int{4, 8, 8, 16, 16, 32, 64}[faker.Number(0, 6)]
		if typeCode == 1 && ram < 16 {
			ram = 16
		}
		storage := []int{256, 512, 512, 1024, 2048}[faker.Number(0, 4)]
		screen := faker.RandomString([]string{"13.3", "14", "15.6", "16", "17.3"})
		weight := round1(faker.Float64Range(1.0, 3.5))
		cpuRank := faker.Number(20, 700)
		gpuBench := faker.Number(5, 150)

		price := 30000 + float64(ram)*2500 + float64(storage)*40 +
			float64(700-cpuRank)*80 + float64(gpuBench)*300 +
			faker.Float64Range(-8000, 8000)
		price = math.Max(15000, math.Min(450000, math.Round(price)))
		if faker.Float64Range(0, 1) < cfg.InvalidRatio {
			price = float64(faker.Number(1000, 9000))
		}

		rating := 3.2 + float64(700-cpuRank)/700*0.8 + float64(gpuBench)/150*0.5 +
			faker.Float64Range(-0.3, 0.3)
		rating = math.Max(1, math.Min(5, round1(rating)))

		priceText := strconv.Itoa(int(price))
		if faker.Bool() {
			priceText = printer.Sprintf("%d", int(price))
		}

		battery := ""
		if faker.Number(1, 10) > 3 {
			battery = strconv.Itoa(faker.Number(4, 12))
		}
		company := brand
		if faker.Number(1, 10) == 1 {
			company = ""
		}

		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%s %s %s", brand, series, faker.Numerify("###")),
			company,
			priceText,
			strconv.Itoa(ram),
			strconv.Itoa(storage),
			screen,
			strconv.FormatFloat(weight, 'f', 1, 64),
			strconv.FormatFloat(rating, 'f', 1, 64),
			battery,
			strconv.Itoa(cpuRank),
			strconv.Itoa(gpuBench),
			strconv.Itoa(typeCode),
		})
	}
	return rows
}

// WriteCSV writes a header row and data rows as comma-separated text
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
