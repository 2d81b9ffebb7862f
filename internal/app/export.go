package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"pricelens/internal/history"
)

// Export renders the conversion history as CSV and/or a PNG chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	records, err := store.LoadHistory(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Msg("no conversion records to export")
		return nil
	}

	// History is newest-first; charts read left to right in time.
	reverseRecords(records)
	exported := downsampleRecords(records, opts.MaxPoints)
	a.Logger.Info().Int("total", len(records)).Int("exported", len(exported)).Msg("exporting conversions")

	if opts.CSVPath != "" {
		if err := writeRecordsCSV(opts.CSVPath, exported); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRecordsPNG(opts.PNGPath, exported); err != nil {
			return err
		}
	}

	return nil
}

func reverseRecords(records []history.ConversionRecord) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}

func downsampleRecords(records []history.ConversionRecord, max int) []history.ConversionRecord {
	if max <= 0 || len(records) <= max {
		return records
	}
	if max == 1 {
		// Records are oldest-first here; a single point keeps the newest.
		return records[len(records)-1:]
	}

	result := make([]history.ConversionRecord, 0, max)
	step := float64(len(records)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(records) {
			idx = len(records) - 1
		}
		result = append(result, records[idx])
	}
	return result
}

func writeRecordsCSV(path string, records []history.ConversionRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"timestamp", "original_price", "foreign_currency", "converted_amount", "local_currency", "exchange_rate"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.OriginalPrice.String(),
			rec.ForeignCurrency,
			rec.ConvertedAmount.String(),
			rec.LocalCurrency,
			rec.ExchangeRate.String(),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeRecordsPNG(path string, records []history.ConversionRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if len(records) < 2 {
		return errors.New("chart export needs at least two records")
	}

	x := make([]time.Time, len(records))
	original := make([]float64, len(records))
	converted := make([]float64, len(records))

	for i, rec := range records {
		x[i] = rec.Timestamp
		original[i] = rec.OriginalPrice.InexactFloat64()
		converted[i] = rec.ConvertedAmount.InexactFloat64()
	}

	amountFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Amount",
			ValueFormatter: amountFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Detected",
				XValues: x,
				YValues: original,
			},
			chart.TimeSeries{
				Name:    "Converted",
				XValues: x,
				YValues: converted,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
