package app

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // scan input decoders
	_ "image/png"
	"os"

	"pricelens/internal/convert"
	"pricelens/internal/pipeline"
)

// Scan runs the full pipeline once over a single image file and prints
// the outcome. With Save set, the result is also persisted to history.
func (a *App) Scan(ctx context.Context, opts ScanOptions) error {
	img, err := loadImage(opts.Path)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}

	// One-shot scans are manual; the frame-rate throttle does not apply.
	controller := pipeline.New(a.newRecognizer(), convert.NewEngine(a.Logger), a.settingsStore(), a.pipelineOptions(false), a.Logger)
	defer controller.Close()

	result, err := controller.Process(ctx, img)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Fprintln(os.Stdout, "no plausible price detected")
		return nil
	}

	fmt.Fprintf(os.Stdout, "detected:  %s\n", convert.FormatAmount(result.DetectedPrice, result.SourceCurrency))
	fmt.Fprintf(os.Stdout, "converted: %s\n", convert.FormatAmount(result.ConvertedAmount, result.TargetCurrency))
	fmt.Fprintf(os.Stdout, "rate:      %s\n", result.ExchangeRate.String())
	fmt.Fprintf(os.Stdout, "confidence: %.0f%%\n", result.Confidence*100)

	if len(result.Detections) > 1 {
		fmt.Fprintf(os.Stdout, "other candidates: %d\n", len(result.Detections)-1)
	}

	if !opts.Save {
		return nil
	}

	store, closeStore, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	record := result.Record()
	if err := store.AddRecord(ctx, record); err != nil {
		return fmt.Errorf("save conversion record: %w", err)
	}
	a.notify(ctx, a.newNotifier(), record)

	fmt.Fprintln(os.Stdout, "saved to history")
	return nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
