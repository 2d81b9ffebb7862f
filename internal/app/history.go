package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// ShowHistory prints recent conversion records.
func (a *App) ShowHistory(ctx context.Context, opts ShowOptions) error {
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
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no conversions recorded")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tDetected\tConverted\tRate")

	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s %s\t%s %s\t%s\n",
			rec.Timestamp.UTC().Format(time.RFC3339),
			formatDecimal(rec.OriginalPrice, 2),
			rec.ForeignCurrency,
			formatDecimal(rec.ConvertedAmount, 2),
			rec.LocalCurrency,
			rec.ExchangeRate.String(),
		)
	}

	writer.Flush()
	return nil
}

// ClearHistory drops every persisted conversion record.
func (a *App) ClearHistory(ctx context.Context) error {
	store, closeStore, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	if err := store.ClearHistory(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "history cleared")
	return nil
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
