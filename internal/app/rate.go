package app

import (
	"fmt"
	"strings"
	"time"

	"pricelens/internal/settings"
)

// SetRate stores a new currency pair and exchange rate.
func (a *App) SetRate(opts RateOptions) error {
	cs := settings.CurrencySettings{
		ForeignCurrency: strings.ToUpper(strings.TrimSpace(opts.ForeignCurrency)),
		LocalCurrency:   strings.ToUpper(strings.TrimSpace(opts.LocalCurrency)),
		ExchangeRate:    opts.Rate,
	}

	store := a.settingsStore()
	if err := store.Save(cs); err != nil {
		return err
	}

	a.Logger.Info().
		Str("foreign", cs.ForeignCurrency).
		Str("local", cs.LocalCurrency).
		Str("rate", cs.ExchangeRate.String()).
		Msg("exchange rate updated")

	fmt.Printf("1 %s = %s %s\n", cs.ForeignCurrency, cs.ExchangeRate.String(), cs.LocalCurrency)
	return nil
}

// ShowSettings prints the active currency pair, if configured.
func (a *App) ShowSettings() error {
	cs, err := a.settingsStore().Current()
	if err != nil {
		return err
	}

	fmt.Printf("Foreign currency: %s\n", cs.ForeignCurrency)
	fmt.Printf("Local currency:   %s\n", cs.LocalCurrency)
	fmt.Printf("Exchange rate:    1 %s = %s %s\n", cs.ForeignCurrency, cs.ExchangeRate.String(), cs.LocalCurrency)
	if !cs.LastUpdated.IsZero() {
		fmt.Printf("Last updated:     %s\n", cs.LastUpdated.UTC().Format(time.RFC3339))
	}
	return nil
}
