// Package settings holds the user-configured currency pair and exchange
// rate used to convert detected prices.
package settings

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MaxCurrencyLen bounds currency code length.
const MaxCurrencyLen = 20

var maxExchangeRate = decimal.NewFromInt(10_000)

var (
	ErrEmptyForeignCurrency = errors.New("settings: foreign currency must not be empty")
	ErrEmptyLocalCurrency   = errors.New("settings: local currency must not be empty")
	ErrCurrencyTooLong      = errors.New("settings: currency code exceeds 20 characters")
	ErrRateNotPositive      = errors.New("settings: exchange rate must be greater than zero")
	ErrRateTooLarge         = errors.New("settings: exchange rate must be 10000 or less")
)

// CurrencySettings is the single last-write-wins record describing which
// currency is being scanned and the rate into the local currency.
type CurrencySettings struct {
	ForeignCurrency string          `json:"foreign_currency"`
	LocalCurrency   string          `json:"local_currency"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	LastUpdated     time.Time       `json:"last_updated"`
}

// Validate checks the settings invariants. Invalid settings must never be
// persisted.
func (s CurrencySettings) Validate() error {
	if s.ForeignCurrency == "" {
		return ErrEmptyForeignCurrency
	}
	if s.LocalCurrency == "" {
		return ErrEmptyLocalCurrency
	}
	if len(s.ForeignCurrency) > MaxCurrencyLen || len(s.LocalCurrency) > MaxCurrencyLen {
		return ErrCurrencyTooLong
	}
	if !s.ExchangeRate.IsPositive() {
		return ErrRateNotPositive
	}
	if s.ExchangeRate.GreaterThan(maxExchangeRate) {
		return ErrRateTooLarge
	}
	return nil
}
