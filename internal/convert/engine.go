// Package convert performs exchange-rate arithmetic on detected prices.
package convert

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPrice indicates a negative price input.
	ErrInvalidPrice = errors.New("convert: price must not be negative")
	// ErrInvalidRate indicates a non-positive exchange rate.
	ErrInvalidRate = errors.New("convert: rate must be positive")
)

// Engine multiplies accepted prices by an exchange rate at full decimal
// precision. It never rounds; callers round for display only.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine constructs a conversion engine.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger.With().Str("component", "convert").Logger()}
}

// Convert returns price * rate. A zero price short-circuits to an exact
// zero so no multiplication artifacts can appear.
func (e *Engine) Convert(price, rate decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Decimal{}, ErrInvalidPrice
	}
	if !rate.IsPositive() {
		return decimal.Decimal{}, ErrInvalidRate
	}
	if price.IsZero() {
		return decimal.Zero, nil
	}

	result := price.Mul(rate)
	e.logger.Debug().
		Str("price", price.String()).
		Str("rate", rate.String()).
		Str("result", result.String()).
		Msg("converted price")
	return result, nil
}

// RoundTo rounds an amount for display.
func RoundTo(amount decimal.Decimal, places int32) decimal.Decimal {
	return amount.Round(places)
}

// Difference returns the percentage delta between an original and a
// converted amount. A zero original yields zero.
func Difference(original, converted decimal.Decimal) decimal.Decimal {
	if original.IsZero() {
		return decimal.Zero
	}
	return converted.Sub(original).Div(original).Mul(decimal.NewFromInt(100))
}
