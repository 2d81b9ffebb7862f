package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxRecords is the hard retention cap: when exceeded the oldest records
// by timestamp are dropped, never the newest.
const MaxRecords = 50

// ConversionRecord is one saved conversion. The exchange rate is a
// snapshot of the rate used at save time; history is never recomputed
// when settings change later.
type ConversionRecord struct {
	ID              uuid.UUID       `json:"id"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	ForeignCurrency string          `json:"foreign_currency"`
	LocalCurrency   string          `json:"local_currency"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Store persists accepted conversions under the retention policy.
//
// AddRecord failures are surfaced to the caller: losing a user-requested
// save must be visible. LoadHistory recovers locally from a missing or
// corrupt backing store and returns an empty slice instead of failing.
type Store interface {
	AddRecord(ctx context.Context, record ConversionRecord) error
	LoadHistory(ctx context.Context) ([]ConversionRecord, error)
	ClearHistory(ctx context.Context) error
}
