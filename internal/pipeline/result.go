package pipeline

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pricelens/internal/detect"
	"pricelens/internal/history"
)

// Result is one completed frame conversion: the primary detected price and
// its converted amount, plus every detection that survived filtering (for
// callers that render overlays). Transient until explicitly saved.
type Result struct {
	ID              uuid.UUID
	DetectedPrice   decimal.Decimal
	ConvertedAmount decimal.Decimal
	SourceCurrency  string
	TargetCurrency  string
	ExchangeRate    decimal.Decimal
	Confidence      float64
	Timestamp       time.Time
	Detections      []detect.Detection
}

func newResult(primary detect.Detection, amount decimal.Decimal, source, target string, rate decimal.Decimal, survivors []detect.Detection) Result {
	return Result{
		ID:              uuid.New(),
		DetectedPrice:   primary.Value,
		ConvertedAmount: amount,
		SourceCurrency:  source,
		TargetCurrency:  target,
		ExchangeRate:    rate,
		Confidence:      math.Max(0, math.Min(1, primary.Confidence)),
		Timestamp:       time.Now().UTC(),
		Detections:      survivors,
	}
}

// Record snapshots the result for persistence. The rate travels with the
// record so later settings changes never rewrite history.
func (r Result) Record() history.ConversionRecord {
	return history.ConversionRecord{
		ID:              r.ID,
		OriginalPrice:   r.DetectedPrice,
		ConvertedAmount: r.ConvertedAmount,
		ForeignCurrency: r.SourceCurrency,
		LocalCurrency:   r.TargetCurrency,
		ExchangeRate:    r.ExchangeRate,
		Timestamp:       r.Timestamp,
	}
}
