package detect

import (
	"math"

	"github.com/shopspring/decimal"
)

// Rect is a bounding box in coordinates normalized to image dimensions,
// so every edge lies in [0,1] regardless of resolution.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Valid reports whether the box has positive size and stays within [0,1].
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0 &&
		r.X >= 0 && r.Y >= 0 &&
		r.X+r.Width <= 1 && r.Y+r.Height <= 1
}

// Observation is a single recognized text fragment as delivered by the
// text-recognition engine, before any numeric interpretation.
type Observation struct {
	Text       string
	Box        Rect
	Confidence float64
}

// Detection is a candidate numeric value found in an image. It is
// ephemeral: built per frame and discarded once the pipeline is done.
type Detection struct {
	Value      decimal.Decimal
	Box        Rect
	Confidence float64
}

// New builds a Detection. Confidence is clamped to [0,1], never rejected.
func New(value decimal.Decimal, box Rect, confidence float64) Detection {
	return Detection{
		Value:      value,
		Box:        box,
		Confidence: clamp01(confidence),
	}
}

// MeetsConfidence reports whether the detection reaches the threshold.
func (d Detection) MeetsConfidence(threshold float64) bool {
	return d.Confidence >= threshold
}

// Build converts recognized observations into detections by extracting
// every numeric token from each observation's text. Tokens that do not
// parse as decimals are skipped.
func Build(observations []Observation) []Detection {
	detections := make([]Detection, 0, len(observations))
	for _, obs := range observations {
		for _, token := range ExtractNumbers(obs.Text) {
			value, err := decimal.NewFromString(token)
			if err != nil {
				continue
			}
			detections = append(detections, New(value, obs.Box, obs.Confidence))
		}
	}
	return detections
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
