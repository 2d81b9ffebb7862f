// Package pricing decides which detected numbers plausibly are merchandise
// prices, as opposed to pack sizes, dates, and serial numbers.
package pricing

import (
	"fmt"
	"math"
	"sort"

	"pricelens/internal/detect"
)

// Mode selects how aggressively non-price numbers are rejected.
type Mode string

const (
	ModeStrict   Mode = "strict"
	ModeBalanced Mode = "balanced"
	ModeLenient  Mode = "lenient"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStrict, ModeBalanced, ModeLenient:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown filter mode %q", s)
	}
}

type thresholds struct {
	minPrice     float64
	maxPrice     float64
	minBoxHeight float64 // fraction of image height
}

var modeThresholds = map[Mode]thresholds{
	ModeStrict:   {minPrice: 50, maxPrice: 500_000, minBoxHeight: 0.025},
	ModeBalanced: {minPrice: 10, maxPrice: 1_000_000, minBoxHeight: 0.015},
	ModeLenient:  {minPrice: 1, maxPrice: 10_000_000, minBoxHeight: 0.008},
}

// Typical pill/pack counts that show up on labels and masquerade as prices.
var commonCapacities = []float64{30, 60, 90, 120, 180, 270, 360}

const capacityTolerance = 3

// FilterPrices keeps detections that look like prices under the given mode
// and returns them sorted by descending value; the largest number on a tag
// is usually the primary price. The sort is stable, so equal values keep
// their input order. An unknown mode falls back to balanced.
func FilterPrices(detections []detect.Detection, mode Mode) []detect.Detection {
	th, ok := modeThresholds[mode]
	if !ok {
		mode = ModeBalanced
		th = modeThresholds[mode]
	}

	kept := make([]detect.Detection, 0, len(detections))
	for _, d := range detections {
		if isPlausiblePrice(d, mode, th) {
			kept = append(kept, d)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Value.GreaterThan(kept[j].Value)
	})
	return kept
}

// isPlausiblePrice applies the rejection rules in order; the first failing
// rule rejects the detection.
func isPlausiblePrice(d detect.Detection, mode Mode, th thresholds) bool {
	value := d.Value.InexactFloat64()

	// Rule 1: mode-dependent price range.
	if value < th.minPrice || value > th.maxPrice {
		return false
	}

	// Rule 2: common capacity numbers within tolerance.
	if isCommonCapacity(value) {
		return false
	}

	// Rule 3: small round numbers without a price-like ending are assumed
	// to be quantities or codes under the stricter modes.
	priceEnding := hasPriceLikeEnding(int(value))
	if (mode == ModeStrict || mode == ModeBalanced) && !priceEnding && value < 1000 {
		return false
	}

	// Rule 4: tiny text is rejected unless the value is clearly priced;
	// stylized price tags are often visually small.
	likelyPrice := priceEnding && value >= 100 && value <= 100_000
	if d.Box.Height < th.minBoxHeight && !likelyPrice {
		return false
	}

	// Rule 5: dates and serial-looking numbers.
	return !looksLikeDateOrCode(value)
}

func isCommonCapacity(value float64) bool {
	for _, capacity := range commonCapacities {
		if math.Abs(value-capacity) <= capacityTolerance {
			return true
		}
	}
	return false
}

// hasPriceLikeEnding reports culturally common price endings: 980, 1990,
// 2000, 1050, 198, 299 and the like.
func hasPriceLikeEnding(value int) bool {
	switch value % 100 {
	case 0, 50, 80, 90, 98, 99:
		return true
	}
	switch value % 10 {
	case 0, 8, 9:
		return true
	}
	return false
}

func looksLikeDateOrCode(value float64) bool {
	n := int(value)

	// Year.
	if n >= 2020 && n <= 2030 {
		return true
	}

	// MMDD month-day code.
	if n >= 101 && n <= 1231 {
		month, day := n/100, n%100
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return true
		}
	}

	// Five-digit serial/batch patterns: 11111, 12345, 54321.
	if n >= 10_000 && n <= 99_999 {
		return isSequentialOrRepetitive(splitDigits(n))
	}

	return false
}

func splitDigits(n int) []int {
	s := fmt.Sprintf("%d", n)
	digits := make([]int, len(s))
	for i, c := range s {
		digits[i] = int(c - '0')
	}
	return digits
}

func isSequentialOrRepetitive(digits []int) bool {
	if len(digits) < 4 {
		return false
	}

	repeated, increasing, decreasing := true, true, true
	for i := 0; i < len(digits)-1; i++ {
		if digits[i+1] != digits[i] {
			repeated = false
		}
		if digits[i+1] != digits[i]+1 {
			increasing = false
		}
		if digits[i+1] != digits[i]-1 {
			decreasing = false
		}
	}
	return repeated || increasing || decreasing
}
