package detect

import "math"

// DefaultDedupeDistance is the box-center distance below which two
// detections are treated as the same on-screen number.
const DefaultDedupeDistance = 0.05

// Deduplicate merges detections whose box centers are closer than the given
// distance. A non-positive distance selects DefaultDedupeDistance;
// deduplication always runs. Detections are visited in input order and the
// earlier-accepted one wins, so the output preserves the order of first
// occurrences. Quadratic, but frames carry only a handful of detections.
func Deduplicate(detections []Detection, distance float64) []Detection {
	if distance <= 0 {
		distance = DefaultDedupeDistance
	}

	unique := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if !hasNeighbor(unique, d, distance) {
			unique = append(unique, d)
		}
	}
	return unique
}

func hasNeighbor(accepted []Detection, d Detection, distance float64) bool {
	cx, cy := d.Box.Center()
	for _, a := range accepted {
		ax, ay := a.Box.Center()
		if math.Hypot(cx-ax, cy-ay) < distance {
			return true
		}
	}
	return false
}

// FilterByConfidence keeps detections whose confidence reaches the
// threshold. Confidence is already clamped at construction, so no
// normalization happens here.
func FilterByConfidence(detections []Detection, threshold float64) []Detection {
	kept := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if d.MeetsConfidence(threshold) {
			kept = append(kept, d)
		}
	}
	return kept
}
