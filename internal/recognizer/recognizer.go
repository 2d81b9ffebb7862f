// Package recognizer wraps the optical text-recognition engine consumed by
// the pipeline. The engine is treated as a black box that turns an image
// into text fragments with normalized bounding boxes and confidences.
package recognizer

import (
	"context"
	"image"

	"pricelens/internal/detect"
)

// Recognizer extracts candidate text from a frame. Implementations must
// honour context cancellation and may fail per frame; such failures are
// recoverable and the pipeline continues with subsequent frames.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]detect.Observation, error)
}
