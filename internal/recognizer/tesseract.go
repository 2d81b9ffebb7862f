package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"pricelens/internal/detect"
)

const defaultLanguage = "eng"

// TesseractOptions parameterise the Tesseract-backed recognizer.
type TesseractOptions struct {
	Language       string
	TessdataPrefix string
	Preprocess     bool
}

// Tesseract recognizes text via the Tesseract OCR engine. A fresh client
// is created per call; gosseract clients are not safe for concurrent use
// and the pipeline is single-flight anyway.
type Tesseract struct {
	opts   TesseractOptions
	logger zerolog.Logger
}

// NewTesseract constructs a Tesseract recognizer.
func NewTesseract(opts TesseractOptions, logger zerolog.Logger) *Tesseract {
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}
	return &Tesseract{
		opts:   opts,
		logger: logger.With().Str("component", "recognizer").Logger(),
	}
}

// Recognize runs word-level OCR and returns observations with boxes
// normalized to the image dimensions and confidences scaled to [0,1].
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]detect.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if t.opts.Preprocess {
		img = preprocess(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.opts.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(t.opts.Language); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("text recognition failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("frame has zero dimensions")
	}

	observations := make([]detect.Observation, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		observations = append(observations, detect.Observation{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Box: detect.Rect{
				X:      float64(box.Box.Min.X-bounds.Min.X) / width,
				Y:      float64(box.Box.Min.Y-bounds.Min.Y) / height,
				Width:  float64(box.Box.Dx()) / width,
				Height: float64(box.Box.Dy()) / height,
			},
		})
	}

	t.logger.Debug().Int("words", len(observations)).Msg("frame recognized")
	return observations, nil
}

// preprocess flattens colour and lifts contrast; price tags photographed
// at an angle OCR noticeably better after this.
func preprocess(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	return imaging.AdjustContrast(gray, 20)
}

var _ Recognizer = (*Tesseract)(nil)
