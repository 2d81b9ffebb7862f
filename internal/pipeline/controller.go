// Package pipeline runs the detection-to-conversion pipeline over a stream
// of frames under single-flight and throttling discipline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/rs/zerolog"

	"pricelens/internal/convert"
	"pricelens/internal/detect"
	"pricelens/internal/pricing"
	"pricelens/internal/recognizer"
	"pricelens/internal/settings"
)

var (
	// ErrBusy is returned when a frame arrives while another is in flight.
	// Such frames are dropped, never queued.
	ErrBusy = errors.New("pipeline: frame already in flight")
	// ErrThrottled is returned when a frame arrives before the configured
	// interval since the previous processing start has elapsed.
	ErrThrottled = errors.New("pipeline: frame throttled")
	// ErrClosed is returned once the controller has been torn down.
	ErrClosed = errors.New("pipeline: controller closed")
)

// SettingsSource supplies the currency settings a conversion should use.
type SettingsSource interface {
	Current() (settings.CurrencySettings, error)
}

// Options tune controller behaviour.
type Options struct {
	// ConfidenceThreshold drops detections recognized below it.
	ConfidenceThreshold float64
	// DedupeDistance merges detections with nearby box centers; zero
	// means the default.
	DedupeDistance float64
	// Mode selects heuristic price-filter strictness.
	Mode pricing.Mode
	// Throttle refuses frames arriving sooner than this after the
	// previous processing start. Zero disables the gate; it is
	// independent of the single-flight gate.
	Throttle time.Duration
	// SkipSimilarFrames drops frames whose perceptual hash is within
	// MaxHashDistance of the previously processed frame, saving OCR work
	// on a static scene.
	SkipSimilarFrames bool
	MaxHashDistance   int
}

const defaultMaxHashDistance = 5

// Controller feeds frames through recognition, filtering, and conversion.
// At most one frame is ever in flight; the frame-delivery path never
// blocks on processing.
type Controller struct {
	rec      recognizer.Recognizer
	engine   *convert.Engine
	settings SettingsSource
	opts     Options
	logger   zerolog.Logger

	// flight is held for the duration of one frame's processing. TryLock
	// implements the drop-not-queue policy.
	flight    sync.Mutex
	lastStart time.Time
	lastHash  *goimagehash.ImageHash

	frames  chan image.Image
	results chan Result

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Controller. Close must be called to release it.
func New(rec recognizer.Recognizer, engine *convert.Engine, src SettingsSource, opts Options, logger zerolog.Logger) *Controller {
	if opts.MaxHashDistance <= 0 {
		opts.MaxHashDistance = defaultMaxHashDistance
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		rec:      rec,
		engine:   engine,
		settings: src,
		opts:     opts,
		logger:   logger.With().Str("component", "pipeline").Logger(),
		// Capacity 1: a full channel means a frame is pending or in
		// flight, and the new one is dropped.
		frames:  make(chan image.Image, 1),
		results: make(chan Result, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Offer hands a frame to the controller without blocking. It reports
// whether the frame was accepted; refused frames are simply dropped.
func (c *Controller) Offer(img image.Image) bool {
	if c.ctx.Err() != nil {
		return false
	}
	select {
	case c.frames <- img:
		return true
	default:
		return false
	}
}

// Results delivers completed conversions from the streaming loop.
func (c *Controller) Results() <-chan Result {
	return c.results
}

// Run consumes offered frames until the controller is closed. Per-frame
// errors are logged and the loop continues; nothing here is fatal.
func (c *Controller) Run() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case img := <-c.frames:
			result, err := c.Process(c.ctx, img)
			switch {
			case errors.Is(err, ErrThrottled) || errors.Is(err, ErrBusy):
				c.logger.Debug().Msg("frame dropped")
			case errors.Is(err, context.Canceled):
				return
			case err != nil:
				c.logger.Warn().Err(err).Msg("frame processing failed")
			case result != nil:
				c.publish(*result)
			}
		}
	}
}

// Process runs the full pipeline on one frame. It returns ErrBusy while
// another frame is in flight and ErrThrottled when the throttle gate
// refuses the frame. A nil result with nil error means the frame held no
// plausible price.
func (c *Controller) Process(ctx context.Context, img image.Image) (*Result, error) {
	if c.ctx.Err() != nil {
		return nil, ErrClosed
	}
	if !c.flight.TryLock() {
		return nil, ErrBusy
	}
	defer c.flight.Unlock()

	if c.opts.Throttle > 0 {
		now := time.Now()
		if !c.lastStart.IsZero() && now.Sub(c.lastStart) < c.opts.Throttle {
			return nil, ErrThrottled
		}
		c.lastStart = now
	}

	if c.opts.SkipSimilarFrames && c.similarToPrevious(img) {
		c.logger.Debug().Msg("skipping similar frame")
		return nil, nil
	}

	observations, err := c.recognize(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("recognize frame: %w", err)
	}

	detections := detect.Build(observations)
	detections = detect.Deduplicate(detections, c.opts.DedupeDistance)
	detections = detect.FilterByConfidence(detections, c.opts.ConfidenceThreshold)
	prices := pricing.FilterPrices(detections, c.opts.Mode)
	if len(prices) == 0 {
		return nil, nil
	}

	cs, err := c.settings.Current()
	if err != nil {
		return nil, fmt.Errorf("load currency settings: %w", err)
	}

	primary := prices[0]
	amount, err := c.engine.Convert(primary.Value, cs.ExchangeRate)
	if err != nil {
		return nil, fmt.Errorf("convert detected price: %w", err)
	}

	// Teardown may have raced with recognition finishing; a closed
	// controller never hands out a result.
	if c.ctx.Err() != nil {
		return nil, ErrClosed
	}

	result := newResult(primary, amount, cs.ForeignCurrency, cs.LocalCurrency, cs.ExchangeRate, prices)
	return &result, nil
}

// Close tears the controller down, cancelling any in-flight recognition.
// No result is delivered afterwards.
func (c *Controller) Close() {
	c.cancel()
}

// recognize calls the recognizer on its own goroutine so teardown can
// abandon a slow OCR call instead of waiting on it.
func (c *Controller) recognize(ctx context.Context, img image.Image) ([]detect.Observation, error) {
	type outcome struct {
		observations []detect.Observation
		err          error
	}

	done := make(chan outcome, 1)
	go func() {
		obs, err := c.rec.Recognize(ctx, img)
		done <- outcome{observations: obs, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, ErrClosed
	case out := <-done:
		return out.observations, out.err
	}
}

func (c *Controller) publish(result Result) {
	if c.ctx.Err() != nil {
		return
	}
	select {
	case c.results <- result:
	case <-c.ctx.Done():
	default:
		// A stalled consumer must not stall the frame path.
		c.logger.Warn().Msg("result dropped, consumer not keeping up")
	}
}

func (c *Controller) similarToPrevious(img image.Image) bool {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return false
	}

	if c.lastHash == nil {
		c.lastHash = hash
		return false
	}

	dist, err := c.lastHash.Distance(hash)
	if err != nil {
		c.lastHash = hash
		return false
	}
	if dist <= c.opts.MaxHashDistance {
		return true
	}
	c.lastHash = hash
	return false
}
