package app

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pricelens/internal/alerting"
	"pricelens/internal/config"
	"pricelens/internal/convert"
	"pricelens/internal/history"
	"pricelens/internal/pipeline"
	"pricelens/internal/pricing"
	"pricelens/internal/recognizer"
	"pricelens/internal/settings"
	"pricelens/internal/source"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) settingsStore() *settings.FileStore {
	return settings.NewFileStore(a.Config.Settings.Path, a.Logger)
}

func (a *App) newRecognizer() recognizer.Recognizer {
	return recognizer.NewTesseract(recognizer.TesseractOptions{
		Language:       a.Config.Recognizer.Language,
		TessdataPrefix: a.Config.Recognizer.TessdataPrefix,
		Preprocess:     a.Config.Recognizer.Preprocess,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	return alerting.NewWebhookNotifier(a.Config.Alerting.WebhookURL, a.Config.Alerting.RequestTimeout, a.Logger)
}

// pipelineOptions maps config onto controller options. An invalid mode is
// rejected at config load, so the parse here cannot fail in practice.
func (a *App) pipelineOptions(throttled bool) pipeline.Options {
	mode, err := pricing.ParseMode(a.Config.Pipeline.Mode)
	if err != nil {
		mode = pricing.ModeBalanced
	}
	opts := pipeline.Options{
		ConfidenceThreshold: a.Config.Pipeline.ConfidenceThreshold,
		DedupeDistance:      a.Config.Pipeline.DedupeDistance,
		Mode:                mode,
		SkipSimilarFrames:   a.Config.Pipeline.SkipSimilarFrames,
		MaxHashDistance:     a.Config.Pipeline.MaxHashDistance,
	}
	if throttled {
		opts.Throttle = a.Config.Pipeline.Throttle
	}
	return opts
}

// openHistory builds the configured history backend. The returned closer
// releases backend resources and may be nil.
func (a *App) openHistory(ctx context.Context) (history.Store, func(), error) {
	switch a.Config.History.Backend {
	case "postgres":
		pool, err := history.NewPool(ctx, history.PoolOptions{
			DSN:             a.Config.Database.DSN,
			MaxConns:        a.Config.Database.MaxOpenConns,
			MinConns:        a.Config.Database.MaxIdleConns,
			ConnMaxLifetime: a.Config.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		store, err := history.NewPostgresStore(ctx, pool, a.Config.History.MaxRecords, a.Logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store := history.NewFileStore(a.Config.History.Path, a.Config.History.MaxRecords, a.Logger)
		return store, nil, nil
	}
}

// RunOptions configure the long-running scanning service.
type RunOptions struct {
	// Save persists every published conversion instead of only printing it.
	Save bool
}

// Run watches the frame source and feeds the pipeline until interrupted.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	controller := pipeline.New(a.newRecognizer(), convert.NewEngine(a.Logger), a.settingsStore(), a.pipelineOptions(true), a.Logger)
	defer controller.Close()

	frames := source.NewDirectory(source.Options{
		Dir:      a.Config.Source.Dir,
		Interval: a.Config.Source.Interval,
	}, a.Logger)

	notifier := a.newNotifier()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		controller.Run()
	}()

	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case result := <-controller.Results():
				a.handleResult(ctx, result, store, notifier, opts.Save)
			}
		}
	}()

	a.Logger.Info().Str("dir", a.Config.Source.Dir).Msg("scanning started")
	err = frames.Run(ctx, controller.Offer)

	controller.Close()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("scanner terminated with error")
		return err
	}

	a.Logger.Info().Msg("scanner stopped")
	return nil
}

func (a *App) handleResult(ctx context.Context, result pipeline.Result, store history.Store, notifier alerting.Notifier, save bool) {
	a.Logger.Info().
		Str("detected", convert.FormatAmount(result.DetectedPrice, result.SourceCurrency)).
		Str("converted", convert.FormatAmount(result.ConvertedAmount, result.TargetCurrency)).
		Float64("confidence", result.Confidence).
		Msg("price converted")

	if !save {
		return
	}

	record := result.Record()
	if err := store.AddRecord(ctx, record); err != nil {
		a.Logger.Error().Err(err).Msg("failed to save conversion record")
		return
	}

	a.notify(ctx, notifier, record)
}

func (a *App) notify(ctx context.Context, notifier alerting.Notifier, record history.ConversionRecord) {
	if notifier == nil {
		return
	}
	minConverted := decimal.NewFromFloat(a.Config.Alerting.MinConverted)
	if record.ConvertedAmount.LessThan(minConverted) {
		return
	}

	note := alerting.Notification{Record: record, MinConverted: minConverted}
	notifyCtx, cancel := context.WithTimeout(ctx, sanitizeTimeout(a.Config.Alerting.RequestTimeout))
	defer cancel()
	if err := notifier.Notify(notifyCtx, note); err != nil {
		a.Logger.Error().Err(err).Msg("failed to dispatch conversion notification")
	}
}

// ScanOptions configure a one-shot scan.
type ScanOptions struct {
	Path string
	Save bool
}

// ShowOptions configure the history listing.
type ShowOptions struct {
	Limit int
}

// ExportOptions hold parameters for exporting the conversion history.
type ExportOptions struct {
	CSVPath   string
	PNGPath   string
	MaxPoints int
}

// RateOptions carry a settings update.
type RateOptions struct {
	ForeignCurrency string
	LocalCurrency   string
	Rate            decimal.Decimal
}

func sanitizeTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}
