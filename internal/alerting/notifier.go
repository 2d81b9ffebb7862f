// Package alerting pushes saved conversions to external channels.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pricelens/internal/history"
)

// Notification carries one saved conversion and the threshold that
// triggered it.
type Notification struct {
	Record       history.ConversionRecord
	MinConverted decimal.Decimal
}

// Notifier delivers conversion notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// WebhookNotifier POSTs a JSON payload to a configured endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

// NewWebhookNotifier constructs a webhook notifier.
func NewWebhookNotifier(url string, timeout time.Duration, logger zerolog.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "alert_webhook").Logger(),
	}
}

type webhookPayload struct {
	Message         string `json:"message"`
	OriginalPrice   string `json:"original_price"`
	ConvertedAmount string `json:"converted_amount"`
	ForeignCurrency string `json:"foreign_currency"`
	LocalCurrency   string `json:"local_currency"`
	ExchangeRate    string `json:"exchange_rate"`
	Timestamp       string `json:"timestamp"`
}

// Notify posts the conversion; any non-2xx response is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, note Notification) error {
	rec := note.Record
	payload := webhookPayload{
		Message:         renderMessage(note),
		OriginalPrice:   rec.OriginalPrice.String(),
		ConvertedAmount: rec.ConvertedAmount.String(),
		ForeignCurrency: rec.ForeignCurrency,
		LocalCurrency:   rec.LocalCurrency,
		ExchangeRate:    rec.ExchangeRate.String(),
		Timestamp:       rec.Timestamp.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}

	n.logger.Info().
		Str("amount", rec.ConvertedAmount.String()).
		Str("currency", rec.LocalCurrency).
		Msg("conversion notification sent")
	return nil
}

func renderMessage(note Notification) string {
	rec := note.Record
	builder := strings.Builder{}
	builder.WriteString("[pricelens] conversion saved\n")
	builder.WriteString(fmt.Sprintf("Detected: %s %s\n", rec.OriginalPrice.String(), rec.ForeignCurrency))
	builder.WriteString(fmt.Sprintf("Converted: %s %s\n", rec.ConvertedAmount.StringFixed(2), rec.LocalCurrency))
	builder.WriteString(fmt.Sprintf("Rate: %s\n", rec.ExchangeRate.String()))
	if !note.MinConverted.IsZero() {
		builder.WriteString(fmt.Sprintf("Threshold: %s\n", note.MinConverted.String()))
	}
	builder.WriteString(fmt.Sprintf("At: %s UTC", rec.Timestamp.UTC().Format(time.RFC3339)))
	return builder.String()
}

var _ Notifier = (*WebhookNotifier)(nil)
