package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pricelens/internal/history"
)

func testNotification() Notification {
	return Notification{
		Record: history.ConversionRecord{
			ID:              uuid.New(),
			OriginalPrice:   decimal.NewFromInt(1980),
			ConvertedAmount: decimal.RequireFromString("18.81"),
			ForeignCurrency: "JPY",
			LocalCurrency:   "EUR",
			ExchangeRate:    decimal.RequireFromString("0.0095"),
			Timestamp:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		MinConverted: decimal.NewFromInt(10),
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestWebhookNotifierSuccess(t *testing.T) {
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), testNotification()); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if received.OriginalPrice != "1980" {
		t.Fatalf("original_price = %q, want 1980", received.OriginalPrice)
	}
	if received.ConvertedAmount != "18.81" {
		t.Fatalf("converted_amount = %q, want 18.81", received.ConvertedAmount)
	}
	if received.ForeignCurrency != "JPY" || received.LocalCurrency != "EUR" {
		t.Fatalf("currencies not carried: %+v", received)
	}
	if !strings.Contains(received.Message, "18.81 EUR") {
		t.Fatalf("message should mention the converted amount: %q", received.Message)
	}
}

func TestWebhookNotifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), testNotification()); err == nil {
		t.Fatal("non-2xx response should be an error")
	}
}

func TestWebhookNotifierContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(srv.URL, time.Second, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := notifier.Notify(ctx, testNotification()); err == nil {
		t.Fatal("cancelled context should abort the request")
	}
}
