package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func testStore(t *testing.T) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "currency_settings.json")
	return NewFileStore(path, zerolog.Nop())
}

func TestValidate(t *testing.T) {
	valid := CurrencySettings{
		ForeignCurrency: "JPY",
		LocalCurrency:   "EUR",
		ExchangeRate:    decimal.RequireFromString("0.0095"),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*CurrencySettings)
		want   error
	}{
		{"empty foreign", func(s *CurrencySettings) { s.ForeignCurrency = "" }, ErrEmptyForeignCurrency},
		{"empty local", func(s *CurrencySettings) { s.LocalCurrency = "" }, ErrEmptyLocalCurrency},
		{"foreign too long", func(s *CurrencySettings) { s.ForeignCurrency = strings.Repeat("X", 21) }, ErrCurrencyTooLong},
		{"zero rate", func(s *CurrencySettings) { s.ExchangeRate = decimal.Zero }, ErrRateNotPositive},
		{"negative rate", func(s *CurrencySettings) { s.ExchangeRate = decimal.NewFromInt(-1) }, ErrRateNotPositive},
		{"rate too large", func(s *CurrencySettings) { s.ExchangeRate = decimal.NewFromInt(10_001) }, ErrRateTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cs := valid
			tc.mutate(&cs)
			if err := cs.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := testStore(t)
	cs := CurrencySettings{
		ForeignCurrency: "JPY",
		LocalCurrency:   "EUR",
		ExchangeRate:    decimal.RequireFromString("0.0095"),
	}

	if err := store.Save(cs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.ForeignCurrency != "JPY" || got.LocalCurrency != "EUR" {
		t.Fatalf("currencies not round-tripped: %+v", got)
	}
	if !got.ExchangeRate.Equal(cs.ExchangeRate) {
		t.Fatalf("rate not round-tripped: %s", got.ExchangeRate)
	}
	if got.LastUpdated.IsZero() {
		t.Fatal("Save should stamp LastUpdated")
	}
}

func TestSaveRejectsInvalidWithoutPersisting(t *testing.T) {
	store := testStore(t)

	err := store.Save(CurrencySettings{ForeignCurrency: "JPY", LocalCurrency: "EUR"})
	if !errors.Is(err, ErrRateNotPositive) {
		t.Fatalf("expected ErrRateNotPositive, got %v", err)
	}

	if _, err := os.Stat(store.path); !os.IsNotExist(err) {
		t.Fatal("invalid settings must not be written to disk")
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := testStore(t)
	if _, err := store.Load(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSaveReplacesPreviousRecord(t *testing.T) {
	store := testStore(t)
	first := CurrencySettings{ForeignCurrency: "JPY", LocalCurrency: "EUR", ExchangeRate: decimal.RequireFromString("0.0095")}
	second := CurrencySettings{ForeignCurrency: "USD", LocalCurrency: "EUR", ExchangeRate: decimal.RequireFromString("0.92")}

	if err := store.Save(first); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if got.ForeignCurrency != "USD" {
		t.Fatalf("last write should win, got %q", got.ForeignCurrency)
	}
}
