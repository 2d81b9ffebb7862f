package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func testFileStore(t *testing.T) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conversion_history.json")
	return NewFileStore(path, MaxRecords, zerolog.Nop())
}

func testRecord(ts time.Time) ConversionRecord {
	return ConversionRecord{
		ID:              uuid.New(),
		OriginalPrice:   decimal.NewFromInt(1980),
		ConvertedAmount: decimal.RequireFromString("18.81"),
		ForeignCurrency: "JPY",
		LocalCurrency:   "EUR",
		ExchangeRate:    decimal.RequireFromString("0.0095"),
		Timestamp:       ts,
	}
}

func TestAddRecordCapsAtMaxRecords(t *testing.T) {
	store := testFileStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < MaxRecords+5; i++ {
		rec := testRecord(base.Add(time.Duration(i) * time.Minute))
		if err := store.AddRecord(ctx, rec); err != nil {
			t.Fatalf("AddRecord %d failed: %v", i, err)
		}
	}

	records, err := store.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(records) != MaxRecords {
		t.Fatalf("expected exactly %d records, got %d", MaxRecords, len(records))
	}

	// Newest first, and the survivors are the newest five-past-cap set.
	newest := base.Add(time.Duration(MaxRecords+4) * time.Minute)
	if !records[0].Timestamp.Equal(newest) {
		t.Fatalf("first record should be the newest: got %s, want %s", records[0].Timestamp, newest)
	}
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.After(records[i-1].Timestamp) {
			t.Fatalf("records not sorted descending at index %d", i)
		}
	}
	oldest := base.Add(5 * time.Minute)
	if !records[len(records)-1].Timestamp.Equal(oldest) {
		t.Fatalf("oldest surviving record should be %s, got %s", oldest, records[len(records)-1].Timestamp)
	}
}

func TestAddRecordConcurrentWriters(t *testing.T) {
	store := testFileStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.AddRecord(ctx, testRecord(base.Add(time.Duration(i)*time.Second)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent AddRecord failed: %v", err)
		}
	}

	records, err := store.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(records) != writers {
		t.Fatalf("expected %d records after concurrent writes, got %d", writers, len(records))
	}
}

func TestClearHistory(t *testing.T) {
	store := testFileStore(t)
	ctx := context.Background()

	if err := store.AddRecord(ctx, testRecord(time.Now().UTC())); err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}
	if err := store.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}

	records, err := store.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history after clear, got %d records", len(records))
	}

	// Clearing an already-empty store is not an error.
	if err := store.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory on empty store failed: %v", err)
	}
}

func TestLoadHistoryCorruptFile(t *testing.T) {
	store := testFileStore(t)
	ctx := context.Background()

	if err := os.WriteFile(store.path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	records, err := store.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("corrupt history should not surface an error, got %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("corrupt history should read as empty, got %d records", len(records))
	}

	// A write after corruption starts a fresh history.
	if err := store.AddRecord(ctx, testRecord(time.Now().UTC())); err != nil {
		t.Fatalf("AddRecord after corruption failed: %v", err)
	}
	records, err = store.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after recovery, got %d", len(records))
	}
}

func TestAddRecordHonoursCancelledContext(t *testing.T) {
	store := testFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.AddRecord(ctx, testRecord(time.Now().UTC())); err == nil {
		t.Fatal("AddRecord with cancelled context should fail")
	}
}

func TestCustomRetentionCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), fmt.Sprintf("history-%d.json", time.Now().UnixNano()))
	store := NewFileStore(path, 3, zerolog.Nop())
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if err := store.AddRecord(ctx, testRecord(base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("AddRecord failed: %v", err)
		}
	}

	records, err := store.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records under custom cap, got %d", len(records))
	}
}
