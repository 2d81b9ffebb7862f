package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// FileStore keeps the history as a single JSON array, sorted by timestamp
// descending at write time and replaced atomically so a partial write can
// never corrupt previously-valid data.
//
// The whole load-append-sort-truncate-persist sequence of AddRecord runs
// under one mutex: concurrent writers apply in turn and never interleave.
type FileStore struct {
	path       string
	maxRecords int
	mu         sync.Mutex
	logger     zerolog.Logger
}

// NewFileStore builds a file-backed store. A non-positive maxRecords
// falls back to MaxRecords.
func NewFileStore(path string, maxRecords int, logger zerolog.Logger) *FileStore {
	if maxRecords <= 0 {
		maxRecords = MaxRecords
	}
	return &FileStore{
		path:       path,
		maxRecords: maxRecords,
		logger:     logger.With().Str("component", "history_file").Logger(),
	}
}

// AddRecord appends a record, prunes to the retention cap, and persists
// the full set. Write failures are returned to the caller.
func (s *FileStore) AddRecord(ctx context.Context, record ConversionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.readAll()
	records = append(records, record)
	sortByTimestampDesc(records)
	if len(records) > s.maxRecords {
		records = records[:s.maxRecords]
	}

	return s.persist(records)
}

// LoadHistory returns a timestamp-descending snapshot. A missing or
// unreadable file is logged and treated as an empty history.
func (s *FileStore) LoadHistory(ctx context.Context) ([]ConversionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.readAll()
	sortByTimestampDesc(records)
	return records, nil
}

// ClearHistory removes all persisted records.
func (s *FileStore) ClearHistory(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// readAll loads the raw record set. Corruption is not distinguished from
// "no history yet" at the read boundary.
func (s *FileStore) readAll() []ConversionRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("history unreadable, treating as empty")
		}
		return []ConversionRecord{}
	}

	var records []ConversionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("history corrupt, treating as empty")
		return []ConversionRecord{}
	}
	return records
}

func (s *FileStore) persist(records []ConversionRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func sortByTimestampDesc(records []ConversionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

var _ Store = (*FileStore)(nil)
