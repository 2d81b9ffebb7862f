package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotConfigured indicates no settings record has been saved yet.
var ErrNotConfigured = errors.New("settings: not configured")

// FileStore persists a single CurrencySettings record as JSON with
// replace-whole-file semantics. Last write wins; there is no merge.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewFileStore builds a store writing to path.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With().Str("component", "settings_store").Logger(),
	}
}

// Save validates the record, stamps LastUpdated, and atomically replaces
// the backing file.
func (s *FileStore) Save(cs CurrencySettings) error {
	cs.LastUpdated = time.Now().UTC()
	if err := cs.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := replaceFile(s.path, data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	s.logger.Info().
		Str("foreign", cs.ForeignCurrency).
		Str("local", cs.LocalCurrency).
		Str("rate", cs.ExchangeRate.String()).
		Msg("settings saved")
	return nil
}

// Load reads the saved record. A missing file yields ErrNotConfigured.
func (s *FileStore) Load() (CurrencySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CurrencySettings{}, ErrNotConfigured
		}
		return CurrencySettings{}, fmt.Errorf("read settings: %w", err)
	}

	var cs CurrencySettings
	if err := json.Unmarshal(data, &cs); err != nil {
		return CurrencySettings{}, fmt.Errorf("decode settings: %w", err)
	}
	return cs, nil
}

// Current returns settings that are present and valid, for use by the
// processing pipeline.
func (s *FileStore) Current() (CurrencySettings, error) {
	cs, err := s.Load()
	if err != nil {
		return CurrencySettings{}, err
	}
	if err := cs.Validate(); err != nil {
		return CurrencySettings{}, err
	}
	return cs, nil
}

// replaceFile writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial write.
func replaceFile(path string, data []byte) error {
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
