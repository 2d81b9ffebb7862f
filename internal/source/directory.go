// Package source produces frames for the pipeline. The directory source
// stands in for a live camera: it polls a folder and offers every new
// image exactly once.
package source

import (
	"context"
	"image"
	_ "image/jpeg" // frame decoders
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// OfferFunc hands a frame to the consumer. It must not block; a false
// return means the frame was dropped.
type OfferFunc func(img image.Image) bool

// Options tune the directory source.
type Options struct {
	Dir      string
	Interval time.Duration
}

// Directory watches a folder for image files and offers them as frames at
// the configured cadence.
type Directory struct {
	opts   Options
	logger zerolog.Logger
	seen   map[string]struct{}
}

// NewDirectory constructs a directory source.
func NewDirectory(opts Options, logger zerolog.Logger) *Directory {
	if opts.Interval <= 0 {
		panic("source interval must be positive")
	}
	return &Directory{
		opts:   opts,
		logger: logger.With().Str("component", "source").Logger(),
		seen:   make(map[string]struct{}),
	}
}

// Run blocks, offering newly appearing frames until ctx is cancelled.
// Frame delivery never waits on processing: refused offers are logged and
// the frame is gone.
func (d *Directory) Run(ctx context.Context, offer OfferFunc) error {
	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, path := range d.newFiles() {
				img, err := loadImage(path)
				if err != nil {
					d.logger.Warn().Err(err).Str("path", path).Msg("unreadable frame file")
					continue
				}
				if !offer(img) {
					d.logger.Debug().Str("path", path).Msg("frame dropped")
				}
			}
		}
	}
}

// newFiles lists not-yet-offered image files, oldest first. Files are
// marked seen regardless of whether the consumer accepted them.
func (d *Directory) newFiles() []string {
	entries, err := os.ReadDir(d.opts.Dir)
	if err != nil {
		d.logger.Warn().Err(err).Str("dir", d.opts.Dir).Msg("cannot read frame directory")
		return nil
	}

	type candidate struct {
		path    string
		modTime time.Time
	}

	var fresh []candidate
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		path := filepath.Join(d.opts.Dir, entry.Name())
		if _, ok := d.seen[path]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		d.seen[path] = struct{}{}
		fresh = append(fresh, candidate{path: path, modTime: info.ModTime()})
	}

	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].modTime.Before(fresh[j].modTime)
	})

	paths := make([]string, len(fresh))
	for i, c := range fresh {
		paths[i] = c.path
	}
	return paths
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
