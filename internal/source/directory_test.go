package source

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeFrame(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.Gray{Y: 128})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create frame file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return path
}

func TestDirectoryOffersNewFramesOnce(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame1.png")
	writeFrame(t, dir, "frame2.png")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatalf("write non-image file: %v", err)
	}

	src := NewDirectory(Options{Dir: dir, Interval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	offered := 0
	err := src.Run(ctx, func(image.Image) bool {
		offered++
		if offered == 2 {
			cancel()
		}
		return true
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run should stop with context.Canceled, got %v", err)
	}
	if offered != 2 {
		t.Fatalf("expected 2 offered frames, got %d", offered)
	}
}

func TestDirectoryMarksRefusedFramesSeen(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame.png")

	src := NewDirectory(Options{Dir: dir, Interval: time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	offers := 0
	_ = src.Run(ctx, func(image.Image) bool {
		offers++
		return false
	})

	if offers != 1 {
		t.Fatalf("a refused frame must not be offered again, got %d offers", offers)
	}
}

func TestNewDirectoryPanicsOnBadInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-positive interval")
		}
	}()
	NewDirectory(Options{Dir: ".", Interval: 0}, zerolog.Nop())
}

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.png", "b.JPG", "c.jpeg"} {
		if !isImageFile(name) {
			t.Fatalf("%s should be treated as an image", name)
		}
	}
	for _, name := range []string{"a.txt", "b.gif", "c"} {
		if isImageFile(name) {
			t.Fatalf("%s should not be treated as an image", name)
		}
	}
}
