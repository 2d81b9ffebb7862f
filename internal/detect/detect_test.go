package detect

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtractNumbers(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{name: "embedded decimal", text: "Price: 100.50", want: []string{"100.50"}},
		{name: "empty input", text: "", want: nil},
		{name: "no digits", text: "SALE", want: nil},
		{name: "multiple tokens", text: "2 for 1980", want: []string{"2", "1980"}},
		{name: "thousands separator splits", text: "1,234", want: []string{"1", "234"}},
		{name: "leading zeros kept", text: "0001", want: []string{"0001"}},
		{name: "negative", text: "-5.5", want: []string{"-5.5"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractNumbers(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ExtractNumbers(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestNewClampsConfidence(t *testing.T) {
	box := Rect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.1}

	if d := New(decimal.NewFromInt(1), box, 1.5); d.Confidence != 1 {
		t.Fatalf("confidence above one should clamp to 1, got %v", d.Confidence)
	}
	if d := New(decimal.NewFromInt(1), box, -0.5); d.Confidence != 0 {
		t.Fatalf("negative confidence should clamp to 0, got %v", d.Confidence)
	}
	if d := New(decimal.NewFromInt(1), box, 0.73); d.Confidence != 0.73 {
		t.Fatalf("in-range confidence should pass through, got %v", d.Confidence)
	}
}

func TestRectValid(t *testing.T) {
	if !(Rect{X: 0, Y: 0, Width: 1, Height: 1}).Valid() {
		t.Fatal("full-frame box should be valid")
	}
	if (Rect{X: 0.9, Y: 0, Width: 0.2, Height: 0.1}).Valid() {
		t.Fatal("box exceeding the right edge should be invalid")
	}
	if (Rect{X: 0.1, Y: 0.1, Width: 0, Height: 0.1}).Valid() {
		t.Fatal("zero-width box should be invalid")
	}
}

func TestBuildSkipsNonNumericText(t *testing.T) {
	observations := []Observation{
		{Text: "1980 yen", Box: Rect{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.1}, Confidence: 0.95},
		{Text: "open daily", Box: Rect{X: 0.5, Y: 0.5, Width: 0.2, Height: 0.05}, Confidence: 0.99},
	}

	detections := Build(observations)
	if len(detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(detections))
	}
	if !detections[0].Value.Equal(decimal.NewFromInt(1980)) {
		t.Fatalf("detection value = %s, want 1980", detections[0].Value)
	}
	if detections[0].Box != observations[0].Box {
		t.Fatalf("detection should inherit the observation box")
	}
}

func TestDeduplicate(t *testing.T) {
	near := []Detection{
		New(decimal.NewFromInt(1980), Rect{X: 0.10, Y: 0.10, Width: 0.10, Height: 0.05}, 0.9),
		New(decimal.NewFromInt(1980), Rect{X: 0.11, Y: 0.11, Width: 0.10, Height: 0.05}, 0.8),
	}
	got := Deduplicate(near, 0.05)
	if len(got) != 1 {
		t.Fatalf("overlapping detections should collapse to 1, got %d", len(got))
	}
	if got[0].Confidence != 0.9 {
		t.Fatalf("earlier detection should win, got confidence %v", got[0].Confidence)
	}

	apart := []Detection{
		New(decimal.NewFromInt(1980), Rect{X: 0.1, Y: 0.1, Width: 0.1, Height: 0.05}, 0.9),
		New(decimal.NewFromInt(500), Rect{X: 0.6, Y: 0.6, Width: 0.1, Height: 0.05}, 0.8),
	}
	got = Deduplicate(apart, 0.05)
	if len(got) != 2 {
		t.Fatalf("distant detections should both survive, got %d", len(got))
	}
	if !got[0].Value.Equal(decimal.NewFromInt(1980)) || !got[1].Value.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("deduplication should preserve input order: %v", got)
	}
}

func TestDeduplicateDefaultDistance(t *testing.T) {
	detections := []Detection{
		New(decimal.NewFromInt(1), Rect{X: 0.10, Y: 0.10, Width: 0.02, Height: 0.02}, 0.9),
		New(decimal.NewFromInt(2), Rect{X: 0.12, Y: 0.10, Width: 0.02, Height: 0.02}, 0.9),
	}
	if got := Deduplicate(detections, 0); len(got) != 1 {
		t.Fatalf("zero distance should fall back to the default, got %d detections", len(got))
	}
}

func TestFilterByConfidence(t *testing.T) {
	box := Rect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.1}
	detections := []Detection{
		New(decimal.NewFromInt(1), box, 0.95),
		New(decimal.NewFromInt(2), box, 0.90),
		New(decimal.NewFromInt(3), box, 0.89),
	}

	kept := FilterByConfidence(detections, 0.90)
	if len(kept) != 2 {
		t.Fatalf("expected 2 detections at threshold 0.90, got %d", len(kept))
	}
	for _, d := range kept {
		if d.Confidence < 0.90 {
			t.Fatalf("detection below threshold survived: %v", d.Confidence)
		}
	}
}
