package ocrsource

import (
	"image"
	"image/color"
	"testing"
)

func TestBinarizeThreshold(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{40, 40, 40, 255})
	img.Set(1, 0, color.NRGBA{240, 240, 240, 255})
	out := binarize(img, 210)
	if r, _, _, _ := out.At(0, 0).RGBA(); r != 0 {
		t.Fatalf("dark pixel not black")
	}
	if r, _, _, _ := out.At(1, 0).RGBA(); r>>8 != 255 {
		t.Fatalf("light pixel not white")
	}
}

func TestAdaptiveThresholdKeepsContrastEdges(t *testing.T) {
	// Dark glyph on a mid-gray background survives where a global
	// threshold at 210 would blacken everything.
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{150, 150, 150, 255})
		}
	}
	img.Set(4, 4, color.NRGBA{10, 10, 10, 255})
	out := adaptiveThreshold(img, 3, 7)
	if r, _, _, _ := out.At(4, 4).RGBA(); r != 0 {
		t.Fatalf("glyph pixel lost")
	}
	if r, _, _, _ := out.At(0, 0).RGBA(); r>>8 != 255 {
		t.Fatalf("background not white")
	}
}

func TestTrimOCRLine(t *testing.T) {
	if got := trimOCRLine(" FATURA\tNO:\n123 "); got != "FATURA NO: 123" {
		t.Fatalf("got %q", got)
	}
}
