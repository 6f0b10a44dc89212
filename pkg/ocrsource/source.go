package ocrsource

import (
	"errors"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/bilalelmas/invoscan/pkg/invoice"
)

// ErrNoText is returned when OCR finds no usable text lines in an image.
var ErrNoText = errors.New("ocrsource: no text detected")

// Extractor turns an invoice image into positioned text fragments with
// frames normalized to the unit square, ready for the spatial parser.
// Not safe for concurrent use; each worker gets its own Extractor.
type Extractor struct {
	// Languages passed to tesseract, most documents are Turkish with
	// Latin fallback.
	Languages []string
	// MinConfidence drops low-certainty boxes (tesseract reports 0-100).
	MinConfidence float64
}

func NewExtractor() *Extractor {
	return &Extractor{
		Languages:     []string{"tur", "eng"},
		MinConfidence: 30,
	}
}

// Fragments runs OCR over the image at path and returns one fragment per
// detected text line. Frames are normalized against the preprocessed image
// dimensions.
func (e *Extractor) Fragments(path string) ([]invoice.TextBlock, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ocrsource: open %s: %w", path, err)
	}
	prepared := prepare(img)

	tmp, err := os.CreateTemp("", "invoscan-ocr-*.png")
	if err != nil {
		return nil, fmt.Errorf("ocrsource: temp file: %w", err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpName)
	if err := imaging.Save(prepared, tmpName); err != nil {
		return nil, fmt.Errorf("ocrsource: save preprocessed: %w", err)
	}

	frags, err := e.boxesFromImage(tmpName, prepared.Bounds().Dx(), prepared.Bounds().Dy())
	if err != nil {
		return nil, err
	}
	if len(frags) == 0 {
		// Low-contrast retry on the adaptive threshold variant.
		adv := adaptiveThreshold(prepared, 15, 7)
		if err := imaging.Save(adv, tmpName); err == nil {
			frags, err = e.boxesFromImage(tmpName, adv.Bounds().Dx(), adv.Bounds().Dy())
			if err != nil {
				return nil, err
			}
		}
	}
	if len(frags) == 0 {
		return nil, ErrNoText
	}
	return frags, nil
}

func (e *Extractor) boxesFromImage(path string, width, height int) ([]invoice.TextBlock, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(e.Languages...); err != nil {
		return nil, fmt.Errorf("ocrsource: set language: %w", err)
	}
	_ = client.SetPageSegMode(gosseract.PSM_AUTO)
	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("ocrsource: set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("ocrsource: bounding boxes: %w", err)
	}

	w := float64(width)
	h := float64(height)
	frags := make([]invoice.TextBlock, 0, len(boxes))
	for i, box := range boxes {
		if box.Confidence < e.MinConfidence {
			continue
		}
		text := trimOCRLine(box.Word)
		if text == "" {
			continue
		}
		frags = append(frags, invoice.TextBlock{
			ID:   fmt.Sprintf("ln-%d", i+1),
			Text: text,
			Frame: invoice.Rect{
				X: float64(box.Box.Min.X) / w,
				Y: float64(box.Box.Min.Y) / h,
				W: float64(box.Box.Dx()) / w,
				H: float64(box.Box.Dy()) / h,
			},
		})
	}
	return frags, nil
}
