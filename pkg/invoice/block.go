package invoice

import (
	"sort"
	"strings"
)

// Frame coordinates are normalized to the unit square (origin top-left,
// y grows downward) regardless of the physical page size, so all geometry
// below is independent of source resolution.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }
func (r Rect) MidX() float64 { return r.X + r.W/2 }
func (r Rect) MidY() float64 { return r.Y + r.H/2 }

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	x0 := r.X
	if o.X < x0 {
		x0 = o.X
	}
	y0 := r.Y
	if o.Y < y0 {
		y0 = o.Y
	}
	x1 := r.MaxX()
	if o.MaxX() > x1 {
		x1 = o.MaxX()
	}
	y1 := r.MaxY()
	if o.MaxY() > y1 {
		y1 = o.MaxY()
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// sameLineThreshold is the mid-y distance below which two fragments are
// considered to sit on the same printed line.
const sameLineThreshold = 0.02

// textLineThreshold is the tighter grouping used when reconstructing a
// block's reading order; extraction regexes depend on correct line order.
const textLineThreshold = 0.01

// TextBlock is a single positioned text fragment as produced by OCR or PDF
// text extraction. Immutable once created.
type TextBlock struct {
	ID    string `json:"id,omitempty"`
	Text  string `json:"text"`
	Frame Rect   `json:"frame"`
}

// SameLine reports whether b and o share a printed line.
func (b TextBlock) SameLine(o TextBlock) bool {
	d := b.Frame.MidY() - o.Frame.MidY()
	if d < 0 {
		d = -d
	}
	return d < sameLineThreshold
}

// BlockLabel is the semantic role assigned to a clustered block.
type BlockLabel int

const (
	LabelUnknown BlockLabel = iota
	LabelSeller
	LabelBuyer
	LabelMeta
	LabelTotals
	LabelETTN
	LabelNoise
	LabelContent
)

func (l BlockLabel) String() string {
	switch l {
	case LabelSeller:
		return "seller"
	case LabelBuyer:
		return "buyer"
	case LabelMeta:
		return "meta"
	case LabelTotals:
		return "totals"
	case LabelETTN:
		return "ettn"
	case LabelNoise:
		return "noise"
	case LabelContent:
		return "content"
	default:
		return "unknown"
	}
}

// VerticalPriority is the expected top-to-bottom position of the label on a
// typical e-Archive layout. Used for documentation and tie-breaking only.
func (l BlockLabel) VerticalPriority() int {
	switch l {
	case LabelSeller:
		return 1
	case LabelMeta:
		return 2
	case LabelBuyer:
		return 3
	case LabelETTN:
		return 4
	case LabelContent:
		return 5
	case LabelTotals:
		return 6
	case LabelNoise:
		return 7
	default:
		return 8
	}
}

// ConfidenceWeight expresses how much a field sourced from a block with this
// label can be trusted; seller/meta zones are more stable across issuers
// than buyer/content zones.
func (l BlockLabel) ConfidenceWeight() float64 {
	switch l {
	case LabelSeller, LabelMeta, LabelETTN:
		return 0.9
	case LabelTotals:
		return 0.8
	case LabelBuyer:
		return 0.6
	case LabelContent:
		return 0.4
	default:
		return 0.2
	}
}

// SemanticBlock is a cluster of fragments forming one logical paragraph.
// It owns its children; they are moved in at cluster time and never shared.
type SemanticBlock struct {
	ID       string
	Children []TextBlock
	Label    BlockLabel
}

// Frame is the union of all child frames. Recomputed on every call since
// children can still change while clustering is in progress.
func (s *SemanticBlock) Frame() Rect {
	if len(s.Children) == 0 {
		return Rect{}
	}
	r := s.Children[0].Frame
	for _, c := range s.Children[1:] {
		r = r.Union(c.Frame)
	}
	return r
}

// Text reconstructs the block's reading order: children are grouped into
// lines by mid-y proximity, each line is sorted left to right, and lines are
// joined top to bottom.
func (s *SemanticBlock) Text() string {
	if len(s.Children) == 0 {
		return ""
	}
	sorted := make([]TextBlock, len(s.Children))
	copy(sorted, s.Children)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Frame.MidY() < sorted[j].Frame.MidY()
	})

	var lines [][]TextBlock
	for _, f := range sorted {
		placed := false
		if n := len(lines); n > 0 {
			last := lines[n-1]
			d := f.Frame.MidY() - last[0].Frame.MidY()
			if d < 0 {
				d = -d
			}
			if d < textLineThreshold {
				lines[n-1] = append(last, f)
				placed = true
			}
		}
		if !placed {
			lines = append(lines, []TextBlock{f})
		}
	}

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].Frame.X < line[j].Frame.X
		})
		words := make([]string, 0, len(line))
		for _, f := range line {
			words = append(words, strings.TrimSpace(f.Text))
		}
		parts = append(parts, strings.Join(words, " "))
	}
	return strings.Join(parts, "\n")
}

// LineCount returns the number of reconstructed lines.
func (s *SemanticBlock) LineCount() int {
	t := s.Text()
	if t == "" {
		return 0
	}
	return strings.Count(t, "\n") + 1
}

// sortByTop orders fragments by ascending top edge. Extractors that use
// "next fragment" proximity logic rely on this ordering.
func sortByTop(frags []TextBlock) []TextBlock {
	out := make([]TextBlock, len(frags))
	copy(out, frags)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frame.Y < out[j].Frame.Y
	})
	return out
}
