package invoice

import "sort"

// Layout partitions labeled blocks into left column, right column and
// full-width zones. Derived read-only view; never mutated after NewLayout.
type Layout struct {
	LeftColumn      []*SemanticBlock
	RightColumn     []*SemanticBlock
	FullWidthBlocks []*SemanticBlock
}

// fullWidthMinW: a block wider than this spans both columns.
const fullWidthMinW = 0.6

// NewLayout builds the partition: full-width if bounding width exceeds 0.6,
// otherwise left iff the horizontal center is left of the page middle.
// Each zone is sorted by increasing vertical center.
func NewLayout(blocks []*SemanticBlock) *Layout {
	m := &Layout{}
	for _, b := range blocks {
		frame := b.Frame()
		switch {
		case frame.W > fullWidthMinW:
			m.FullWidthBlocks = append(m.FullWidthBlocks, b)
		case frame.MidX() < 0.5:
			m.LeftColumn = append(m.LeftColumn, b)
		default:
			m.RightColumn = append(m.RightColumn, b)
		}
	}
	for _, zone := range [][]*SemanticBlock{m.LeftColumn, m.RightColumn, m.FullWidthBlocks} {
		sort.SliceStable(zone, func(i, j int) bool {
			return zone[i].Frame().MidY() < zone[j].Frame().MidY()
		})
	}
	return m
}

// WithLabel returns all blocks carrying the label, in column order
// (left, right, full-width), each zone top to bottom.
func (m *Layout) WithLabel(label BlockLabel) []*SemanticBlock {
	var out []*SemanticBlock
	for _, zone := range [][]*SemanticBlock{m.LeftColumn, m.RightColumn, m.FullWidthBlocks} {
		for _, b := range zone {
			if b.Label == label {
				out = append(out, b)
			}
		}
	}
	return out
}

// FirstLeft returns the topmost left-column block with the label, or nil.
func (m *Layout) FirstLeft(label BlockLabel) *SemanticBlock {
	return firstWith(m.LeftColumn, label)
}

// FirstRight returns the topmost right-column block with the label, or nil.
func (m *Layout) FirstRight(label BlockLabel) *SemanticBlock {
	return firstWith(m.RightColumn, label)
}

func firstWith(zone []*SemanticBlock, label BlockLabel) *SemanticBlock {
	for _, b := range zone {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// Vertical zone filters for diagnostics.

func (m *Layout) TopBlocks() []*SemanticBlock    { return m.inBand(0, 0.35) }
func (m *Layout) MiddleBlocks() []*SemanticBlock { return m.inBand(0.35, 0.65) }
func (m *Layout) BottomBlocks() []*SemanticBlock { return m.inBand(0.65, 1.01) }

func (m *Layout) inBand(lo, hi float64) []*SemanticBlock {
	var out []*SemanticBlock
	for _, zone := range [][]*SemanticBlock{m.LeftColumn, m.RightColumn, m.FullWidthBlocks} {
		for _, b := range zone {
			mid := b.Frame().MidY()
			if mid >= lo && mid < hi {
				out = append(out, b)
			}
		}
	}
	return out
}
