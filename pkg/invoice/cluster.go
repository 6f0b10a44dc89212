package invoice

import (
	"fmt"
	"sort"
	"strings"
)

// ClusterConfig tunes the geometric merge rules. Zero value is not usable;
// start from DefaultClusterConfig.
type ClusterConfig struct {
	// VerticalMergeRatio scales line height into the maximum vertical gap
	// for a paragraph merge.
	VerticalMergeRatio float64
	// HorizontalMergeThreshold is the maximum edge gap for a same-line merge.
	HorizontalMergeThreshold float64
	// AlignmentThreshold is the tolerance for left/right/center alignment.
	AlignmentThreshold float64
	// LeftColumnMaxX / RightColumnMinX split the page into columns; the band
	// between them counts as center and may merge either way.
	LeftColumnMaxX  float64
	RightColumnMinX float64
	// MaxMergeXDistance rejects any pair whose horizontal centers are
	// further apart, regardless of other rules.
	MaxMergeXDistance float64
}

func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		VerticalMergeRatio:       1.5,
		HorizontalMergeThreshold: 0.10,
		AlignmentThreshold:       0.05,
		LeftColumnMaxX:           0.45,
		RightColumnMinX:          0.55,
		MaxMergeXDistance:        0.40,
	}
}

// Clusterer merges raw positioned fragments into semantic paragraphs.
type Clusterer struct {
	cfg ClusterConfig
}

func NewClusterer(cfg ClusterConfig) *Clusterer {
	return &Clusterer{cfg: cfg}
}

// Cluster groups fragments into blocks. Merging is the transitive closure of
// the pairwise merge predicate, computed with a disjoint-set over fragment
// indices; this is equivalent to repeatedly merging clusters until a fixed
// point but avoids quadratic list splicing.
func (c *Clusterer) Cluster(frags []TextBlock) []*SemanticBlock {
	if len(frags) == 0 {
		return nil
	}
	sorted := sortByTop(frags)

	parent := make([]int, len(sorted))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if c.shouldMerge(sorted[i], sorted[j]) {
				union(i, j)
			}
		}
	}

	groups := map[int][]TextBlock{}
	order := []int{}
	for i, f := range sorted {
		r := find(i)
		if _, ok := groups[r]; !ok {
			order = append(order, r)
		}
		groups[r] = append(groups[r], f)
	}

	blocks := make([]*SemanticBlock, 0, len(order))
	for n, r := range order {
		blocks = append(blocks, &SemanticBlock{
			ID:       fmt.Sprintf("blk-%d", n+1),
			Children: groups[r],
			Label:    LabelUnknown,
		})
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Frame().Y < blocks[j].Frame().Y
	})
	return blocks
}

// ClusterMinLen drops fragments whose trimmed text is shorter than minLen
// before clustering. Useful for filtering single-character OCR debris.
func (c *Clusterer) ClusterMinLen(frags []TextBlock, minLen int) []*SemanticBlock {
	kept := make([]TextBlock, 0, len(frags))
	for _, f := range frags {
		if len([]rune(strings.TrimSpace(f.Text))) >= minLen {
			kept = append(kept, f)
		}
	}
	return c.Cluster(kept)
}

type pageColumn int

const (
	columnLeft pageColumn = iota
	columnCenter
	columnRight
)

func (c *Clusterer) columnOf(f TextBlock) pageColumn {
	mid := f.Frame.MidX()
	switch {
	case mid < c.cfg.LeftColumnMaxX:
		return columnLeft
	case mid > c.cfg.RightColumnMinX:
		return columnRight
	default:
		return columnCenter
	}
}

// shouldMerge is the order-independent merge predicate for two fragments.
func (c *Clusterer) shouldMerge(a, b TextBlock) bool {
	xDist := a.Frame.MidX() - b.Frame.MidX()
	if xDist < 0 {
		xDist = -xDist
	}
	if xDist > c.cfg.MaxMergeXDistance {
		return false
	}

	// Never merge across a determined column boundary; this is what keeps
	// the seller paragraph from bleeding into the meta column.
	colA, colB := c.columnOf(a), c.columnOf(b)
	if colA != colB && colA != columnCenter && colB != columnCenter {
		return false
	}

	// Same-line merge: vertical extents overlap and the horizontal gap
	// between closest edges is small.
	if verticalOverlap(a.Frame, b.Frame) {
		gap := horizontalGap(a.Frame, b.Frame)
		if gap >= 0 && gap < c.cfg.HorizontalMergeThreshold {
			return true
		}
	}

	// Paragraph merge: stacked within a line-height budget and aligned on
	// left edges, right edges, or centers.
	vGap := verticalGap(a.Frame, b.Frame)
	if vGap < 0 {
		return false
	}
	lineHeight := a.Frame.H
	if b.Frame.H > lineHeight {
		lineHeight = b.Frame.H
	}
	if vGap >= lineHeight*c.cfg.VerticalMergeRatio {
		return false
	}
	return c.aligned(a.Frame, b.Frame)
}

func (c *Clusterer) aligned(a, b Rect) bool {
	t := c.cfg.AlignmentThreshold
	return absf(a.X-b.X) < t || absf(a.MaxX()-b.MaxX()) < t || absf(a.MidX()-b.MidX()) < t
}

func verticalOverlap(a, b Rect) bool {
	return a.Y < b.MaxY() && b.Y < a.MaxY()
}

// horizontalGap returns the distance between the closest vertical edges;
// negative when the rectangles overlap horizontally.
func horizontalGap(a, b Rect) float64 {
	if a.X > b.X {
		a, b = b, a
	}
	return b.X - a.MaxX()
}

// verticalGap returns the distance between the closest horizontal edges;
// negative when the rectangles overlap vertically.
func verticalGap(a, b Rect) float64 {
	if a.Y > b.Y {
		a, b = b, a
	}
	return b.Y - a.MaxY()
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
