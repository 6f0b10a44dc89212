package invoice

import "testing"

func frag(text string, x, y, w, h float64) TextBlock {
	return TextBlock{Text: text, Frame: Rect{X: x, Y: y, W: w, H: h}}
}

func TestClusterSameLineMerge(t *testing.T) {
	c := NewClusterer(DefaultClusterConfig())
	blocks := c.Cluster([]TextBlock{
		frag("SATICI", 0.10, 0.10, 0.10, 0.02),
		frag("BİLGİLERİ", 0.22, 0.10, 0.10, 0.02),
	})
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block got %d", len(blocks))
	}
	if got := blocks[0].Text(); got != "SATICI BİLGİLERİ" {
		t.Fatalf("reading order broken: %q", got)
	}
}

func TestClusterCrossColumnReject(t *testing.T) {
	// Close enough to merge by edge gap, but on opposite sides of the
	// column split; seller text must not bleed into the meta column.
	c := NewClusterer(DefaultClusterConfig())
	blocks := c.Cluster([]TextBlock{
		frag("ACME A.Ş.", 0.30, 0.10, 0.14, 0.02),
		frag("FATURA NO: X", 0.47, 0.10, 0.20, 0.02),
	})
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks got %d", len(blocks))
	}
}

func TestClusterParagraphMerge(t *testing.T) {
	c := NewClusterer(DefaultClusterConfig())
	blocks := c.Cluster([]TextBlock{
		frag("ACME TEKSTİL", 0.10, 0.100, 0.30, 0.02),
		frag("SANAYİ VE TİCARET A.Ş.", 0.10, 0.125, 0.25, 0.02),
	})
	if len(blocks) != 1 {
		t.Fatalf("left-aligned stacked lines should merge, got %d blocks", len(blocks))
	}
	if blocks[0].LineCount() != 2 {
		t.Fatalf("expected 2 lines got %d", blocks[0].LineCount())
	}
}

func TestClusterVerticalGapTooLarge(t *testing.T) {
	c := NewClusterer(DefaultClusterConfig())
	blocks := c.Cluster([]TextBlock{
		frag("ACME TEKSTİL", 0.10, 0.10, 0.30, 0.02),
		frag("TOPLAM: 100,00", 0.10, 0.20, 0.30, 0.02),
	})
	if len(blocks) != 2 {
		t.Fatalf("distant lines must stay separate, got %d blocks", len(blocks))
	}
}

func TestClusterTransitiveClosure(t *testing.T) {
	// a merges with b, b with c; all three end up in one block even though
	// a and c alone would not merge.
	c := NewClusterer(DefaultClusterConfig())
	blocks := c.Cluster([]TextBlock{
		frag("a", 0.10, 0.100, 0.30, 0.02),
		frag("b", 0.10, 0.125, 0.30, 0.02),
		frag("c", 0.10, 0.150, 0.30, 0.02),
	})
	if len(blocks) != 1 {
		t.Fatalf("expected transitive merge into 1 block, got %d", len(blocks))
	}
	if len(blocks[0].Children) != 3 {
		t.Fatalf("expected 3 children got %d", len(blocks[0].Children))
	}
}

func TestClusterMinLenDropsDebris(t *testing.T) {
	c := NewClusterer(DefaultClusterConfig())
	blocks := c.ClusterMinLen([]TextBlock{
		frag(".", 0.10, 0.10, 0.01, 0.02),
		frag("SATICI BİLGİLERİ", 0.10, 0.20, 0.30, 0.02),
	}, 2)
	if len(blocks) != 1 || len(blocks[0].Children) != 1 {
		t.Fatalf("single-char debris should be dropped")
	}
}

func TestClusterEmptyInput(t *testing.T) {
	c := NewClusterer(DefaultClusterConfig())
	if blocks := c.Cluster(nil); blocks != nil {
		t.Fatalf("expected nil for empty input")
	}
}
