package invoice

import "strings"

// SpatialParser is the geometric extraction pipeline: cluster fragments
// into blocks, label them, partition into a layout and pull each field
// from its expected zone, falling back to whole-document text per field.
type SpatialParser struct {
	clusterer *Clusterer
	labeler   *Labeler
	tracer    Tracer
}

// NewSpatialParser wires the pipeline with default geometry and a tracer
// for decision diagnostics. Pass NopTracer (or nil) outside debug runs.
func NewSpatialParser(tracer Tracer) *SpatialParser {
	if tracer == nil {
		tracer = NopTracer
	}
	return &SpatialParser{
		clusterer: NewClusterer(DefaultClusterConfig()),
		labeler:   NewLabeler(tracer),
		tracer:    tracer,
	}
}

// Parse runs the full geometric pipeline over positioned fragments.
func (p *SpatialParser) Parse(frags []TextBlock) *Invoice {
	inv := &Invoice{RawFragments: frags}
	if len(frags) == 0 {
		return inv
	}

	blocks := p.clusterer.Cluster(frags)
	p.labeler.Label(blocks)
	layout := NewLayout(blocks)
	fullText := documentText(frags)

	p.tracer.Trace("layout", "partitioned", map[string]any{
		"blocks": len(blocks), "left": len(layout.LeftColumn),
		"right": len(layout.RightColumn), "full": len(layout.FullWidthBlocks),
	})

	// ETTN: dedicated block first, whole document second.
	if ettnBlocks := layout.WithLabel(LabelETTN); len(ettnBlocks) > 0 {
		inv.ETTN = ETTNFromText(ettnBlocks[0].Text())
	}
	if inv.ETTN == "" {
		inv.ETTN = ETTNFromText(fullText)
	}

	// Supplier: seller block walk, then VKN/TCKN proximity over the
	// whole document.
	if seller := layout.FirstLeft(LabelSeller); seller != nil {
		inv.SupplierName = SupplierFromSellerBlock(seller.Text())
	}
	if inv.SupplierName == "" {
		inv.SupplierName = SupplierNearTaxID(fullText)
	}

	// Buyer: the text after "SAYIN" on the buyer block's first matching line.
	if buyer := layout.FirstLeft(LabelBuyer); buyer != nil {
		inv.BuyerName = buyerAfterSayin(buyer.Text())
	}

	// Meta: invoice number and date from the right-column meta block,
	// each re-run over the full text when missing.
	if meta := layout.FirstRight(LabelMeta); meta != nil {
		inv.InvoiceNumber = InvoiceNumberFromText(meta.Text())
		inv.Date = DateFromText(meta.Text())
	}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = InvoiceNumberFromText(fullText)
	}
	if inv.Date == nil {
		inv.Date = DateFromText(fullText)
	}

	// Totals: right-column totals block, then full text.
	if totals := layout.FirstRight(LabelTotals); totals != nil {
		if amt, ok := AmountFromText(totals.Text()); ok {
			inv.TotalAmount = &amt
		}
	}
	if inv.TotalAmount == nil {
		if amt, ok := AmountFromText(fullText); ok {
			inv.TotalAmount = &amt
		}
	}

	if inv.TotalAmount != nil {
		v := VerifyAmountText(*inv.TotalAmount, fullText)
		inv.Verification = &v
	}
	return inv
}

// documentText reconstructs the document as one line per fragment in
// reading order. Line structure is what the keyword-ladder and proximity
// scans key on.
func documentText(frags []TextBlock) string {
	sorted := sortByTop(frags)
	lines := make([]string, 0, len(sorted))
	for _, f := range sorted {
		lines = append(lines, f.Text)
	}
	return strings.Join(lines, "\n")
}

// buyerAfterSayin returns the text following "SAYIN" on the first line that
// carries it.
func buyerAfterSayin(blockText string) string {
	for _, line := range strings.Split(blockText, "\n") {
		upper := Normalize(line)
		idx := strings.Index(upper, "SAYIN")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(upper[idx+len("SAYIN"):])
		rest = strings.TrimLeft(rest, ":, ")
		if rest != "" {
			return rest
		}
	}
	return ""
}
