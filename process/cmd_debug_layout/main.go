package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/bilalelmas/invoscan/pkg/invoice"
	"github.com/bilalelmas/invoscan/pkg/ocrsource"
)

// Debug tool: OCR a single invoice image and dump the fragment layout,
// clustered blocks with labels, and the final extraction with pipeline
// trace events on stderr.
func main() {
	f := flag.String("file", "", "image file to OCR")
	flag.Parse()
	if *f == "" {
		log.Fatalf("-file required")
	}

	extractor := ocrsource.NewExtractor()
	frags, err := extractor.Fragments(*f)
	if err != nil {
		log.Fatalf("ocr error: %v", err)
	}
	fmt.Printf("fragments=%d\n", len(frags))
	for _, fr := range frags {
		fmt.Printf("  [%s] x=%.3f y=%.3f w=%.3f h=%.3f %q\n", fr.ID, fr.Frame.X, fr.Frame.Y, fr.Frame.W, fr.Frame.H, fr.Text)
	}

	tracer := &invoice.SlogTracer{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	clusterer := invoice.NewClusterer(invoice.DefaultClusterConfig())
	blocks := clusterer.Cluster(frags)
	labeler := invoice.NewLabeler(tracer)
	blocks = labeler.Label(blocks)
	fmt.Printf("blocks=%d\n", len(blocks))
	for _, b := range blocks {
		fr := b.Frame()
		fmt.Printf("  [%s] label=%s lines=%d y=%.3f %q\n", b.ID, b.Label, b.LineCount(), fr.Y, b.Text())
	}

	inv := invoice.NewParser(tracer).Parse(frags)
	fmt.Printf("ettn=%s number=%s supplier=%q buyer=%q conf=%.2f\n", inv.ETTN, inv.InvoiceNumber, inv.SupplierName, inv.BuyerName, inv.Confidence())
	if inv.Date != nil {
		fmt.Printf("date=%s\n", inv.Date.Format("02.01.2006"))
	}
	if inv.TotalAmount != nil {
		fmt.Printf("amount=%s\n", invoice.FormatMoney(*inv.TotalAmount))
	}
	if inv.Verification != nil {
		fmt.Printf("verified=%v reason=%s\n", inv.Verification.IsMatch, inv.Verification.Reason)
	}
}
