package invoice

import "time"

// Invoice is the structured extraction result. Pointer fields distinguish
// "not found" from zero values; string fields use "" for absent.
type Invoice struct {
	ETTN          string        `json:"ettn,omitempty"`
	InvoiceNumber string        `json:"invoiceNumber,omitempty"`
	Date          *time.Time    `json:"date,omitempty"`
	TotalAmount   *float64      `json:"totalAmount,omitempty"`
	SupplierName  string        `json:"supplierName,omitempty"`
	BuyerName     string        `json:"buyerName,omitempty"`
	RawFragments  []TextBlock   `json:"-"`
	Verification  *Verification `json:"verification,omitempty"`
}

// autoAcceptThreshold: extractions at or above this confidence skip manual
// review.
const autoAcceptThreshold = 0.70

// Confidence scores the extraction by field presence: the ETTN is worth
// 0.40 (it uniquely identifies the document), invoice number, total amount
// and supplier name 0.20 each. Capped at 1.0.
func (inv *Invoice) Confidence() float64 {
	score := 0.0
	if inv.ETTN != "" {
		score += 0.40
	}
	if inv.InvoiceNumber != "" {
		score += 0.20
	}
	if inv.TotalAmount != nil {
		score += 0.20
	}
	if inv.SupplierName != "" {
		score += 0.20
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// AutoAccepted reports whether the extraction is complete enough to be
// persisted without manual review.
func (inv *Invoice) AutoAccepted() bool {
	return inv.Confidence() >= autoAcceptThreshold
}
