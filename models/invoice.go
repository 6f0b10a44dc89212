package models

import "time"

// InvoiceRecord is the persisted result of a parsed e-Archive invoice.
// ETTN is unique per user; re-parsing the same document updates the row
// instead of duplicating it.
type InvoiceRecord struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint       `gorm:"index;not null;uniqueIndex:idx_user_ettn"`
	ETTN      string     `gorm:"column:ettn;size:36;uniqueIndex:idx_user_ettn"`
	Number    string     `gorm:"column:invoice_number;size:32;index"`
	IssueDate *time.Time `gorm:"index"`
	// TotalAmount is stored in kuruş to avoid float drift in sums.
	TotalAmount  *int64
	SupplierName string  `gorm:"size:255"`
	BuyerName    string  `gorm:"size:255"`
	Confidence   float64 `gorm:"not null"`
	AutoAccepted bool    `gorm:"default:false;index"`
	// Verified reports whether the spelled-out amount line agreed with the
	// numeric total.
	Verified bool `gorm:"default:false"`
	// RawText keeps the flattened document for reprocessing and audits.
	RawText string `gorm:"type:text"`
}
