package models

import (
	"time"
)

// Upload represents an invoice image uploaded by a user.
type Upload struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FileName    string `gorm:"size:255;not null"`
	StorePath   string `gorm:"column:store_path;size:512"` // public relative path (e.g. public/invoices/xxx.jpg)
	UserID      uint   `gorm:"index;not null"`
	User        User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ContentType string `gorm:"size:128"`
	InvoiceID   *uint  `gorm:"index"` // FK to invoice_records.id (nullable until parsed)
	// Mark upload as failed for OCR processing (do not delete record so front-end/admin can review)
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
