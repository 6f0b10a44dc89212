package report

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bilalelmas/invoscan/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// RunReport prints a month-bounded report for username (month in YYYY-MM) and
// optionally lists matching invoice_records rows. Amounts are stored in kuruş
// and printed in TL.
func RunReport(username, month string, list bool) {
	gdb := mustDBFromEnv()

	var user models.User
	if err := gdb.Where("username = ?", username).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}

	t, err := time.Parse("2006-01", month)
	if err != nil {
		log.Fatalf("invalid month format, expected YYYY-MM: %v", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var total sql.NullInt64
	var cnt, accepted, verified int64
	if err := gdb.Raw(`SELECT COALESCE(SUM(total_amount),0) AS total, COUNT(*) AS cnt,
		COUNT(*) FILTER (WHERE auto_accepted) AS accepted,
		COUNT(*) FILTER (WHERE verified) AS verified
		FROM invoice_records WHERE user_id = ? AND issue_date >= ? AND issue_date < ?`, user.ID, start, end).
		Row().Scan(&total, &cnt, &accepted, &verified); err != nil {
		log.Fatalf("query failed: %v", err)
	}

	fmt.Printf("Report for user=%s month=%s (UTC):\n", user.Username, month)
	fmt.Printf("  records=%d auto_accepted=%d verified=%d total_amount=%.2f TL\n", cnt, accepted, verified, float64(total.Int64)/100)

	if list {
		var rows []models.InvoiceRecord
		if err := gdb.Where("user_id = ? AND issue_date >= ? AND issue_date < ?", user.ID, start, end).Order("id").Find(&rows).Error; err != nil {
			log.Fatalf("fetch rows failed: %v", err)
		}
		for _, r := range rows {
			amt := int64(0)
			if r.TotalAmount != nil {
				amt = *r.TotalAmount
			}
			date := ""
			if r.IssueDate != nil {
				date = r.IssueDate.Format("2006-01-02")
			}
			fmt.Printf("%d|%s|%s|%s|%d|%.2f|%s\n", r.ID, r.ETTN, r.Number, r.SupplierName, amt, r.Confidence, date)
		}
	}
}
