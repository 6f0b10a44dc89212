package invoice

import (
	"testing"
	"time"
)

func TestDateFromTextSeparators(t *testing.T) {
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"DÜZENLEME TARİHİ: 15.03.2025",
		"TARİH: 15/03/2025",
		"15-03-2025",
	} {
		got := DateFromText(in)
		if got == nil || !got.Equal(want) {
			t.Fatalf("DateFromText(%q) = %v want %v", in, got, want)
		}
	}
}

func TestDateFromTextInvalidYieldsNil(t *testing.T) {
	// Never default to today on garbage.
	if got := DateFromText("TARİH: 45.13.2025"); got != nil {
		t.Fatalf("expected nil got %v", got)
	}
	if got := DateFromText("TARİH YOK"); got != nil {
		t.Fatalf("expected nil got %v", got)
	}
}

func TestInvoiceNumberArchivePattern(t *testing.T) {
	got := InvoiceNumberFromText("FATURA NO: GIB2025000000001")
	if got != "GIB2025000000001" {
		t.Fatalf("got %q", got)
	}
}

func TestInvoiceNumberGeneralFallback(t *testing.T) {
	got := InvoiceNumberFromText("BELGE NO: AB12345678")
	if got != "AB12345678" {
		t.Fatalf("got %q", got)
	}
}

func TestInvoiceNumberRejectsPhoneAndID(t *testing.T) {
	if got := InvoiceNumberFromText("TEL: 05321234567"); got != "" {
		t.Fatalf("phone number accepted as invoice number: %q", got)
	}
	if got := InvoiceNumberFromText("TCKN: 12345678901"); got != "" {
		t.Fatalf("national ID accepted as invoice number: %q", got)
	}
}
