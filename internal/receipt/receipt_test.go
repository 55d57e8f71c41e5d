package receipt

import (
	"bytes"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"

	"musicworks/pkg/domain"
)

func TestRenderProducesSinglePagePDF(t *testing.T) {
	payment := domain.Payment{
		ID:            "p1",
		Amount:        2999,
		Currency:      "usd",
		Status:        domain.PaymentCompleted,
		PaymentMethod: domain.MethodMercadoPago,
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	work := &domain.Work{Title: "Song", Authors: []string{"Ana"}, ISRC: "US-AB1-24-12345"}
	data, err := Render(payment, work)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", data[:8])
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("parse pdf: %v", err)
	}
	if r.NumPage() != 1 {
		t.Fatalf("expected 1 page, got %d", r.NumPage())
	}
}

func TestRenderRequiresPaymentID(t *testing.T) {
	if _, err := Render(domain.Payment{}, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestHelpers(t *testing.T) {
	if got := formatDate(time.Time{}, time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)); got != "2026-01-02 03:04" {
		t.Fatalf("formatDate = %q", got)
	}
	if formatDate() != "-" {
		t.Fatal("expected placeholder date")
	}
	if methodLabel("bank") != "bank" || methodLabel(domain.MethodMercadoPago) != "Mercado Pago" {
		t.Fatal("unexpected method labels")
	}
}
