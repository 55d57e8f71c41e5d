// Package receipt renders PDF receipts for payments.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"musicworks/pkg/domain"
)

// Render draws a one page A4 receipt for payment. work may be nil.
func Render(payment domain.Payment, work *domain.Work) ([]byte, error) {
	if strings.TrimSpace(payment.ID) == "" {
		return nil, fmt.Errorf("render receipt: payment id is empty")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment Receipt", false)
	pdf.SetCreator("musicworks", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PAYMENT RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Receipt No : " + payment.ID,
		"Date       : " + formatDate(payment.UpdatedAt, payment.CreatedAt),
		"Status     : " + string(payment.Status),
		"Method     : " + methodLabel(payment.PaymentMethod),
	}
	if payment.ExternalID != "" {
		lines = append(lines, "Reference  : "+payment.ExternalID)
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}
	pdf.Ln(6)

	if work != nil {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Registered work:")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, fmt.Sprintf("%s by %s", safe(work.Title, "-"), safe(strings.Join(work.Authors, ", "), "-")), "", "", false)
		if work.ISRC != "" {
			pdf.Cell(0, 6, "ISRC: "+work.ISRC)
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+domain.FormatAmount(payment.Amount, payment.Currency))
	pdf.Ln(12)

	if payment.Status != domain.PaymentCompleted {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "This payment has not been completed. The receipt is not proof of payment.", "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func methodLabel(m domain.PaymentMethod) string {
	switch m {
	case domain.MethodMercadoPago:
		return "Mercado Pago"
	case domain.MethodSubscription:
		return "Subscription"
	}
	return safe(string(m), "-")
}

func formatDate(times ...time.Time) string {
	for _, t := range times {
		if !t.IsZero() {
			return t.UTC().Format("2006-01-02 15:04")
		}
	}
	return "-"
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
