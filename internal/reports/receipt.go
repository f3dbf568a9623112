package reports

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"wifisub_app/internal/models"
)

// ErrNotApproved is returned for receipts of payments that were not approved
var ErrNotApproved = errors.New("receipts are only issued for approved payments")

// Receipt renders a one-page PDF receipt for an approved payment
func Receipt(p models.Payment, payee string) ([]byte, error) {
	if p.Status != models.PaymentStatusApproved {
		return nil, ErrNotApproved
	}
	if payee == "" {
		payee = "WiFi Service"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment receipt "+p.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, payee)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, "Payment Receipt")
	pdf.Ln(14)

	line := func(label, value string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}

	line("Receipt no.", p.ID)
	line("Customer", p.User.Name)
	line("Email", p.User.Email)
	line("Amount", fmt.Sprintf("%.2f", p.Amount))
	line("Method", methodLabel(p.Method))
	line("Period", fmt.Sprintf("%s to %s (%d month(s))",
		p.StartDate.Format("02 Jan 2006"), p.EndDate.Format("02 Jan 2006"), p.DurationMonths))
	if p.ApprovedAt != nil {
		line("Approved on", p.ApprovedAt.Format("02 Jan 2006 15:04"))
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, "This receipt was generated automatically and is valid without a signature.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error generating receipt PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func methodLabel(m models.PaymentMethod) string {
	switch m {
	case models.PaymentMethodUPI:
		return "UPI"
	case models.PaymentMethodQRCode:
		return "QR code"
	}
	return string(m)
}
