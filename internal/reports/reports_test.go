package reports

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"wifisub_app/internal/models"
)

func samplePayment(status models.PaymentStatus) models.Payment {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	approved := start.Add(2 * time.Hour)
	return models.Payment{
		ID:             "pay-1",
		UserID:         "user-1",
		Amount:         499.5,
		Method:         models.PaymentMethodUPI,
		Status:         status,
		DurationMonths: 1,
		StartDate:      start,
		EndDate:        start.AddDate(0, 1, 0),
		ApprovedAt:     &approved,
		User:           models.User{Name: "Asha", Email: "asha@example.com"},
	}
}

func TestPaymentsWorkbook(t *testing.T) {
	data, err := PaymentsWorkbook([]models.Payment{
		samplePayment(models.PaymentStatusApproved),
		samplePayment(models.PaymentStatusPending),
	})
	if err != nil {
		t.Fatalf("PaymentsWorkbook() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(paymentsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d; want header + 2", len(rows))
	}
	if rows[0][0] != "ID" || rows[1][1] != "Asha" || rows[1][5] != "approved" || rows[2][5] != "pending" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestReceipt(t *testing.T) {
	data, err := Receipt(samplePayment(models.PaymentStatusApproved), "Skyline WiFi")
	if err != nil {
		t.Fatalf("Receipt() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}

	if _, err := Receipt(samplePayment(models.PaymentStatusPending), ""); !errors.Is(err, ErrNotApproved) {
		t.Errorf("pending receipt error = %v; want ErrNotApproved", err)
	}
}
