// Package reports renders payment data as spreadsheets and PDF receipts.
package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"wifisub_app/internal/models"
)

const paymentsSheet = "Payments"

var paymentHeaders = []interface{}{
	"ID", "Customer", "Email", "Amount", "Method", "Status",
	"Months", "Start", "End", "Submitted", "Approved At", "Rejection Reason",
}

// PaymentsWorkbook writes one row per payment into an xlsx file
func PaymentsWorkbook(payments []models.Payment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", paymentsSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(paymentsSheet, "A1", &paymentHeaders); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(paymentsSheet, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, p := range payments {
		approvedAt := ""
		if p.ApprovedAt != nil {
			approvedAt = p.ApprovedAt.Format("2006-01-02 15:04")
		}
		reason := ""
		if p.RejectionReason != nil {
			reason = *p.RejectionReason
		}
		row := []interface{}{
			p.ID, p.User.Name, p.User.Email, p.Amount, string(p.Method), string(p.Status),
			p.DurationMonths, p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"),
			p.CreatedAt.Format("2006-01-02 15:04"), approvedAt, reason,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(paymentsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write payment %s: %w", p.ID, err)
		}
	}

	if err := f.SetColWidth(paymentsSheet, "A", "A", 38); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
