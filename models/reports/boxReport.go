package reports

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// BoxReport is the date-range reconciliation report over one box: the
// summary plus every ledger row in the range, oldest first.
type BoxReport struct {
	Summary      *BoxSummary              `json:"summary"`
	Transactions []*models.BoxTransaction `json:"transactions"`
}

func GetBoxReport(ctx context.Context, kind models.BoxKind, boxId int, fromDate *time.Time, toDate *time.Time) (*BoxReport, error) {
	summary, err := GetBoxSummary(ctx, kind, boxId, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	query := db.WithContext(ctx).
		Where("box_kind = ? AND box_id = ?", kind, boxId).
		Order("id")
	if fromDate != nil {
		query = query.Where("created_at >= ?", *fromDate)
	}
	if toDate != nil {
		query = query.Where("created_at < ?", *toDate)
	}
	var transactions []*models.BoxTransaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}

	return &BoxReport{Summary: summary, Transactions: transactions}, nil
}

// CashBoxVarianceRow is one closed session's counted-vs-computed result.
type CashBoxVarianceRow struct {
	CashBoxId     int              `json:"cash_box_id"`
	OwnerId       int              `json:"owner_id"`
	OwnerName     string           `json:"owner_name"`
	OpenedAt      time.Time        `json:"opened_at"`
	ClosedAt      *time.Time       `json:"closed_at"`
	InitialAmount decimal.Decimal  `json:"initial_amount"`
	CountedAmount *decimal.Decimal `json:"counted_amount"`
	Variance      *decimal.Decimal `json:"variance"`
}

// GetCashBoxVarianceReport lists closed sessions within the range with a
// non-nil variance, largest absolute variance first.
func GetCashBoxVarianceReport(ctx context.Context, fromDate *time.Time, toDate *time.Time) ([]*CashBoxVarianceRow, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&models.CashBox{}).
		Select("cash_boxes.id AS cash_box_id, cash_boxes.owner_id, users.name AS owner_name, "+
			"cash_boxes.opened_at, cash_boxes.closed_at, cash_boxes.initial_amount, "+
			"cash_boxes.counted_amount, cash_boxes.variance").
		Joins("LEFT JOIN users ON users.id = cash_boxes.owner_id").
		Where("cash_boxes.status = ?", models.CashBoxStatusClosed).
		Order("ABS(cash_boxes.variance) DESC")
	if fromDate != nil {
		query = query.Where("cash_boxes.closed_at >= ?", *fromDate)
	}
	if toDate != nil {
		query = query.Where("cash_boxes.closed_at < ?", *toDate)
	}

	var rows []*CashBoxVarianceRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ExportBoxReportExcel renders the report as an .xlsx workbook.
func ExportBoxReportExcel(report *BoxReport) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	f.SetCellValue(sheet, "A1", "Opening")
	f.SetCellValue(sheet, "B1", report.Summary.Opening.StringFixed(2))
	f.SetCellValue(sheet, "A2", "TotalIn")
	f.SetCellValue(sheet, "B2", report.Summary.TotalIn.StringFixed(2))
	f.SetCellValue(sheet, "A3", "TotalOut")
	f.SetCellValue(sheet, "B3", report.Summary.TotalOut.StringFixed(2))
	f.SetCellValue(sheet, "A4", "Closing")
	f.SetCellValue(sheet, "B4", report.Summary.Closing.StringFixed(2))

	headers := []string{"Id", "Type", "Amount", "BalanceBefore", "BalanceAfter", "Reference", "ReceiptNumber", "CreatedAt"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 6)
		f.SetCellValue(sheet, cell, h)
	}

	for i, t := range report.Transactions {
		row := i + 7
		f.SetCellValue(sheet, "A"+fmt.Sprint(row), t.ID)
		f.SetCellValue(sheet, "B"+fmt.Sprint(row), string(t.Type))
		f.SetCellValue(sheet, "C"+fmt.Sprint(row), t.Amount.StringFixed(2))
		f.SetCellValue(sheet, "D"+fmt.Sprint(row), t.BalanceBefore.StringFixed(2))
		f.SetCellValue(sheet, "E"+fmt.Sprint(row), t.BalanceAfter.StringFixed(2))
		f.SetCellValue(sheet, "F"+fmt.Sprint(row), fmt.Sprintf("%s:%d", t.ReferenceType, t.ReferenceId))
		f.SetCellValue(sheet, "G"+fmt.Sprint(row), t.ReceiptNumber)
		f.SetCellValue(sheet, "H"+fmt.Sprint(row), t.CreatedAt.Format(time.RFC3339))
	}

	return f, nil
}
