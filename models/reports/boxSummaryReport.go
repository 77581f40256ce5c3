package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/shopspring/decimal"
)

// BoxSummary aggregates a box's transaction log over a date range. Opening is
// the balance entering the range, Closing the balance leaving it; by
// construction Closing = Opening + TotalIn - TotalOut.
type BoxSummary struct {
	BoxKind  models.BoxKind  `json:"box_kind"`
	BoxId    int             `json:"box_id"`
	FromDate *time.Time      `json:"from_date"`
	ToDate   *time.Time      `json:"to_date"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
	Opening  decimal.Decimal `json:"opening"`
	Closing  decimal.Decimal `json:"closing"`
}

type signedTotals struct {
	TotalIn  decimal.Decimal
	TotalOut decimal.Decimal
}

var inflowTypes = []models.TransactionType{
	models.TransactionTypeOpening, models.TransactionTypeDeposit,
	models.TransactionTypeSale, models.TransactionTypeCustomerReceipt,
	models.TransactionTypeTransferIn, models.TransactionTypeAdjustmentIn,
}

func sumSignedTotals(ctx context.Context, kind models.BoxKind, boxId int, fromDate *time.Time, toDate *time.Time) (*signedTotals, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&models.BoxTransaction{}).
		Where("box_kind = ? AND box_id = ?", kind, boxId)
	if fromDate != nil {
		query = query.Where("created_at >= ?", *fromDate)
	}
	if toDate != nil {
		query = query.Where("created_at < ?", *toDate)
	}

	var totals signedTotals
	err := query.Select(
		"COALESCE(SUM(CASE WHEN type IN ? THEN amount ELSE 0 END), 0) AS total_in, "+
			"COALESCE(SUM(CASE WHEN type IN ? THEN 0 ELSE amount END), 0) AS total_out",
		inflowTypes, inflowTypes,
	).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// GetBoxSummary composes {total_in, total_out, opening, closing} for one box
// over [fromDate, toDate). Pure read; safe to run alongside writers.
func GetBoxSummary(ctx context.Context, kind models.BoxKind, boxId int, fromDate *time.Time, toDate *time.Time) (*BoxSummary, error) {
	initial := decimal.Zero
	switch kind {
	case models.BoxKindMoney:
		box, err := models.GetMoneyBox(ctx, boxId)
		if err != nil {
			return nil, err
		}
		initial = box.InitialBalance
	case models.BoxKindCash:
		if _, err := models.GetCashBox(ctx, boxId); err != nil {
			return nil, err
		}
	}

	ranged, err := sumSignedTotals(ctx, kind, boxId, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	// Opening = initial balance + everything before the range start.
	opening := initial
	if fromDate != nil {
		before, err := sumSignedTotals(ctx, kind, boxId, nil, fromDate)
		if err != nil {
			return nil, err
		}
		opening = opening.Add(before.TotalIn).Sub(before.TotalOut)
	}

	return &BoxSummary{
		BoxKind:  kind,
		BoxId:    boxId,
		FromDate: fromDate,
		ToDate:   toDate,
		TotalIn:  ranged.TotalIn,
		TotalOut: ranged.TotalOut,
		Opening:  opening,
		Closing:  opening.Add(ranged.TotalIn).Sub(ranged.TotalOut),
	}, nil
}
