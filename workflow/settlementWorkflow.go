package workflow

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RepayDebtInput struct {
	DebtId        int             `json:"debt_id"`
	SaleId        int             `json:"sale_id"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method"`
	// Destination box for the receipt. MoneyBoxId wins when set; otherwise
	// the caller's open cash box takes the money.
	MoneyBoxId int    `json:"money_box_id"`
	Notes      string `json:"notes"`
}

type SettlementResult struct {
	// Debt is nil when the sale became fully paid and the projection row
	// was removed.
	Debt          *models.Debt           `json:"debt"`
	Sale          *models.Sale           `json:"sale"`
	Receipt       *models.BoxTransaction `json:"receipt"`
	ReceiptNumber string                 `json:"receipt_number"`
	AppliedAmount decimal.Decimal        `json:"applied_amount"`
	ExcessAmount  decimal.Decimal        `json:"excess_amount"`
	TotalPaid     decimal.Decimal        `json:"total_paid"`
	Status        models.DebtStatus      `json:"status"`
}

// AllocatePayment splits an incoming payment against an outstanding
// remainder. The excess is reported, never silently absorbed; its
// disposition (refund or customer credit) is the caller's decision.
func AllocatePayment(paidAmount decimal.Decimal, remainingAmount decimal.Decimal) (applied decimal.Decimal, excess decimal.Decimal) {
	applied = decimal.Min(paidAmount, remainingAmount)
	if applied.IsNegative() {
		applied = decimal.Zero
	}
	excess = paidAmount.Sub(applied)
	return applied, excess
}

// RepayDebt applies a customer payment against one outstanding sale balance:
// sale payment columns, the debt projection, the customer running balance
// and the receipt ledger row all move in one database transaction.
func (e *LedgerEngine) RepayDebt(ctx context.Context, input *RepayDebtInput) (*SettlementResult, error) {
	ctx, span := e.tracer.Start(ctx, "RepayDebt")
	defer span.End()

	if !input.Amount.IsPositive() {
		return nil, utils.ErrorInvalidAmount
	}
	paymentMethod, err := models.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	userId, _ := utils.GetUserIdFromContext(ctx)
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	var result SettlementResult
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		debt, sale, err := resolveDebt(tx, input.DebtId, input.SaleId)
		if err != nil {
			config.LogError(e.logger, "settlementWorkflow.go", "RepayDebt", "ResolveDebt", input, err)
			return err
		}

		applied, excess := AllocatePayment(input.Amount, sale.RemainingAmount())
		if applied.IsZero() {
			// A settled sale resolves no debt: nothing to post, and a
			// zero-amount receipt row would break the positive-amount rule.
			return utils.ErrorRecordNotFound
		}
		newPaidAmount := sale.PaidAmount.Add(applied)
		status := models.ComputeDebtStatus(newPaidAmount, sale.TotalAmount)

		err = tx.Model(&models.Sale{}).Where("id = ?", sale.ID).Updates(map[string]interface{}{
			"paid_amount":    newPaidAmount,
			"payment_status": status,
		}).Error
		if err != nil {
			config.LogError(e.logger, "settlementWorkflow.go", "RepayDebt", "UpdateSale", sale.ID, err)
			return err
		}
		sale.PaidAmount = newPaidAmount
		sale.PaymentStatus = status

		// The projection row is derived: refresh it, or drop it once the
		// sale is settled.
		if status == models.DebtStatusPaid {
			if debt != nil {
				if err := tx.Delete(&models.Debt{}, debt.ID).Error; err != nil {
					config.LogError(e.logger, "settlementWorkflow.go", "RepayDebt", "DeleteDebt", debt.ID, err)
					return err
				}
				debt = nil
			}
		} else if debt != nil {
			debt.Recompute(newPaidAmount)
			err = tx.Model(&models.Debt{}).Where("id = ?", debt.ID).Updates(map[string]interface{}{
				"paid_amount":      debt.PaidAmount,
				"remaining_amount": debt.RemainingAmount,
				"status":           debt.Status,
			}).Error
			if err != nil {
				config.LogError(e.logger, "settlementWorkflow.go", "RepayDebt", "UpdateDebt", debt.ID, err)
				return err
			}
		}

		receiptNumber, err := models.NextReceiptNumber(tx, models.ReceiptModuleCustomerReceipt)
		if err != nil {
			return err
		}
		receipt, err := e.postReceipt(tx, input, sale, applied, paymentMethod, receiptNumber, userId, correlationId)
		if err != nil {
			return err
		}

		err = tx.Model(&models.Customer{}).
			Where("id = ?", sale.CustomerId).
			Update("current_balance", gorm.Expr("current_balance - ?", applied)).Error
		if err != nil {
			config.LogError(e.logger, "settlementWorkflow.go", "RepayDebt", "UpdateCustomerBalance", sale.CustomerId, err)
			return err
		}

		result = SettlementResult{
			Debt:          debt,
			Sale:          sale,
			Receipt:       receipt,
			ReceiptNumber: receiptNumber,
			AppliedAmount: applied,
			ExcessAmount:  excess,
			TotalPaid:     newPaidAmount,
			Status:        status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// resolveDebt finds the target by debt id, falling back to sale id, and
// locks the sale (and debt projection, when present) for the settlement.
func resolveDebt(tx *gorm.DB, debtId int, saleId int) (*models.Debt, *models.Sale, error) {
	var debt *models.Debt
	if debtId > 0 {
		var row models.Debt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, debtId).Error
		if err == nil {
			debt = &row
			saleId = row.SaleId
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}
	if debt == nil && saleId > 0 {
		var row models.Debt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("sale_id = ?", saleId).First(&row).Error
		if err == nil {
			debt = &row
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}
	if saleId <= 0 {
		return nil, nil, utils.ErrorRecordNotFound
	}

	var sale models.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, saleId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.ErrorRecordNotFound
		}
		return nil, nil, err
	}
	return debt, &sale, nil
}

func (e *LedgerEngine) postReceipt(tx *gorm.DB, input *RepayDebtInput, sale *models.Sale, applied decimal.Decimal, paymentMethod models.PaymentMethod, receiptNumber string, userId int, correlationId string) (*models.BoxTransaction, error) {
	entry := postingEntry{
		Type:          models.TransactionTypeCustomerReceipt,
		Amount:        applied,
		ReferenceType: models.ReferenceTypeSale,
		ReferenceId:   sale.ID,
		ReceiptNumber: receiptNumber,
		PaymentMethod: paymentMethod,
		Notes:         input.Notes,
		CorrelationId: correlationId,
		CreatedBy:     userId,
	}

	if input.MoneyBoxId > 0 {
		moneyBox, err := lockMoneyBox(tx, input.MoneyBoxId)
		if err != nil {
			config.LogError(e.logger, "settlementWorkflow.go", "postReceipt", "LockMoneyBox", input.MoneyBoxId, err)
			return nil, err
		}
		return postMoneyBoxTransaction(tx, moneyBox, entry)
	}

	box, err := models.GetOpenCashBoxLocked(tx, userId)
	if err != nil {
		config.LogError(e.logger, "settlementWorkflow.go", "postReceipt", "GetOpenCashBox", userId, err)
		return nil, err
	}
	return postCashBoxTransaction(tx, box, entry)
}

// LegacyRepayRequest is the pre-allocation request shape kept for older
// clients. It routes through the same core algorithm.
type LegacyRepayRequest struct {
	SaleId int             `json:"sale_id" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Notes  string          `json:"notes"`
}

func (e *LedgerEngine) RepayDebtLegacy(ctx context.Context, req *LegacyRepayRequest) (*SettlementResult, error) {
	return e.RepayDebt(ctx, &RepayDebtInput{
		SaleId:        req.SaleId,
		Amount:        req.Amount,
		PaymentMethod: string(models.PaymentMethodCash),
		Notes:         req.Notes,
	})
}

type BatchPaymentVoucherRequest struct {
	Payments      []BatchPaymentItem `json:"payments" binding:"required,dive"`
	PaymentMethod string             `json:"payment_method"`
	MoneyBoxId    int                `json:"money_box_id"`
	Notes         string             `json:"notes"`
}

type BatchPaymentItem struct {
	DebtId int             `json:"debt_id"`
	SaleId int             `json:"sale_id"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type BatchPaymentResult struct {
	Item   BatchPaymentItem  `json:"item"`
	Result *SettlementResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// RepayBatch applies the voucher bill by bill, each inside its own atomic
// unit. One failing bill reports its error and leaves its siblings alone;
// whole-batch atomicity is deliberately not offered.
func (e *LedgerEngine) RepayBatch(ctx context.Context, req *BatchPaymentVoucherRequest) []BatchPaymentResult {
	ctx, span := e.tracer.Start(ctx, "RepayBatch")
	defer span.End()

	results := make([]BatchPaymentResult, 0, len(req.Payments))
	for _, item := range req.Payments {
		result, err := e.RepayDebt(ctx, &RepayDebtInput{
			DebtId:        item.DebtId,
			SaleId:        item.SaleId,
			Amount:        item.Amount,
			PaymentMethod: req.PaymentMethod,
			MoneyBoxId:    req.MoneyBoxId,
			Notes:         req.Notes,
		})
		if err != nil {
			results = append(results, BatchPaymentResult{Item: item, Error: err.Error()})
			continue
		}
		results = append(results, BatchPaymentResult{Item: item, Result: result})
	}
	return results
}
