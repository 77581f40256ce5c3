package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type OpenCashBoxInput struct {
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	Notes         string          `json:"notes"`
}

type CloseCashBoxInput struct {
	CountedAmount decimal.Decimal `json:"counted_amount"`
	Notes         string          `json:"notes"`
}

type CloseCashBoxResult struct {
	CashBox            *models.CashBox        `json:"cash_box"`
	ClosingTransaction *models.BoxTransaction `json:"closing_transaction"`
	Variance           decimal.Decimal        `json:"variance"`
	// VarianceDetected is a warning, never a failure: end-of-day closing
	// must always go through.
	VarianceDetected bool `json:"variance_detected"`
}

type ForceCloseCashBoxInput struct {
	BoxId            int    `json:"box_id" binding:"required"`
	Reason           string `json:"reason" binding:"required"`
	TargetMoneyBoxId int    `json:"target_money_box_id"`
}

type RecordCashBoxTransactionInput struct {
	BoxId         int             `json:"box_id" binding:"required"`
	Type          string          `json:"type" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	ReferenceType string          `json:"reference_type"`
	ReferenceId   int             `json:"reference_id"`
	Notes         string          `json:"notes"`
	// ApprovedBy is the admin who signed off a withdrawal for owners whose
	// settings require approval.
	ApprovedBy int `json:"approved_by"`
}

// OpenCashBox starts a register session for the calling owner. At most one
// open session per owner: the check-then-insert runs under a per-owner
// advisory lock on the same connection as the insert.
func (e *LedgerEngine) OpenCashBox(ctx context.Context, input *OpenCashBoxInput) (*models.CashBox, error) {
	ctx, span := e.tracer.Start(ctx, "OpenCashBox")
	defer span.End()

	if input.OpeningAmount.IsNegative() {
		return nil, utils.ErrorInvalidAmount
	}
	ownerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || ownerId <= 0 {
		return nil, errors.New("caller identity is required")
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	var box models.CashBox
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOwnerOpenLock(tx, ownerId); err != nil {
			config.LogError(e.logger, "cashBoxWorkflow.go", "OpenCashBox", "AcquireOwnerOpenLock", ownerId, err)
			return err
		}
		defer ReleaseOwnerOpenLock(tx, ownerId)

		var openCount int64
		err := tx.Model(&models.CashBox{}).
			Where("owner_id = ? AND status = ?", ownerId, models.CashBoxStatusOpen).
			Count(&openCount).Error
		if err != nil {
			return err
		}
		if openCount > 0 {
			return utils.ErrorAlreadyOpen
		}

		box = models.CashBox{
			OwnerId:       ownerId,
			Status:        models.CashBoxStatusOpen,
			InitialAmount: input.OpeningAmount,
			CurrentAmount: decimal.Zero,
			OpenedAt:      time.Now().UTC(),
			OpenedBy:      ownerId,
			Notes:         input.Notes,
		}
		if err := tx.Create(&box).Error; err != nil {
			return err
		}

		// The float enters through the ledger like any other movement, so
		// conservation holds from the first row.
		_, err = postCashBoxTransaction(tx, &box, postingEntry{
			Type:          models.TransactionTypeOpening,
			Amount:        input.OpeningAmount,
			ReferenceType: models.ReferenceTypeCashBoxSession,
			ReferenceId:   box.ID,
			Notes:         input.Notes,
			CorrelationId: correlationId,
			CreatedBy:     ownerId,
		})
		if err != nil {
			config.LogError(e.logger, "cashBoxWorkflow.go", "OpenCashBox", "PostOpening", box.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &box, nil
}

// varianceExceeds reports whether a close variance falls outside the owner's
// tolerance. Zero tolerance flags any nonzero variance.
func varianceExceeds(variance decimal.Decimal, tolerance decimal.Decimal) bool {
	return variance.Abs().GreaterThan(tolerance)
}

// CloseCashBox ends the caller's open session. A counted-vs-computed
// variance beyond the owner's tolerance is surfaced as a warning on the
// result but never blocks the close.
func (e *LedgerEngine) CloseCashBox(ctx context.Context, input *CloseCashBoxInput) (*CloseCashBoxResult, error) {
	ctx, span := e.tracer.Start(ctx, "CloseCashBox")
	defer span.End()

	ownerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || ownerId <= 0 {
		return nil, errors.New("caller identity is required")
	}
	settings, err := models.GetUserCashBoxSettings(ctx, ownerId)
	if err != nil {
		return nil, err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	var result CloseCashBoxResult
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		box, err := models.GetOpenCashBoxLocked(tx, ownerId)
		if err != nil {
			return err
		}
		closing, variance, err := e.closeLockedCashBox(tx, box, &input.CountedAmount, ownerId, "", input.Notes, correlationId)
		if err != nil {
			return err
		}
		result = CloseCashBoxResult{
			CashBox:            box,
			ClosingTransaction: closing,
			Variance:           variance,
			VarianceDetected:   varianceExceeds(variance, settings.VarianceTolerance),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.VarianceDetected {
		ownerName, _ := utils.GetUserNameFromContext(ctx)
		e.logger.WithFields(logrus.Fields{
			"module":    "cashBoxWorkflow.go",
			"funcName":  "CloseCashBox",
			"cashBox":   result.CashBox.ID,
			"ownerId":   ownerId,
			"ownerName": ownerName,
			"variance":  result.Variance,
		}).Warn("cash box closed with variance")
	}
	return &result, nil
}

// ForceCloseCashBox is the administrative override: it always closes an open
// box, optionally sweeping the remaining balance into a money box, and
// records the reason on the session and its ledger rows.
func (e *LedgerEngine) ForceCloseCashBox(ctx context.Context, input *ForceCloseCashBoxInput) (*models.CashBox, error) {
	ctx, span := e.tracer.Start(ctx, "ForceCloseCashBox")
	defer span.End()

	adminId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || adminId <= 0 {
		return nil, errors.New("caller identity is required")
	}
	correlationId, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || correlationId == "" {
		correlationId = utils.NewCorrelationId()
	}

	var box *models.CashBox
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		box, err = lockCashBox(tx, input.BoxId)
		if err != nil {
			return err
		}
		if box.Status != models.CashBoxStatusOpen {
			return utils.ErrorNotOpen
		}

		if input.TargetMoneyBoxId > 0 && box.CurrentAmount.IsPositive() {
			if err := e.sweepCashBoxToMoneyBox(tx, box, input.TargetMoneyBoxId, input.Reason, adminId, correlationId); err != nil {
				return err
			}
		}

		_, _, err = e.closeLockedCashBox(tx, box, nil, adminId, input.Reason, input.Reason, correlationId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return box, nil
}

// sweepCashBoxToMoneyBox moves the whole remaining session balance into a
// money box using transfer semantics (two linked rows, one atomic unit).
func (e *LedgerEngine) sweepCashBoxToMoneyBox(tx *gorm.DB, box *models.CashBox, moneyBoxId int, reason string, adminId int, correlationId string) error {
	moneyBox, err := lockMoneyBox(tx, moneyBoxId)
	if err != nil {
		config.LogError(e.logger, "cashBoxWorkflow.go", "sweepCashBoxToMoneyBox", "LockMoneyBox", moneyBoxId, err)
		return err
	}

	amount := box.CurrentAmount
	outTransaction, err := postCashBoxTransaction(tx, box, postingEntry{
		Type:          models.TransactionTypeTransferOut,
		Amount:        amount,
		ReferenceType: models.ReferenceTypeTransfer,
		ReferenceId:   moneyBox.ID,
		Notes:         reason,
		CorrelationId: correlationId,
		CreatedBy:     adminId,
	})
	if err != nil {
		config.LogError(e.logger, "cashBoxWorkflow.go", "sweepCashBoxToMoneyBox", "PostTransferOut", box.ID, err)
		return err
	}

	_, err = postMoneyBoxTransaction(tx, moneyBox, postingEntry{
		Type:          models.TransactionTypeTransferIn,
		Amount:        amount,
		ReferenceType: models.ReferenceTypeTransfer,
		ReferenceId:   outTransaction.ID,
		Notes:         reason,
		CorrelationId: correlationId,
		CreatedBy:     adminId,
	})
	if err != nil {
		config.LogError(e.logger, "cashBoxWorkflow.go", "sweepCashBoxToMoneyBox", "PostTransferIn", moneyBox.ID, err)
		return err
	}
	return nil
}

// closeLockedCashBox writes the closing ledger rows and flips the session to
// Closed. The box row lock is already held. countedAmount is nil for force
// close, where nobody counted the drawer.
func (e *LedgerEngine) closeLockedCashBox(tx *gorm.DB, box *models.CashBox, countedAmount *decimal.Decimal, closedBy int, closeReason string, notes string, correlationId string) (*models.BoxTransaction, decimal.Decimal, error) {
	computed := box.CurrentAmount

	receiptNumber, err := models.NextReceiptNumber(tx, models.ReceiptModuleCashBoxClose)
	if err != nil {
		return nil, decimal.Zero, err
	}

	// A session that went negative is settled to zero first so the closing
	// row keeps the positive-amount invariant.
	if computed.IsNegative() {
		_, err := postCashBoxTransaction(tx, box, postingEntry{
			Type:          models.TransactionTypeAdjustmentIn,
			Amount:        computed.Neg(),
			ReferenceType: models.ReferenceTypeCashBoxSession,
			ReferenceId:   box.ID,
			Notes:         "negative balance settled at close",
			CorrelationId: correlationId,
			CreatedBy:     closedBy,
		})
		if err != nil {
			return nil, decimal.Zero, err
		}
	}

	closing, err := postCashBoxTransaction(tx, box, postingEntry{
		Type:          models.TransactionTypeClosing,
		Amount:        box.CurrentAmount,
		ReferenceType: models.ReferenceTypeCashBoxSession,
		ReferenceId:   box.ID,
		ReceiptNumber: receiptNumber,
		Notes:         notes,
		CorrelationId: correlationId,
		CreatedBy:     closedBy,
	})
	if err != nil {
		config.LogError(e.logger, "cashBoxWorkflow.go", "closeLockedCashBox", "PostClosing", box.ID, err)
		return nil, decimal.Zero, err
	}

	variance := decimal.Zero
	closedAt := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       models.CashBoxStatusClosed,
		"closed_at":    closedAt,
		"closed_by":    closedBy,
		"close_reason": closeReason,
	}
	if countedAmount != nil {
		variance = countedAmount.Sub(computed)
		updates["counted_amount"] = *countedAmount
		updates["variance"] = variance
	}
	if err := tx.Model(&models.CashBox{}).Where("id = ?", box.ID).Updates(updates).Error; err != nil {
		return nil, decimal.Zero, err
	}

	box.Status = models.CashBoxStatusClosed
	box.ClosedAt = &closedAt
	box.ClosedBy = &closedBy
	box.CloseReason = closeReason
	if countedAmount != nil {
		box.CountedAmount = countedAmount
		box.Variance = &variance
	}
	return closing, variance, nil
}

// RecordCashBoxTransaction is the generic entry point used by the sale,
// purchase and expense flows. Withdrawal policy comes from the owner's
// settings and is checked before anything is written.
func (e *LedgerEngine) RecordCashBoxTransaction(ctx context.Context, input *RecordCashBoxTransactionInput) (*models.BoxTransaction, error) {
	ctx, span := e.tracer.Start(ctx, "RecordCashBoxTransaction")
	defer span.End()

	transactionType, err := models.ParseTransactionType(input.Type)
	if err != nil {
		return nil, err
	}
	if transactionType == models.TransactionTypeOpening || transactionType == models.TransactionTypeClosing {
		return nil, errors.New("opening and closing entries are written by the lifecycle operations")
	}
	if !input.Amount.IsPositive() {
		return nil, utils.ErrorInvalidAmount
	}
	referenceType, err := models.ParseReferenceType(input.ReferenceType)
	if err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	var transaction *models.BoxTransaction
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		box, err := lockCashBox(tx, input.BoxId)
		if err != nil {
			return err
		}
		if box.Status != models.CashBoxStatusOpen {
			return utils.ErrorNotOpen
		}

		if transactionType.IsOutflow() {
			settings, err := models.GetUserCashBoxSettings(ctx, box.OwnerId)
			if err != nil {
				return err
			}
			if settings.MaxWithdrawalAmount.IsPositive() && input.Amount.GreaterThan(settings.MaxWithdrawalAmount) {
				return utils.ErrorLimitExceeded
			}
			if settings.RequireApprovalForWithdrawal != nil && *settings.RequireApprovalForWithdrawal && input.ApprovedBy <= 0 {
				return utils.ErrorApprovalRequired
			}
			if box.CurrentAmount.Sub(input.Amount).IsNegative() &&
				(settings.AllowNegativeBalance == nil || !*settings.AllowNegativeBalance) {
				return utils.ErrorInsufficientFunds
			}
		}

		transaction, err = postCashBoxTransaction(tx, box, postingEntry{
			Type:          transactionType,
			Amount:        input.Amount,
			ReferenceType: referenceType,
			ReferenceId:   input.ReferenceId,
			Notes:         input.Notes,
			CorrelationId: correlationId,
			CreatedBy:     userId,
		})
		if err != nil {
			config.LogError(e.logger, "cashBoxWorkflow.go", "RecordCashBoxTransaction", "PostTransaction", input, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}
