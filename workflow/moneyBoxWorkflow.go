package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MoneyBoxMutationInput struct {
	BoxId         int             `json:"box_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	ReferenceType string          `json:"reference_type"`
	ReferenceId   int             `json:"reference_id"`
	Notes         string          `json:"notes"`
}

type TransferInput struct {
	FromBoxId int             `json:"from_box_id" binding:"required"`
	ToBoxId   int             `json:"to_box_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Notes     string          `json:"notes"`
}

type TransferResult struct {
	OutTransaction *models.BoxTransaction `json:"out_transaction"`
	InTransaction  *models.BoxTransaction `json:"in_transaction"`
	FromBox        *models.MoneyBox       `json:"from_box"`
	ToBox          *models.MoneyBox       `json:"to_box"`
}

// DepositToMoneyBox appends one deposit transaction and moves the balance,
// atomically.
func (e *LedgerEngine) DepositToMoneyBox(ctx context.Context, input *MoneyBoxMutationInput) (*models.BoxTransaction, error) {
	ctx, span := e.tracer.Start(ctx, "DepositToMoneyBox")
	defer span.End()

	return e.postSingleMoneyBoxEntry(ctx, input, models.TransactionTypeDeposit)
}

// WithdrawFromMoneyBox is symmetric to deposit; it fails with
// InsufficientFunds unless the box allows negative balances.
func (e *LedgerEngine) WithdrawFromMoneyBox(ctx context.Context, input *MoneyBoxMutationInput) (*models.BoxTransaction, error) {
	ctx, span := e.tracer.Start(ctx, "WithdrawFromMoneyBox")
	defer span.End()

	return e.postSingleMoneyBoxEntry(ctx, input, models.TransactionTypeWithdrawal)
}

func (e *LedgerEngine) postSingleMoneyBoxEntry(ctx context.Context, input *MoneyBoxMutationInput, transactionType models.TransactionType) (*models.BoxTransaction, error) {
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
		box, err := lockMoneyBox(tx, input.BoxId)
		if err != nil {
			config.LogError(e.logger, "moneyBoxWorkflow.go", "postSingleMoneyBoxEntry", "LockMoneyBox", input.BoxId, err)
			return err
		}
		if transactionType.IsOutflow() &&
			box.CurrentBalance.Sub(input.Amount).IsNegative() &&
			(box.AllowNegativeBalance == nil || !*box.AllowNegativeBalance) {
			return utils.ErrorInsufficientFunds
		}

		transaction, err = postMoneyBoxTransaction(tx, box, postingEntry{
			Type:          transactionType,
			Amount:        input.Amount,
			ReferenceType: referenceType,
			ReferenceId:   input.ReferenceId,
			Notes:         input.Notes,
			CorrelationId: correlationId,
			CreatedBy:     userId,
		})
		if err != nil {
			config.LogError(e.logger, "moneyBoxWorkflow.go", "postSingleMoneyBoxEntry", "PostTransaction", input, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// TransferMoneyBoxes moves funds between two boxes as one atomic unit
// producing exactly two transactions. Rows are locked in ascending box id
// order so two crossing transfers cannot deadlock.
func (e *LedgerEngine) TransferMoneyBoxes(ctx context.Context, input *TransferInput) (*TransferResult, error) {
	ctx, span := e.tracer.Start(ctx, "TransferMoneyBoxes")
	defer span.End()

	if input.FromBoxId == input.ToBoxId {
		return nil, utils.ErrorSameBox
	}
	if !input.Amount.IsPositive() {
		return nil, utils.ErrorInvalidAmount
	}
	userId, _ := utils.GetUserIdFromContext(ctx)
	correlationId, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || correlationId == "" {
		correlationId = utils.NewCorrelationId()
	}

	var result TransferResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := map[int]*models.MoneyBox{}
		for _, id := range orderedBoxIds(input.FromBoxId, input.ToBoxId) {
			box, err := lockMoneyBox(tx, id)
			if err != nil {
				config.LogError(e.logger, "moneyBoxWorkflow.go", "TransferMoneyBoxes", "LockMoneyBox", id, err)
				return err
			}
			locked[id] = box
		}
		fromBox := locked[input.FromBoxId]
		toBox := locked[input.ToBoxId]

		if fromBox.CurrentBalance.Sub(input.Amount).IsNegative() &&
			(fromBox.AllowNegativeBalance == nil || !*fromBox.AllowNegativeBalance) {
			return utils.ErrorInsufficientFunds
		}

		outTransaction, err := postMoneyBoxTransaction(tx, fromBox, postingEntry{
			Type:          models.TransactionTypeTransferOut,
			Amount:        input.Amount,
			ReferenceType: models.ReferenceTypeTransfer,
			ReferenceId:   toBox.ID,
			Notes:         input.Notes,
			CorrelationId: correlationId,
			CreatedBy:     userId,
		})
		if err != nil {
			config.LogError(e.logger, "moneyBoxWorkflow.go", "TransferMoneyBoxes", "PostTransferOut", input, err)
			return err
		}

		inTransaction, err := postMoneyBoxTransaction(tx, toBox, postingEntry{
			Type:          models.TransactionTypeTransferIn,
			Amount:        input.Amount,
			ReferenceType: models.ReferenceTypeTransfer,
			ReferenceId:   outTransaction.ID,
			Notes:         input.Notes,
			CorrelationId: correlationId,
			CreatedBy:     userId,
		})
		if err != nil {
			config.LogError(e.logger, "moneyBoxWorkflow.go", "TransferMoneyBoxes", "PostTransferIn", input, err)
			return err
		}

		result = TransferResult{
			OutTransaction: outTransaction,
			InTransaction:  inTransaction,
			FromBox:        fromBox,
			ToBox:          toBox,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
