package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReverseTransactionInput struct {
	TransactionId int    `json:"transaction_id" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
}

// ReverseBoxTransaction corrects a mistaken ledger row by inserting the
// opposite-signed adjustment and linking the two. The original row is never
// edited beyond the reversal backlink; history stays intact.
func (e *LedgerEngine) ReverseBoxTransaction(ctx context.Context, input *ReverseTransactionInput) (*models.BoxTransaction, error) {
	ctx, span := e.tracer.Start(ctx, "ReverseBoxTransaction")
	defer span.End()

	userId, _ := utils.GetUserIdFromContext(ctx)
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	var reversal *models.BoxTransaction
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original models.BoxTransaction
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&original, input.TransactionId).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if original.ReversedByTransactionId != nil {
			return errors.New("transaction is already reversed")
		}

		entry := postingEntry{
			Type:          original.Type.Reverse(),
			Amount:        original.Amount,
			ReferenceType: original.ReferenceType,
			ReferenceId:   original.ReferenceId,
			Notes:         input.Reason,
			CorrelationId: correlationId,
			CreatedBy:     userId,
			ReversesId:    &original.ID,
		}

		switch original.BoxKind {
		case models.BoxKindMoney:
			box, err := lockMoneyBox(tx, original.BoxId)
			if err != nil {
				return err
			}
			reversal, err = postMoneyBoxTransaction(tx, box, entry)
			if err != nil {
				config.LogError(e.logger, "reversalWorkflow.go", "ReverseBoxTransaction", "PostMoneyBoxReversal", original.ID, err)
				return err
			}
		case models.BoxKindCash:
			box, err := lockCashBox(tx, original.BoxId)
			if err != nil {
				return err
			}
			if box.Status != models.CashBoxStatusOpen {
				return utils.ErrorNotOpen
			}
			reversal, err = postCashBoxTransaction(tx, box, entry)
			if err != nil {
				config.LogError(e.logger, "reversalWorkflow.go", "ReverseBoxTransaction", "PostCashBoxReversal", original.ID, err)
				return err
			}
		default:
			return errors.New("invalid box kind")
		}

		reversedAt := time.Now().UTC()
		err = tx.Model(&models.BoxTransaction{}).Where("id = ?", original.ID).Updates(map[string]interface{}{
			"reversed_by_transaction_id": reversal.ID,
			"reversal_reason":            input.Reason,
			"reversed_at":                reversedAt,
		}).Error
		if err != nil {
			config.LogError(e.logger, "reversalWorkflow.go", "ReverseBoxTransaction", "LinkOriginal", original.ID, err)
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}
