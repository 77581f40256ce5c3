package workflow

import (
	"errors"
	"sort"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postingEntry carries everything a single ledger append needs besides the
// box row itself.
type postingEntry struct {
	Type          models.TransactionType
	Amount        decimal.Decimal
	ReferenceType models.ReferenceType
	ReferenceId   int
	ReceiptNumber string
	PaymentMethod models.PaymentMethod
	Notes         string
	CorrelationId string
	CreatedBy     int
	// ReversesId is set only on correcting entries, pointing at the row
	// being reversed.
	ReversesId *int
}

// lockMoneyBox reads the box row under FOR UPDATE. Must run inside the
// posting transaction; balance reads outside the lock are not trustworthy.
func lockMoneyBox(tx *gorm.DB, boxId int) (*models.MoneyBox, error) {
	var box models.MoneyBox
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&box, boxId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &box, nil
}

func lockCashBox(tx *gorm.DB, boxId int) (*models.CashBox, error) {
	var box models.CashBox
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&box, boxId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &box, nil
}

// orderedBoxIds is the deterministic lock order for multi-box operations:
// always ascending id, so two crossing transfers cannot deadlock.
func orderedBoxIds(a int, b int) []int {
	ids := []int{a, b}
	sort.Ints(ids)
	return ids
}

// postMoneyBoxTransaction appends one ledger row for a money box and moves
// its balance. The caller holds the row lock and has already applied policy
// checks; the only check here is the arithmetic invariant.
func postMoneyBoxTransaction(tx *gorm.DB, box *models.MoneyBox, entry postingEntry) (*models.BoxTransaction, error) {
	sign := decimal.NewFromInt(int64(entry.Type.Sign()))
	balanceBefore := box.CurrentBalance
	balanceAfter := balanceBefore.Add(entry.Amount.Mul(sign))

	transaction := models.BoxTransaction{
		BoxKind:               models.BoxKindMoney,
		BoxId:                 box.ID,
		Type:                  entry.Type,
		Amount:                entry.Amount,
		BalanceBefore:         balanceBefore,
		BalanceAfter:          balanceAfter,
		ReferenceType:         entry.ReferenceType,
		ReferenceId:           entry.ReferenceId,
		ReceiptNumber:         entry.ReceiptNumber,
		PaymentMethod:         entry.PaymentMethod,
		Notes:                 entry.Notes,
		CorrelationId:         entry.CorrelationId,
		CreatedBy:             entry.CreatedBy,
		ReversesTransactionId: entry.ReversesId,
	}
	if err := tx.Create(&transaction).Error; err != nil {
		return nil, err
	}

	err := tx.Model(&models.MoneyBox{}).Where("id = ?", box.ID).
		Update("current_balance", balanceAfter).Error
	if err != nil {
		return nil, err
	}
	box.CurrentBalance = balanceAfter
	return &transaction, nil
}

func postCashBoxTransaction(tx *gorm.DB, box *models.CashBox, entry postingEntry) (*models.BoxTransaction, error) {
	sign := decimal.NewFromInt(int64(entry.Type.Sign()))
	balanceBefore := box.CurrentAmount
	balanceAfter := balanceBefore.Add(entry.Amount.Mul(sign))

	transaction := models.BoxTransaction{
		BoxKind:               models.BoxKindCash,
		BoxId:                 box.ID,
		Type:                  entry.Type,
		Amount:                entry.Amount,
		BalanceBefore:         balanceBefore,
		BalanceAfter:          balanceAfter,
		ReferenceType:         entry.ReferenceType,
		ReferenceId:           entry.ReferenceId,
		ReceiptNumber:         entry.ReceiptNumber,
		PaymentMethod:         entry.PaymentMethod,
		Notes:                 entry.Notes,
		CorrelationId:         entry.CorrelationId,
		CreatedBy:             entry.CreatedBy,
		ReversesTransactionId: entry.ReversesId,
	}
	if err := tx.Create(&transaction).Error; err != nil {
		return nil, err
	}

	err := tx.Model(&models.CashBox{}).Where("id = ?", box.ID).
		Update("current_amount", balanceAfter).Error
	if err != nil {
		return nil, err
	}
	box.CurrentAmount = balanceAfter
	return &transaction, nil
}
