package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BoxTransaction is one immutable balance change against a cash box or a
// money box. Amount is always positive; Type carries the sign, and
// BalanceAfter = BalanceBefore + sign*Amount is written by the workflow that
// holds the box row lock.
//
// Composite indexes:
// - idx_bt_box_date: (box_kind, box_id, created_at) for summaries and reports
// - idx_bt_ref:      (reference_type, reference_id) for audit lookups
type BoxTransaction struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BoxKind       BoxKind         `gorm:"type:enum('CashBox','MoneyBox');size:10;not null;index:idx_bt_box_date,priority:1" json:"box_kind"`
	BoxId         int             `gorm:"not null;index;index:idx_bt_box_date,priority:2" json:"box_id"`
	Type          TransactionType `gorm:"type:enum('Opening','Closing','Deposit','Withdrawal','Sale','Purchase','Expense','CustomerReceipt','SupplierPayment','TransferIn','TransferOut','AdjustmentIn','AdjustmentOut');size:20;not null;index" json:"type"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"balance_after"`
	ReferenceType ReferenceType   `gorm:"type:enum('SL','PO','EX','CR','SP','TR','CS','MN');size:3;not null;index:idx_bt_ref,priority:1" json:"reference_type"`
	ReferenceId   int             `gorm:"index:idx_bt_ref,priority:2" json:"reference_id"`
	ReceiptNumber string          `gorm:"size:50;index" json:"receipt_number"`
	PaymentMethod PaymentMethod   `gorm:"size:20" json:"payment_method,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes"`
	// Reversal linkage. A correcting entry points at the row it reverses;
	// the original is back-linked in the same transaction.
	ReversesTransactionId   *int       `gorm:"index" json:"reverses_transaction_id"`
	ReversedByTransactionId *int       `gorm:"index" json:"reversed_by_transaction_id"`
	ReversalReason          *string    `gorm:"type:text" json:"reversal_reason"`
	ReversedAt              *time.Time `json:"reversed_at"`
	CorrelationId           string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedBy               int        `gorm:"not null;index" json:"created_by"`
	CreatedAt               time.Time  `gorm:"autoCreateTime;index:idx_bt_box_date,priority:3" json:"created_at"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Ledger immutability guardrails:
// - box_transactions are append-only; corrections insert a reversing row.
// - limited updates are allowed only for reversal linkage fields.

func (t *BoxTransaction) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: box_transactions cannot be deleted")
}

func (t *BoxTransaction) BeforeUpdate(tx *gorm.DB) error {
	allowed := map[string]bool{
		"ReversedByTransactionId": true,
		"ReversalReason":          true,
		"ReversedAt":              true,
		"UpdatedAt":               true,
	}
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !allowed[f.Name] {
			return errors.New("immutable ledger: only reversal linkage fields may be updated on box_transactions")
		}
	}
	return nil
}

func GetBoxTransaction(ctx context.Context, id int) (*BoxTransaction, error) {
	db := config.GetDB()
	var transaction BoxTransaction
	if err := db.WithContext(ctx).First(&transaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func GetBoxTransactions(ctx context.Context, kind BoxKind, boxId int, fromDate *time.Time, toDate *time.Time, limit int) ([]*BoxTransaction, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).
		Where("box_kind = ? AND box_id = ?", kind, boxId).
		Order("id DESC")
	if fromDate != nil {
		query = query.Where("created_at >= ?", *fromDate)
	}
	if toDate != nil {
		query = query.Where("created_at < ?", *toDate)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var transactions []*BoxTransaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}
