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

// Sale is owned by the catalog subsystem; the ledger only reads and updates
// its payment columns. PaymentStatus is a cache of
// ComputeDebtStatus(PaidAmount, TotalAmount) and is recomputed on every
// payment, never trusted.
type Sale struct {
	ID            int             `gorm:"primary_key" json:"id"`
	CustomerId    int             `gorm:"not null;index" json:"customer_id"`
	SaleNumber    string          `gorm:"size:50;index" json:"sale_number"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	PaymentStatus DebtStatus      `gorm:"type:enum('Unpaid','Partial','Paid');size:10;not null;default:'Unpaid';index" json:"payment_status"`
	SaleDate      time.Time       `gorm:"not null;index" json:"sale_date"`
	DueDate       *time.Time      `gorm:"index" json:"due_date"`
	CreatedBy     int             `gorm:"not null" json:"created_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	db := config.GetDB()
	var sale Sale
	if err := db.WithContext(ctx).First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// RemainingAmount is the unpaid remainder, never negative.
func (s *Sale) RemainingAmount() decimal.Decimal {
	remaining := s.TotalAmount.Sub(s.PaidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
