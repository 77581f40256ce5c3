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

// Debt is a projection over an unpaid or partially paid Sale (1:1 by
// sale_id). Its amount columns are derived: the settlement workflow
// recomputes them from the Sale on every payment and deletes the row when
// the sale is fully paid. It also caches DueDate for collection queries.
type Debt struct {
	ID              int             `gorm:"primary_key" json:"id"`
	SaleId          int             `gorm:"not null;unique" json:"sale_id"`
	CustomerId      int             `gorm:"not null;index" json:"customer_id"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"remaining_amount"`
	DueDate         *time.Time      `gorm:"index" json:"due_date"`
	Status          DebtStatus      `gorm:"type:enum('Unpaid','Partial','Paid');size:10;not null;default:'Unpaid';index" json:"status"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewDebtFromSale builds the projection row for a sale with an outstanding
// balance.
func NewDebtFromSale(sale *Sale) *Debt {
	return &Debt{
		SaleId:          sale.ID,
		CustomerId:      sale.CustomerId,
		TotalAmount:     sale.TotalAmount,
		PaidAmount:      sale.PaidAmount,
		RemainingAmount: sale.RemainingAmount(),
		DueDate:         sale.DueDate,
		Status:          ComputeDebtStatus(sale.PaidAmount, sale.TotalAmount),
	}
}

// Recompute refreshes the derived columns from (paidAmount, totalAmount).
func (d *Debt) Recompute(paidAmount decimal.Decimal) {
	d.PaidAmount = paidAmount
	remaining := d.TotalAmount.Sub(paidAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	d.RemainingAmount = remaining
	d.Status = ComputeDebtStatus(paidAmount, d.TotalAmount)
}

func GetDebt(ctx context.Context, id int) (*Debt, error) {
	db := config.GetDB()
	var debt Debt
	if err := db.WithContext(ctx).First(&debt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &debt, nil
}

func GetDebtsByCustomer(ctx context.Context, customerId int) ([]*Debt, error) {
	db := config.GetDB()
	var debts []*Debt
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerId).
		Order("due_date IS NULL, due_date, id").
		Find(&debts).Error
	if err != nil {
		return nil, err
	}
	return debts, nil
}
