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

// MoneyBox is a named, non-personal pool of funds (company safe, bank float).
// CurrentBalance always equals InitialBalance plus the signed sum of its
// box_transactions; it is only ever written by the workflow package while
// holding the row lock.
type MoneyBox struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	Name                 string          `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	Description          string          `gorm:"type:text" json:"description"`
	InitialBalance       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"initial_balance"`
	CurrentBalance       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_balance"`
	AllowNegativeBalance *bool           `gorm:"not null;default:false" json:"allow_negative_balance"`
	IsActive             *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedBy            int             `gorm:"not null" json:"created_by"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMoneyBox struct {
	Name                 string          `json:"name" binding:"required"`
	Description          string          `json:"description"`
	InitialBalance       decimal.Decimal `json:"initial_balance"`
	AllowNegativeBalance *bool           `json:"allow_negative_balance"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewMoneyBox) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[MoneyBox](ctx, id); err != nil {
			return err
		}
	}
	if input.InitialBalance.IsNegative() {
		return utils.ErrorInvalidAmount
	}
	// name
	if err := utils.ValidateUnique[MoneyBox](ctx, "name", input.Name, id); err != nil {
		return utils.ErrorDuplicateName
	}
	return nil
}

func CreateMoneyBox(ctx context.Context, input *NewMoneyBox) (*MoneyBox, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	allowNegative := input.AllowNegativeBalance
	if allowNegative == nil {
		allowNegative = utils.NewFalse()
	}
	moneyBox := MoneyBox{
		Name:                 input.Name,
		Description:          input.Description,
		InitialBalance:       input.InitialBalance,
		CurrentBalance:       input.InitialBalance,
		AllowNegativeBalance: allowNegative,
		IsActive:             utils.NewTrue(),
		CreatedBy:            userId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&moneyBox).Error; err != nil {
		// The unique check above races with concurrent creates; the
		// constraint is the arbiter.
		if utils.IsDuplicateEntryError(err) {
			return nil, utils.ErrorDuplicateName
		}
		return nil, err
	}
	return &moneyBox, nil
}

func UpdateMoneyBox(ctx context.Context, id int, input *NewMoneyBox) (*MoneyBox, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var moneyBox MoneyBox
	if err := db.WithContext(ctx).First(&moneyBox, id).Error; err != nil {
		return nil, err
	}
	// balances are never updated through this path
	updates := map[string]interface{}{
		"name":        input.Name,
		"description": input.Description,
	}
	if input.AllowNegativeBalance != nil {
		updates["allow_negative_balance"] = *input.AllowNegativeBalance
	}
	if err := db.WithContext(ctx).Model(&moneyBox).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &moneyBox, nil
}

// DeleteMoneyBox soft-deactivates. A box holding funds, or one referenced by
// transfer history, must stay queryable for audit.
func DeleteMoneyBox(ctx context.Context, id int) (*MoneyBox, error) {
	db := config.GetDB()
	var moneyBox MoneyBox
	if err := db.WithContext(ctx).First(&moneyBox, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if !moneyBox.CurrentBalance.IsZero() {
		return nil, errors.New("money box with a non-zero balance cannot be removed")
	}

	var transferCount int64
	err := db.WithContext(ctx).Model(&BoxTransaction{}).
		Where("box_kind = ? AND box_id = ? AND type IN ?", BoxKindMoney, id,
			[]TransactionType{TransactionTypeTransferIn, TransactionTypeTransferOut}).
		Count(&transferCount).Error
	if err != nil {
		return nil, err
	}
	if transferCount > 0 {
		return nil, errors.New("money box with transfer history cannot be removed")
	}

	if err := db.WithContext(ctx).Model(&moneyBox).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	return &moneyBox, nil
}

func GetMoneyBox(ctx context.Context, id int) (*MoneyBox, error) {
	db := config.GetDB()
	var moneyBox MoneyBox
	if err := db.WithContext(ctx).First(&moneyBox, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &moneyBox, nil
}

func GetMoneyBoxes(ctx context.Context, name *string) ([]*MoneyBox, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Where("is_active = ?", true).Order("name")
	if name != nil && *name != "" {
		query = query.Where("name LIKE ?", "%"+*name+"%")
	}
	var moneyBoxes []*MoneyBox
	if err := query.Find(&moneyBoxes).Error; err != nil {
		return nil, err
	}
	return moneyBoxes, nil
}
