package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CashBox is a per-cashier register session. Rows are never deleted: a
// session goes Open -> Closed and stays for audit. At most one Open row may
// exist per owner; workflows enforce that with a locked re-check inside the
// opening transaction.
type CashBox struct {
	ID            int             `gorm:"primary_key" json:"id"`
	OwnerId       int             `gorm:"not null;index;index:idx_cb_owner_status,priority:1" json:"owner_id"`
	Status        CashBoxStatus   `gorm:"type:enum('Closed','Open');size:10;not null;default:'Open';index:idx_cb_owner_status,priority:2" json:"status"`
	InitialAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"initial_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_amount"`
	// Close-time audit: what the cashier counted vs what the ledger computed.
	CountedAmount *decimal.Decimal `gorm:"type:decimal(20,4)" json:"counted_amount"`
	Variance      *decimal.Decimal `gorm:"type:decimal(20,4)" json:"variance"`
	OpenedAt      time.Time        `gorm:"not null;index" json:"opened_at"`
	ClosedAt      *time.Time       `gorm:"index" json:"closed_at"`
	OpenedBy      int              `gorm:"not null" json:"opened_by"`
	ClosedBy      *int             `json:"closed_by"`
	CloseReason   string           `gorm:"type:text" json:"close_reason"`
	Notes         string           `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (box *CashBox) BeforeDelete(tx *gorm.DB) error {
	return errors.New("cash box sessions cannot be deleted, only closed")
}

func GetCashBox(ctx context.Context, id int) (*CashBox, error) {
	db := config.GetDB()
	var box CashBox
	if err := db.WithContext(ctx).First(&box, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &box, nil
}

// GetOpenCashBoxLocked reads the owner's open session under FOR UPDATE. Must
// run inside the caller's transaction.
func GetOpenCashBoxLocked(tx *gorm.DB, ownerId int) (*CashBox, error) {
	var box CashBox
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ? AND status = ?", ownerId, CashBoxStatusOpen).
		First(&box).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorNotOpen
		}
		return nil, err
	}
	return &box, nil
}

func GetOpenCashBox(ctx context.Context, ownerId int) (*CashBox, error) {
	db := config.GetDB()
	var box CashBox
	err := db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerId, CashBoxStatusOpen).
		First(&box).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorNotOpen
		}
		return nil, err
	}
	return &box, nil
}

func GetCashBoxSessions(ctx context.Context, ownerId int, limit int) ([]*CashBox, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Where("owner_id = ?", ownerId).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var sessions []*CashBox
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// UserCashBoxSettings is pure per-cashier policy, read before every mutating
// cash box call. It never holds balance state.
type UserCashBoxSettings struct {
	UserId                       int             `gorm:"primary_key;autoIncrement:false" json:"user_id"`
	AllowNegativeBalance         *bool           `gorm:"not null;default:false" json:"allow_negative_balance"`
	MaxWithdrawalAmount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"max_withdrawal_amount"`
	RequireApprovalForWithdrawal *bool           `gorm:"not null;default:false" json:"require_approval_for_withdrawal"`
	// Close variance above this absolute value is flagged on the response.
	VarianceTolerance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"variance_tolerance"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUserCashBoxSettings struct {
	AllowNegativeBalance         *bool           `json:"allow_negative_balance"`
	MaxWithdrawalAmount          decimal.Decimal `json:"max_withdrawal_amount"`
	RequireApprovalForWithdrawal *bool           `json:"require_approval_for_withdrawal"`
	VarianceTolerance            decimal.Decimal `json:"variance_tolerance"`
}

func cashBoxSettingsCacheKey(userId int) string {
	return fmt.Sprintf("UserCashBoxSettings:%d", userId)
}

// GetUserCashBoxSettings returns the user's policy row, defaults when none
// exists. Read-through cached in redis; the cache is invalidated on update.
func GetUserCashBoxSettings(ctx context.Context, userId int) (*UserCashBoxSettings, error) {
	var settings UserCashBoxSettings
	found, err := config.GetRedisObject(cashBoxSettingsCacheKey(userId), &settings)
	if err == nil && found {
		return &settings, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Where("user_id = ?", userId).First(&settings).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		settings = UserCashBoxSettings{
			UserId:                       userId,
			AllowNegativeBalance:         utils.NewFalse(),
			RequireApprovalForWithdrawal: utils.NewFalse(),
		}
	}
	_ = config.SetRedisObject(cashBoxSettingsCacheKey(userId), settings, 10*time.Minute)
	return &settings, nil
}

func UpdateUserCashBoxSettings(ctx context.Context, userId int, input *NewUserCashBoxSettings) (*UserCashBoxSettings, error) {
	if input.MaxWithdrawalAmount.IsNegative() || input.VarianceTolerance.IsNegative() {
		return nil, utils.ErrorInvalidAmount
	}

	settings := UserCashBoxSettings{
		UserId:                       userId,
		AllowNegativeBalance:         input.AllowNegativeBalance,
		MaxWithdrawalAmount:          input.MaxWithdrawalAmount,
		RequireApprovalForWithdrawal: input.RequireApprovalForWithdrawal,
		VarianceTolerance:            input.VarianceTolerance,
	}
	if settings.AllowNegativeBalance == nil {
		settings.AllowNegativeBalance = utils.NewFalse()
	}
	if settings.RequireApprovalForWithdrawal == nil {
		settings.RequireApprovalForWithdrawal = utils.NewFalse()
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&settings).Error
	if err != nil {
		return nil, err
	}
	_ = config.RemoveRedisKey(cashBoxSettingsCacheKey(userId))
	return &settings, nil
}
