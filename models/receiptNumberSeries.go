package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReceiptNumberSeries issues sequential document numbers per module
// ("CustomerReceipt", "CashBoxClose", ...). NextNumber is advanced under a
// row lock so two concurrent postings never share a number.
type ReceiptNumberSeries struct {
	ID         int    `gorm:"primary_key" json:"id"`
	ModuleName string `gorm:"size:50;not null;unique" json:"module_name"`
	Prefix     string `gorm:"size:10" json:"prefix"`
	NextNumber int    `gorm:"not null;default:1" json:"next_number"`
}

const (
	ReceiptModuleCustomerReceipt = "CustomerReceipt"
	ReceiptModuleCashBoxClose    = "CashBoxClose"
)

// NextReceiptNumber reserves and formats the next number for a module. Must
// run inside the caller's transaction; the reservation rolls back with it.
func NextReceiptNumber(tx *gorm.DB, moduleName string) (string, error) {
	var series ReceiptNumberSeries
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("module_name = ?", moduleName).
		First(&series).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		series = ReceiptNumberSeries{
			ModuleName: moduleName,
			Prefix:     defaultPrefix(moduleName),
			NextNumber: 1,
		}
		if err := tx.Create(&series).Error; err != nil {
			return "", err
		}
	}

	number := fmt.Sprintf("%s-%06d", series.Prefix, series.NextNumber)
	err = tx.Model(&ReceiptNumberSeries{}).
		Where("id = ?", series.ID).
		Update("next_number", gorm.Expr("next_number + 1")).Error
	if err != nil {
		return "", err
	}
	return number, nil
}

func defaultPrefix(moduleName string) string {
	switch moduleName {
	case ReceiptModuleCustomerReceipt:
		return "RCT"
	case ReceiptModuleCashBoxClose:
		return "CLS"
	}
	return "DOC"
}
