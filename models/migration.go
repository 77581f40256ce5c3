package models

import (
	"log"

	"bitbucket.org/mmdatafocus/pos_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&MoneyBox{}, &CashBox{}, &BoxTransaction{},
		&UserCashBoxSettings{},
		&Customer{}, &Sale{}, &Debt{},
		&ReceiptNumberSeries{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
