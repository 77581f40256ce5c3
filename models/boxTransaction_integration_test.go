package models

import (
	"os"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"github.com/shopspring/decimal"
)

// Ledger rows must reject every mutation except reversal linkage.
//
// Usage: INTEGRATION_TESTS=1 go test ./models -run BoxTransactionImmutability -v
func TestBoxTransactionImmutability_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		t.Fatal("database not initialized")
	}
	MigrateTable()

	row := BoxTransaction{
		BoxKind:       BoxKindMoney,
		BoxId:         999_999_999,
		Type:          TransactionTypeDeposit,
		Amount:        decimal.RequireFromString("10"),
		BalanceBefore: decimal.Zero,
		BalanceAfter:  decimal.RequireFromString("10"),
		ReferenceType: ReferenceTypeManual,
		CreatedBy:     1,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := db.Model(&row).Update("amount", decimal.RequireFromString("99")).Error
	if err == nil {
		t.Fatal("amount update went through, want hook rejection")
	}

	err = db.Model(&row).Update("notes", "edited").Error
	if err == nil {
		t.Fatal("notes update went through, want hook rejection")
	}

	if err := db.Delete(&row).Error; err == nil {
		t.Fatal("delete went through, want hook rejection")
	}

	// Reversal linkage stays writable: back-linking the original row is how
	// corrections land.
	now := time.Now()
	reason := "test correction"
	err = db.Model(&row).Updates(map[string]interface{}{
		"reversed_by_transaction_id": row.ID,
		"reversal_reason":            reason,
		"reversed_at":                now,
	}).Error
	if err != nil {
		t.Fatalf("reversal linkage update rejected: %v", err)
	}

	var reread BoxTransaction
	if err := db.First(&reread, row.ID).Error; err != nil {
		t.Fatalf("reread: %v", err)
	}
	if !reread.Amount.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("amount drifted to %s", reread.Amount)
	}
	if reread.ReversedByTransactionId == nil || *reread.ReversedByTransactionId != row.ID {
		t.Fatal("reversal back-link not written")
	}
}
