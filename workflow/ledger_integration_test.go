package workflow_test

import (
	"context"
	"os"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"bitbucket.org/mmdatafocus/pos_backend/workflow"
	"github.com/shopspring/decimal"
)

// End-to-end cash box session against a real MySQL.
//
// Usage: INTEGRATION_TESTS=1 go test ./workflow -run CashBoxLifecycle -v
// (needs DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME pointing at a throwaway
// database).
func TestCashBoxLifecycle_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		t.Fatal("database not initialized")
	}
	models.MigrateTable()

	// A fresh owner id per run keeps the one-open-box-per-owner rule out of
	// the way of repeated runs.
	ownerId := int(time.Now().Unix() % 1_000_000_000)
	ctx := utils.SetUserIdInContext(context.Background(), ownerId)
	ctx = utils.SetCorrelationIdInContext(ctx, utils.NewCorrelationId())

	engine := workflow.NewLedgerEngine(db, config.GetLogger())

	box, err := engine.OpenCashBox(ctx, &workflow.OpenCashBoxInput{
		OpeningAmount: decimal.RequireFromString("100"),
	})
	if err != nil {
		t.Fatalf("OpenCashBox: %v", err)
	}
	if !box.CurrentAmount.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("opening float not posted: balance %s", box.CurrentAmount)
	}

	if _, err := engine.OpenCashBox(ctx, &workflow.OpenCashBoxInput{}); err != utils.ErrorAlreadyOpen {
		t.Fatalf("second open expected ErrorAlreadyOpen, got %v", err)
	}

	if _, err := engine.RecordCashBoxTransaction(ctx, &workflow.RecordCashBoxTransactionInput{
		BoxId:  box.ID,
		Type:   string(models.TransactionTypeSale),
		Amount: decimal.RequireFromString("40"),
	}); err != nil {
		t.Fatalf("RecordCashBoxTransaction: %v", err)
	}

	counted := decimal.RequireFromString("139")
	result, err := engine.CloseCashBox(ctx, &workflow.CloseCashBoxInput{CountedAmount: counted})
	if err != nil {
		t.Fatalf("CloseCashBox: %v", err)
	}
	if result.CashBox.Status != models.CashBoxStatusClosed {
		t.Fatalf("expected Closed, got %s", result.CashBox.Status)
	}
	if !result.Variance.Equal(decimal.RequireFromString("-1")) {
		t.Fatalf("expected variance -1, got %s", result.Variance)
	}
	if !result.ClosingTransaction.Amount.Equal(decimal.RequireFromString("140")) {
		t.Fatalf("closing entry should drain the computed balance, got %s", result.ClosingTransaction.Amount)
	}

	// Conservation: the closed session's rows sum to zero.
	transactions, err := models.GetBoxTransactions(ctx, models.BoxKindCash, box.ID, nil, nil, 0)
	if err != nil {
		t.Fatalf("GetBoxTransactions: %v", err)
	}
	sum := decimal.Zero
	for _, transaction := range transactions {
		sum = sum.Add(transaction.Amount.Mul(decimal.NewFromInt(int64(transaction.Type.Sign()))))
	}
	if !sum.IsZero() {
		t.Fatalf("closed session does not sum to zero: %s", sum)
	}
}
