package workflow_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"bitbucket.org/mmdatafocus/pos_backend/workflow"
	"github.com/shopspring/decimal"
)

// Repaying a sale that is already settled resolves no debt: the call fails
// with not-found and writes nothing to the ledger.
//
// Usage: INTEGRATION_TESTS=1 go test ./workflow -run SettledSaleRepay -v
func TestSettledSaleRepay_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		t.Fatal("database not initialized")
	}
	models.MigrateTable()

	ownerId := int(time.Now().Unix() % 1_000_000_000)
	ctx := utils.SetUserIdInContext(context.Background(), ownerId)
	ctx = utils.SetCorrelationIdInContext(ctx, utils.NewCorrelationId())

	engine := workflow.NewLedgerEngine(db, config.GetLogger())

	customer := models.Customer{Name: "settled sale customer", IsActive: utils.NewTrue()}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	sale := models.Sale{
		CustomerId:    customer.ID,
		TotalAmount:   decimal.RequireFromString("500"),
		PaidAmount:    decimal.RequireFromString("500"),
		PaymentStatus: models.DebtStatusPaid,
		SaleDate:      time.Now(),
		CreatedBy:     ownerId,
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("create sale: %v", err)
	}

	box, err := engine.OpenCashBox(ctx, &workflow.OpenCashBoxInput{
		OpeningAmount: decimal.RequireFromString("50"),
	})
	if err != nil {
		t.Fatalf("OpenCashBox: %v", err)
	}

	_, err = engine.RepayDebt(ctx, &workflow.RepayDebtInput{
		SaleId:        sale.ID,
		Amount:        decimal.RequireFromString("400"),
		PaymentMethod: string(models.PaymentMethodCash),
	})
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected ErrorRecordNotFound, got %v", err)
	}

	// No receipt row, no paid-amount drift.
	var receipts int64
	err = db.Model(&models.BoxTransaction{}).
		Where("reference_type = ? AND reference_id = ?", models.ReferenceTypeSale, sale.ID).
		Count(&receipts).Error
	if err != nil {
		t.Fatalf("count receipts: %v", err)
	}
	if receipts != 0 {
		t.Fatalf("settled sale grew %d receipt rows", receipts)
	}
	reread, err := models.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	if !reread.PaidAmount.Equal(sale.TotalAmount) {
		t.Fatalf("paid amount drifted to %s", reread.PaidAmount)
	}

	transactions, err := models.GetBoxTransactions(ctx, models.BoxKindCash, box.ID, nil, nil, 0)
	if err != nil {
		t.Fatalf("GetBoxTransactions: %v", err)
	}
	for _, transaction := range transactions {
		if transaction.Type == models.TransactionTypeCustomerReceipt {
			t.Fatalf("cash box holds a receipt row for a settled sale: id %d", transaction.ID)
		}
	}
}
