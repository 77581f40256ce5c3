package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSaleRemainingAmount_NeverNegative(t *testing.T) {
	sale := &Sale{
		TotalAmount: decimal.RequireFromString("100"),
		PaidAmount:  decimal.RequireFromString("120"),
	}
	if got := sale.RemainingAmount(); !got.IsZero() {
		t.Fatalf("overpaid sale should have zero remaining, got %s", got)
	}

	sale.PaidAmount = decimal.RequireFromString("30")
	if got := sale.RemainingAmount(); !got.Equal(decimal.RequireFromString("70")) {
		t.Fatalf("expected remaining 70, got %s", got)
	}
}

func TestNewDebtFromSale(t *testing.T) {
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	sale := &Sale{
		ID:          7,
		CustomerId:  3,
		TotalAmount: decimal.RequireFromString("250"),
		PaidAmount:  decimal.RequireFromString("100"),
		DueDate:     &due,
	}

	debt := NewDebtFromSale(sale)
	if debt.SaleId != 7 || debt.CustomerId != 3 {
		t.Fatalf("unexpected linkage: sale %d customer %d", debt.SaleId, debt.CustomerId)
	}
	if !debt.RemainingAmount.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected remaining 150, got %s", debt.RemainingAmount)
	}
	if debt.Status != DebtStatusPartial {
		t.Fatalf("expected Partial, got %s", debt.Status)
	}
	if debt.DueDate == nil || !debt.DueDate.Equal(due) {
		t.Fatalf("due date not carried over: %v", debt.DueDate)
	}
}

func TestDebtRecompute(t *testing.T) {
	debt := &Debt{
		TotalAmount: decimal.RequireFromString("200"),
	}

	debt.Recompute(decimal.RequireFromString("50"))
	if debt.Status != DebtStatusPartial || !debt.RemainingAmount.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("after 50: status %s remaining %s", debt.Status, debt.RemainingAmount)
	}

	// Overpayment clamps remaining at zero; the excess lives on the
	// settlement result, never on the projection.
	debt.Recompute(decimal.RequireFromString("250"))
	if debt.Status != DebtStatusPaid {
		t.Fatalf("after 250: expected Paid, got %s", debt.Status)
	}
	if !debt.RemainingAmount.IsZero() {
		t.Fatalf("after 250: expected zero remaining, got %s", debt.RemainingAmount)
	}
}
