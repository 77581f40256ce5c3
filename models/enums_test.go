package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeDebtStatus(t *testing.T) {
	cases := []struct {
		paid     string
		total    string
		expected DebtStatus
	}{
		{"0", "100", DebtStatusUnpaid},
		{"0.0001", "100", DebtStatusPartial},
		{"50", "100", DebtStatusPartial},
		{"99.9999", "100", DebtStatusPartial},
		{"100", "100", DebtStatusPaid},
		{"150", "100", DebtStatusPaid},
		{"0", "0", DebtStatusPaid},
		{"-5", "100", DebtStatusUnpaid},
	}
	for _, tc := range cases {
		got := ComputeDebtStatus(decimal.RequireFromString(tc.paid), decimal.RequireFromString(tc.total))
		if got != tc.expected {
			t.Fatalf("ComputeDebtStatus(%s, %s) expected %s, got %s", tc.paid, tc.total, tc.expected, got)
		}
	}
}

func TestTransactionTypeSign_EveryTypeIsDirectional(t *testing.T) {
	for name, transactionType := range transactionTypes {
		if sign := transactionType.Sign(); sign != 1 && sign != -1 {
			t.Fatalf("transaction type %s has sign %d, expected +1 or -1", name, sign)
		}
	}
}

func TestTransactionTypeReverse_FlipsDirection(t *testing.T) {
	for name, transactionType := range transactionTypes {
		reverse := transactionType.Reverse()
		if reverse != TransactionTypeAdjustmentIn && reverse != TransactionTypeAdjustmentOut {
			t.Fatalf("transaction type %s reverses to %s, expected an adjustment type", name, reverse)
		}
		if reverse.Sign() != -transactionType.Sign() {
			t.Fatalf("transaction type %s (sign %d) reverses to %s (sign %d)",
				name, transactionType.Sign(), reverse, reverse.Sign())
		}
	}
}

func TestParseTransactionType_RejectsUnknown(t *testing.T) {
	if _, err := ParseTransactionType("Refund"); err == nil {
		t.Fatal("expected error for unknown transaction type")
	}
	got, err := ParseTransactionType("CustomerReceipt")
	if err != nil {
		t.Fatalf("ParseTransactionType(CustomerReceipt) error: %v", err)
	}
	if got != TransactionTypeCustomerReceipt {
		t.Fatalf("expected CustomerReceipt, got %s", got)
	}
}

func TestParseReferenceType_EmptyDefaultsToManual(t *testing.T) {
	got, err := ParseReferenceType("")
	if err != nil {
		t.Fatalf("ParseReferenceType(\"\") error: %v", err)
	}
	if got != ReferenceTypeManual {
		t.Fatalf("expected %s, got %s", ReferenceTypeManual, got)
	}
	if _, err := ParseReferenceType("XX"); err == nil {
		t.Fatal("expected error for unknown reference type")
	}
}

func TestParsePaymentMethod_EmptyDefaultsToCash(t *testing.T) {
	got, err := ParsePaymentMethod("")
	if err != nil {
		t.Fatalf("ParsePaymentMethod(\"\") error: %v", err)
	}
	if got != PaymentMethodCash {
		t.Fatalf("expected %s, got %s", PaymentMethodCash, got)
	}
	if _, err := ParsePaymentMethod("Crypto"); err == nil {
		t.Fatal("expected error for unknown payment method")
	}
}
