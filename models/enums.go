package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

type BoxKind string

const (
	BoxKindCash  BoxKind = "CashBox"
	BoxKindMoney BoxKind = "MoneyBox"
)

func (k BoxKind) IsValid() bool {
	switch k {
	case BoxKindCash, BoxKindMoney:
		return true
	}
	return false
}

type TransactionType string

const (
	TransactionTypeOpening         TransactionType = "Opening"
	TransactionTypeClosing         TransactionType = "Closing"
	TransactionTypeDeposit         TransactionType = "Deposit"
	TransactionTypeWithdrawal      TransactionType = "Withdrawal"
	TransactionTypeSale            TransactionType = "Sale"
	TransactionTypePurchase        TransactionType = "Purchase"
	TransactionTypeExpense         TransactionType = "Expense"
	TransactionTypeCustomerReceipt TransactionType = "CustomerReceipt"
	TransactionTypeSupplierPayment TransactionType = "SupplierPayment"
	TransactionTypeTransferIn      TransactionType = "TransferIn"
	TransactionTypeTransferOut     TransactionType = "TransferOut"
	TransactionTypeAdjustmentIn    TransactionType = "AdjustmentIn"
	TransactionTypeAdjustmentOut   TransactionType = "AdjustmentOut"
)

var transactionTypes = map[string]TransactionType{
	"Opening":         TransactionTypeOpening,
	"Closing":         TransactionTypeClosing,
	"Deposit":         TransactionTypeDeposit,
	"Withdrawal":      TransactionTypeWithdrawal,
	"Sale":            TransactionTypeSale,
	"Purchase":        TransactionTypePurchase,
	"Expense":         TransactionTypeExpense,
	"CustomerReceipt": TransactionTypeCustomerReceipt,
	"SupplierPayment": TransactionTypeSupplierPayment,
	"TransferIn":      TransactionTypeTransferIn,
	"TransferOut":     TransactionTypeTransferOut,
	"AdjustmentIn":    TransactionTypeAdjustmentIn,
	"AdjustmentOut":   TransactionTypeAdjustmentOut,
}

func ParseTransactionType(s string) (TransactionType, error) {
	t, ok := transactionTypes[s]
	if !ok {
		return "", errors.New("invalid transaction type")
	}
	return t, nil
}

func (t TransactionType) IsValid() bool {
	_, ok := transactionTypes[string(t)]
	return ok
}

// Sign is the direction the transaction moves the box balance. Amounts are
// always stored positive; the type carries the sign.
func (t TransactionType) Sign() int {
	switch t {
	case TransactionTypeOpening, TransactionTypeDeposit, TransactionTypeSale,
		TransactionTypeCustomerReceipt, TransactionTypeTransferIn, TransactionTypeAdjustmentIn:
		return 1
	case TransactionTypeClosing, TransactionTypeWithdrawal, TransactionTypePurchase,
		TransactionTypeExpense, TransactionTypeSupplierPayment, TransactionTypeTransferOut,
		TransactionTypeAdjustmentOut:
		return -1
	}
	return 0
}

// Reverse is the type used for the correcting entry of a transaction. The
// ledger never edits rows; a mistaken entry gets an opposite-signed
// adjustment referencing the original.
func (t TransactionType) Reverse() TransactionType {
	if t.Sign() > 0 {
		return TransactionTypeAdjustmentOut
	}
	return TransactionTypeAdjustmentIn
}

// IsOutflow reports whether the type is subject to withdrawal policy checks
// (max amount, approval) on a cash box.
func (t TransactionType) IsOutflow() bool {
	return t.Sign() < 0
}

type ReferenceType string

const (
	ReferenceTypeSale            ReferenceType = "SL"
	ReferenceTypePurchase        ReferenceType = "PO"
	ReferenceTypeExpense         ReferenceType = "EX"
	ReferenceTypeCustomerReceipt ReferenceType = "CR"
	ReferenceTypeSupplierPayment ReferenceType = "SP"
	ReferenceTypeTransfer        ReferenceType = "TR"
	ReferenceTypeCashBoxSession  ReferenceType = "CS"
	ReferenceTypeManual          ReferenceType = "MN"
)

var referenceTypes = map[string]ReferenceType{
	"SL": ReferenceTypeSale,
	"PO": ReferenceTypePurchase,
	"EX": ReferenceTypeExpense,
	"CR": ReferenceTypeCustomerReceipt,
	"SP": ReferenceTypeSupplierPayment,
	"TR": ReferenceTypeTransfer,
	"CS": ReferenceTypeCashBoxSession,
	"MN": ReferenceTypeManual,
}

func ParseReferenceType(s string) (ReferenceType, error) {
	if s == "" {
		return ReferenceTypeManual, nil
	}
	t, ok := referenceTypes[s]
	if !ok {
		return "", errors.New("invalid reference type")
	}
	return t, nil
}

func (t ReferenceType) IsValid() bool {
	_, ok := referenceTypes[string(t)]
	return ok
}

type CashBoxStatus string

const (
	CashBoxStatusClosed CashBoxStatus = "Closed"
	CashBoxStatusOpen   CashBoxStatus = "Open"
)

type DebtStatus string

const (
	DebtStatusUnpaid  DebtStatus = "Unpaid"
	DebtStatusPartial DebtStatus = "Partial"
	DebtStatusPaid    DebtStatus = "Paid"
)

// ComputeDebtStatus is the single source of truth for payment status. The
// stored columns on Sale and Debt are a cache of this function and are
// recomputed on every write, never trusted.
func ComputeDebtStatus(paidAmount decimal.Decimal, totalAmount decimal.Decimal) DebtStatus {
	if paidAmount.GreaterThanOrEqual(totalAmount) {
		return DebtStatusPaid
	}
	if paidAmount.IsPositive() {
		return DebtStatusPartial
	}
	return DebtStatusUnpaid
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "Cash"
	PaymentMethodCard         PaymentMethod = "Card"
	PaymentMethodBankTransfer PaymentMethod = "BankTransfer"
	PaymentMethodOther        PaymentMethod = "Other"
)

var paymentMethods = map[string]PaymentMethod{
	"Cash":         PaymentMethodCash,
	"Card":         PaymentMethodCard,
	"BankTransfer": PaymentMethodBankTransfer,
	"Other":        PaymentMethodOther,
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if s == "" {
		return PaymentMethodCash, nil
	}
	m, ok := paymentMethods[s]
	if !ok {
		return "", errors.New("invalid payment method")
	}
	return m, nil
}

type UserRole string

const (
	UserRoleAdmin   UserRole = "A"
	UserRoleCashier UserRole = "C"
)
