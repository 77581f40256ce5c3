package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Ledger error taxonomy. Workflows return these sentinels; the handler layer
// maps them to HTTP status codes and stable error codes. Amounts never appear
// in error text, only in structured log fields.
var (
	ErrorAlreadyOpen       = errors.New("cash box already open for this owner")
	ErrorNotOpen           = errors.New("no open cash box for this owner")
	ErrorInsufficientFunds = errors.New("insufficient funds")
	ErrorInvalidAmount     = errors.New("amount must be greater than zero")
	ErrorDuplicateName     = errors.New("name already in use")
	ErrorSameBox           = errors.New("source and destination box must differ")
	ErrorApprovalRequired  = errors.New("withdrawal requires approval")
	ErrorLimitExceeded     = errors.New("withdrawal exceeds the configured limit")
)
