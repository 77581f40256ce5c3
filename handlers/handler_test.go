package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
)

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{utils.ErrorRecordNotFound, http.StatusNotFound, "NOT_FOUND"},
		{utils.ErrorAlreadyOpen, http.StatusConflict, "ALREADY_OPEN"},
		{utils.ErrorNotOpen, http.StatusConflict, "NOT_OPEN"},
		{utils.ErrorInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{utils.ErrorInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
		{utils.ErrorDuplicateName, http.StatusConflict, "DUPLICATE_NAME"},
		{utils.ErrorSameBox, http.StatusBadRequest, "SAME_BOX"},
		{utils.ErrorApprovalRequired, http.StatusForbidden, "APPROVAL_REQUIRED"},
		{utils.ErrorLimitExceeded, http.StatusUnprocessableEntity, "LIMIT_EXCEEDED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, code := errorCode(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("errorCode(%v) expected (%d, %s), got (%d, %s)", tc.err, tc.status, tc.code, status, code)
		}
	}
}

func TestErrorCode_WrappedSentinels(t *testing.T) {
	wrapped := fmt.Errorf("closing session: %w", utils.ErrorNotOpen)
	status, code := errorCode(wrapped)
	if status != http.StatusConflict || code != "NOT_OPEN" {
		t.Fatalf("wrapped sentinel not recognized: (%d, %s)", status, code)
	}
}
