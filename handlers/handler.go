package handlers

import (
	"errors"
	"net/http"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"bitbucket.org/mmdatafocus/pos_backend/workflow"
	"github.com/gin-gonic/gin"
)

// Handler is the thin route layer over the ledger engine. It owns no state
// beyond the engine reference handed to it at startup.
type Handler struct {
	Engine *workflow.LedgerEngine
}

func NewHandler(engine *workflow.LedgerEngine) *Handler {
	return &Handler{Engine: engine}
}

// errorCode maps the ledger taxonomy onto stable machine-readable codes and
// HTTP statuses. The user-facing message is the sentinel text; amounts never
// appear in it.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, utils.ErrorAlreadyOpen):
		return http.StatusConflict, "ALREADY_OPEN"
	case errors.Is(err, utils.ErrorNotOpen):
		return http.StatusConflict, "NOT_OPEN"
	case errors.Is(err, utils.ErrorInsufficientFunds):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"
	case errors.Is(err, utils.ErrorInvalidAmount):
		return http.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, utils.ErrorDuplicateName):
		return http.StatusConflict, "DUPLICATE_NAME"
	case errors.Is(err, utils.ErrorSameBox):
		return http.StatusBadRequest, "SAME_BOX"
	case errors.Is(err, utils.ErrorApprovalRequired):
		return http.StatusForbidden, "APPROVAL_REQUIRED"
	case errors.Is(err, utils.ErrorLimitExceeded):
		return http.StatusUnprocessableEntity, "LIMIT_EXCEEDED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func respondError(c *gin.Context, err error) {
	status, code := errorCode(err)
	body := gin.H{"error": err.Error(), "code": code}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid request",
			"code":   "INVALID_REQUEST",
			"fields": utils.ProcessValidationErrors(err),
		})
		return false
	}
	return true
}

// requireIdentity rejects unauthenticated requests; every mutating ledger
// call needs a caller for its audit fields.
func requireIdentity(c *gin.Context) (int, bool) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok || userId <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "UNAUTHORIZED"})
		return 0, false
	}
	return userId, true
}

func requireAdmin(c *gin.Context) bool {
	if _, ok := requireIdentity(c); !ok {
		return false
	}
	if !utils.IsAdminFromContext(c.Request.Context()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required", "code": "FORBIDDEN"})
		return false
	}
	return true
}
