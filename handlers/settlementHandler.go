package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/workflow"
	"github.com/gin-gonic/gin"
)

func (h *Handler) RepayDebt(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	var input workflow.RepayDebtInput
	if !bindJSON(c, &input) {
		return
	}
	result, err := h.Engine.RepayDebt(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// RepayDebtLegacy keeps the old request shape alive for clients that predate
// payment allocation.
func (h *Handler) RepayDebtLegacy(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	var req workflow.LegacyRepayRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.Engine.RepayDebtLegacy(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) RepayBatch(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	var req workflow.BatchPaymentVoucherRequest
	if !bindJSON(c, &req) {
		return
	}
	results := h.Engine.RepayBatch(c.Request.Context(), &req)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) GetDebt(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	debt, err := models.GetDebt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, debt)
}

func (h *Handler) ListCustomerDebts(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	debts, err := models.GetDebtsByCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, debts)
}
