package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"bitbucket.org/mmdatafocus/pos_backend/workflow"
	"github.com/gin-gonic/gin"
)

func (h *Handler) OpenCashBox(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	var input workflow.OpenCashBoxInput
	if !bindJSON(c, &input) {
		return
	}
	box, err := h.Engine.OpenCashBox(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, box)
}

func (h *Handler) CloseCashBox(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	var input workflow.CloseCashBoxInput
	if !bindJSON(c, &input) {
		return
	}
	result, err := h.Engine.CloseCashBox(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ForceCloseCashBox(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	var input workflow.ForceCloseCashBoxInput
	if !bindJSON(c, &input) {
		return
	}
	box, err := h.Engine.ForceCloseCashBox(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, box)
}

func (h *Handler) RecordCashBoxTransaction(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	var input workflow.RecordCashBoxTransactionInput
	if !bindJSON(c, &input) {
		return
	}
	transaction, err := h.Engine.RecordCashBoxTransaction(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

// CurrentCashBox returns the caller's open session, if any.
func (h *Handler) CurrentCashBox(c *gin.Context) {
	userId, ok := requireIdentity(c)
	if !ok {
		return
	}
	box, err := models.GetOpenCashBox(c.Request.Context(), userId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, box)
}

func (h *Handler) ListCashBoxSessions(c *gin.Context) {
	userId, ok := requireIdentity(c)
	if !ok {
		return
	}
	// Admins may inspect any owner's history; everyone else sees their own.
	if ownerQuery := c.Query("owner_id"); ownerQuery != "" && utils.IsAdminFromContext(c.Request.Context()) {
		if ownerId, err := strconv.Atoi(ownerQuery); err == nil && ownerId > 0 {
			userId = ownerId
		}
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	sessions, err := models.GetCashBoxSessions(c.Request.Context(), userId, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) ListCashBoxTransactions(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	fromDate, toDate, ok := dateRangeQuery(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	transactions, err := models.GetBoxTransactions(c.Request.Context(), models.BoxKindCash, id, fromDate, toDate, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *Handler) GetCashBoxSettings(c *gin.Context) {
	userId, ok := requireIdentity(c)
	if !ok {
		return
	}
	settings, err := models.GetUserCashBoxSettings(c.Request.Context(), userId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateCashBoxSettings writes another user's withdrawal policy. Admin only:
// owners must not raise their own limits.
func (h *Handler) UpdateCashBoxSettings(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewUserCashBoxSettings
	if !bindJSON(c, &input) {
		return
	}
	settings, err := models.UpdateUserCashBoxSettings(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
