package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/workflow"
	"github.com/gin-gonic/gin"
)

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "code": "INVALID_ID"})
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateMoneyBox(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	var input models.NewMoneyBox
	if !bindJSON(c, &input) {
		return
	}
	box, err := models.CreateMoneyBox(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, box)
}

func (h *Handler) UpdateMoneyBox(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewMoneyBox
	if !bindJSON(c, &input) {
		return
	}
	box, err := models.UpdateMoneyBox(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, box)
}

func (h *Handler) DeleteMoneyBox(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	box, err := models.DeleteMoneyBox(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, box)
}

func (h *Handler) GetMoneyBox(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	box, err := models.GetMoneyBox(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, box)
}

func (h *Handler) ListMoneyBoxes(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	var name *string
	if q := c.Query("name"); q != "" {
		name = &q
	}
	boxes, err := models.GetMoneyBoxes(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, boxes)
}

func (h *Handler) DepositToMoneyBox(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	var input workflow.MoneyBoxMutationInput
	if !bindJSON(c, &input) {
		return
	}
	transaction, err := h.Engine.DepositToMoneyBox(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

func (h *Handler) WithdrawFromMoneyBox(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	var input workflow.MoneyBoxMutationInput
	if !bindJSON(c, &input) {
		return
	}
	transaction, err := h.Engine.WithdrawFromMoneyBox(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

func (h *Handler) TransferMoneyBoxes(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	var input workflow.TransferInput
	if !bindJSON(c, &input) {
		return
	}
	result, err := h.Engine.TransferMoneyBoxes(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListMoneyBoxTransactions(c *gin.Context) {
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
	transactions, err := models.GetBoxTransactions(c.Request.Context(), models.BoxKindMoney, id, fromDate, toDate, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *Handler) ReverseTransaction(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	var input workflow.ReverseTransactionInput
	if !bindJSON(c, &input) {
		return
	}
	reversal, err := h.Engine.ReverseBoxTransaction(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reversal)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	transaction, err := models.GetBoxTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}
