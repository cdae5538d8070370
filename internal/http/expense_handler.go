package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expense-platform/internal/domain"
	"expense-platform/internal/service"
	"expense-platform/internal/storage"
)

// ExpenseHandler mantiene dependencias para endpoints de gastos.
type ExpenseHandler struct {
	logger      *zap.Logger
	expenseServ *service.ExpenseService
	blobs       storage.BlobStore
}

func NewExpenseHandler(logger *zap.Logger, expenseServ *service.ExpenseService, blobs storage.BlobStore) *ExpenseHandler {
	return &ExpenseHandler{
		logger:      logger,
		expenseServ: expenseServ,
		blobs:       blobs,
	}
}

type expenseResponse struct {
	ID          string  `json:"id"`
	Owner       string  `json:"owner"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
	Vendor      string  `json:"vendor"`
	Description string  `json:"description"`
	ReceiptURL  string  `json:"receipt_url"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

func (h *ExpenseHandler) toResponse(e domain.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Owner:       e.OwnerUsername,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Date:        e.ExpenseDate.Format("2006-01-02"),
		Vendor:      e.Vendor,
		Description: e.Description,
		ReceiptURL:  h.blobs.URL(e.ReceiptPath),
		Status:      e.Status,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

func (h *ExpenseHandler) toResponses(expenses []domain.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, h.toResponse(e))
	}
	return out
}

// Submit maneja POST /expenses (multipart).
func (h *ExpenseHandler) Submit(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	input := service.SubmitInput{
		Amount:      c.PostForm("amount"),
		Currency:    c.PostForm("currency"),
		Date:        c.PostForm("date"),
		Vendor:      c.PostForm("vendor"),
		Description: c.PostForm("description"),
	}

	header, err := c.FormFile("receipt")
	if err == nil {
		file, openErr := header.Open()
		if openErr != nil {
			h.logger.Error("open receipt upload failed", zap.String("username", user.Username), zap.Error(openErr))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process expense"})
			return
		}
		defer file.Close()
		input.Filename = header.Filename
		input.File = file
		input.Size = header.Size
	}

	result, err := h.expenseServ.Submit(c.Request.Context(), user, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
		case errors.Is(err, service.ErrMissingFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no receipt file part"})
		case errors.Is(err, service.ErrFileType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "file type not allowed"})
		case errors.Is(err, service.ErrInvalidFormData):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			// Detalle de fallas de colaboradores solo en logs, nunca
			// hacia el cliente.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process expense"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Expense submitted successfully",
		"expense":  h.toResponse(result.Expense),
		"ocr_data": result.OCR,
	})
}

// List maneja GET /expenses, acotado al dueño autenticado.
func (h *ExpenseHandler) List(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	expenses, err := h.expenseServ.ListForOwner(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("list expenses failed", zap.String("username", user.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list expenses"})
		return
	}
	c.JSON(http.StatusOK, h.toResponses(expenses))
}

// AdminList maneja GET /admin/expenses.
func (h *ExpenseHandler) AdminList(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	expenses, err := h.expenseServ.ListAll(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
			return
		}
		h.logger.Error("admin list expenses failed", zap.String("username", user.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list expenses"})
		return
	}
	c.JSON(http.StatusOK, h.toResponses(expenses))
}

// Approve maneja POST /admin/expenses/:id/approve.
func (h *ExpenseHandler) Approve(c *gin.Context) {
	h.transition(c, domain.StatusApproved, "Expense approved")
}

// Reject maneja POST /admin/expenses/:id/reject.
func (h *ExpenseHandler) Reject(c *gin.Context) {
	h.transition(c, domain.StatusRejected, "Expense rejected")
}

func (h *ExpenseHandler) transition(c *gin.Context, target, message string) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	expenseID := c.Param("id")
	if _, err := h.expenseServ.Transition(c.Request.Context(), user, expenseID, target); err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
		case errors.Is(err, service.ErrExpenseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
		default:
			h.logger.Error("expense transition failed",
				zap.String("username", user.Username),
				zap.String("expense_id", expenseID),
				zap.String("target", target),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update expense"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}
