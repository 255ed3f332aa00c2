package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/centavo/centavo-backend/internal/middleware"
	"github.com/centavo/centavo-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	ledgerService  *service.LedgerService
	receiptService *service.ReceiptService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(ledgerService *service.LedgerService, receiptService *service.ReceiptService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService:  ledgerService,
		receiptService: receiptService,
	}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	Description        string  `json:"description"`
	Amount             string  `json:"amount"`
	Date               *string `json:"date,omitempty"`
	CategoryID         *int32  `json:"categoryId,omitempty"`
	IsIncome           bool    `json:"isIncome"`
	IsTransfer         bool    `json:"isTransfer"`
	TransferToBudgetID *int32  `json:"transferToBudgetId,omitempty"`
}

// UpdateTransactionRequest represents the update transaction request body
type UpdateTransactionRequest struct {
	Description        string `json:"description"`
	Amount             string `json:"amount"`
	Date               string `json:"date"`
	CategoryID         *int32 `json:"categoryId,omitempty"`
	IsIncome           bool   `json:"isIncome"`
	IsTransfer         bool   `json:"isTransfer"`
	TransferToBudgetID *int32 `json:"transferToBudgetId,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID                 int32   `json:"id"`
	BudgetID           int32   `json:"budgetId"`
	Description        string  `json:"description"`
	Amount             string  `json:"amount"`
	Date               string  `json:"date"`
	CategoryID         *int32  `json:"categoryId,omitempty"`
	IsIncome           bool    `json:"isIncome"`
	IsTransfer         bool    `json:"isTransfer"`
	TransferToBudgetID *int32  `json:"transferToBudgetId,omitempty"`
	TransferPairID     *string `json:"transferPairId,omitempty"`
	HasReceipt         bool    `json:"hasReceipt"`
	CreatedAt          string  `json:"createdAt"`
}

// PaginatedTransactionsResponse represents paginated transactions in API responses
type PaginatedTransactionsResponse struct {
	Data       []TransactionResponse `json:"data"`
	Page       int32                 `json:"page"`
	PageSize   int32                 `json:"pageSize"`
	TotalItems int64                 `json:"totalItems"`
	TotalPages int32                 `json:"totalPages"`
}

// transactionErrorResponse maps known domain errors to problem responses.
// The boolean reports whether the error was handled; the write result from
// c.JSON cannot carry that signal because it is nil on success.
func transactionErrorResponse(c echo.Context, err error) (error, bool) {
	switch {
	case errors.Is(err, domain.ErrTransactionNotFound):
		return NewNotFoundError(c, "Transaction not found"), true
	case errors.Is(err, domain.ErrBudgetNotFound):
		return NewNotFoundError(c, "Budget not found"), true
	case errors.Is(err, domain.ErrDescriptionRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description is required"},
		}), true
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 200 characters or less"},
		}), true
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must not be negative"},
		}), true
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category not found"},
		}), true
	case errors.Is(err, domain.ErrCategoryWrongBudget):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category belongs to a different budget"},
		}), true
	case errors.Is(err, domain.ErrSameBudgetTransfer):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "transferToBudgetId", Message: "Must be different from source budget"},
		}), true
	case errors.Is(err, domain.ErrTransferMirror):
		return NewConflictError(c, "Transfer mirrors are managed through their source transaction"), true
	}
	return nil, false
}

// CreateTransaction handles POST /api/v1/budgets/:id/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	budgetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	// Malformed dates are rejected here, before any state changes
	var date *time.Time
	if req.Date != nil && *req.Date != "" {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: "date", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		date = &parsed
	}

	input := service.CreateTransactionInput{
		BudgetID:           int32(budgetID),
		Description:        req.Description,
		Amount:             amount,
		Date:               date,
		CategoryID:         req.CategoryID,
		IsIncome:           req.IsIncome,
		IsTransfer:         req.IsTransfer,
		TransferToBudgetID: req.TransferToBudgetID,
	}

	transaction, err := h.ledgerService.CreateTransaction(workspaceID, input)
	if err != nil {
		if resp, handled := transactionErrorResponse(c, err); handled {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", budgetID).Msg("Failed to create transaction")
		return NewInternalError(c, "Failed to create transaction")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("transaction_id", transaction.ID).Msg("Transaction created")
	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetTransactions handles GET /api/v1/budgets/:id/transactions
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	budgetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	filters := &domain.TransactionFilters{
		Page:     1,
		PageSize: domain.DefaultPageSize,
	}

	if categoryIDStr := c.QueryParam("categoryId"); categoryIDStr != "" {
		var categoryID int32
		if ok, err := parseIntParam(categoryIDStr, &categoryID); !ok || err != nil {
			return NewValidationError(c, "Invalid categoryId", nil)
		}
		filters.CategoryID = &categoryID
	}

	if startDateStr := c.QueryParam("startDate"); startDateStr != "" {
		parsed, err := time.Parse("2006-01-02", startDateStr)
		if err != nil {
			return NewValidationError(c, "Invalid startDate format (use YYYY-MM-DD)", nil)
		}
		filters.StartDate = &parsed
	}

	if endDateStr := c.QueryParam("endDate"); endDateStr != "" {
		parsed, err := time.Parse("2006-01-02", endDateStr)
		if err != nil {
			return NewValidationError(c, "Invalid endDate format (use YYYY-MM-DD)", nil)
		}
		filters.EndDate = &parsed
	}

	if typeStr := c.QueryParam("type"); typeStr != "" {
		switch typeStr {
		case "income":
			isIncome := true
			filters.IsIncome = &isIncome
		case "expense":
			isIncome := false
			filters.IsIncome = &isIncome
		default:
			return NewValidationError(c, "Invalid type (must be 'income' or 'expense')", nil)
		}
	}

	if pageStr := c.QueryParam("page"); pageStr != "" {
		var page int32
		if ok, err := parseIntParam(pageStr, &page); !ok || err != nil || page < 1 {
			return NewValidationError(c, "Invalid page (must be positive integer)", nil)
		}
		filters.Page = page
	}

	if pageSizeStr := c.QueryParam("pageSize"); pageSizeStr != "" {
		var pageSize int32
		if ok, err := parseIntParam(pageSizeStr, &pageSize); !ok || err != nil || pageSize < 1 {
			return NewValidationError(c, "Invalid pageSize (must be positive integer)", nil)
		}
		if pageSize > domain.MaxPageSize {
			pageSize = domain.MaxPageSize
		}
		filters.PageSize = pageSize
	}

	result, err := h.ledgerService.GetTransactions(workspaceID, int32(budgetID), filters)
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", budgetID).Msg("Failed to get transactions")
		return NewInternalError(c, "Failed to get transactions")
	}

	response := PaginatedTransactionsResponse{
		Data:       make([]TransactionResponse, len(result.Data)),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	}
	for i, transaction := range result.Data {
		response.Data[i] = toTransactionResponse(transaction)
	}
	return c.JSON(http.StatusOK, response)
}

// GetTransaction handles GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.ledgerService.GetTransaction(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to get transaction")
		return NewInternalError(c, "Failed to get transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// UpdateTransaction handles PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	input := service.UpdateTransactionInput{
		Description:        req.Description,
		Amount:             amount,
		Date:               date,
		CategoryID:         req.CategoryID,
		IsIncome:           req.IsIncome,
		IsTransfer:         req.IsTransfer,
		TransferToBudgetID: req.TransferToBudgetID,
	}

	transaction, err := h.ledgerService.UpdateTransaction(workspaceID, int32(id), input)
	if err != nil {
		if resp, handled := transactionErrorResponse(c, err); handled {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to update transaction")
		return NewInternalError(c, "Failed to update transaction")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("transaction_id", transaction.ID).Msg("Transaction updated")
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.ledgerService.DeleteTransaction(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to delete transaction")
		return NewInternalError(c, "Failed to delete transaction")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Transaction deleted")
	return c.NoContent(http.StatusNoContent)
}

// ReceiptResponse represents receipt URLs in API responses
type ReceiptResponse struct {
	ThumbnailURL string `json:"thumbnailUrl"`
	DisplayURL   string `json:"displayUrl"`
	OriginalURL  string `json:"originalUrl"`
}

// UploadReceipt handles POST /api/v1/transactions/:id/receipt
func (h *TransactionHandler) UploadReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	transaction, err := h.receiptService.AttachReceipt(c.Request().Context(), workspaceID, int32(id), data, file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTransactionNotFound):
			return NewNotFoundError(c, "Transaction not found")
		case errors.Is(err, service.ErrReceiptTooLarge):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "File too large. Maximum size is 5MB"},
			})
		case errors.Is(err, service.ErrInvalidReceiptFormat):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid format. Supported: JPEG, PNG, WebP"},
			})
		case errors.Is(err, service.ErrReceiptTooSmall):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Image too small. Minimum 50x50 pixels"},
			})
		case errors.Is(err, service.ErrInvalidReceiptData):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid image data"},
			})
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to upload receipt")
		return NewInternalError(c, "Failed to upload receipt")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("transaction_id", transaction.ID).Msg("Receipt uploaded")
	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetReceipt handles GET /api/v1/transactions/:id/receipt
func (h *TransactionHandler) GetReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipts are disabled (storage not configured)")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	urls, err := h.receiptService.GetReceiptURLs(c.Request().Context(), workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Transaction has no receipt")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to get receipt")
		return NewInternalError(c, "Failed to get receipt")
	}

	return c.JSON(http.StatusOK, ReceiptResponse{
		ThumbnailURL: urls.ThumbnailURL,
		DisplayURL:   urls.DisplayURL,
		OriginalURL:  urls.OriginalURL,
	})
}

// DeleteReceipt handles DELETE /api/v1/transactions/:id/receipt
func (h *TransactionHandler) DeleteReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipts are disabled (storage not configured)")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if _, err := h.receiptService.DeleteReceipt(c.Request().Context(), workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Transaction has no receipt")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to delete receipt")
		return NewInternalError(c, "Failed to delete receipt")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Receipt deleted")
	return c.NoContent(http.StatusNoContent)
}

// parseIntParam parses an int32 query param with overflow protection
func parseIntParam(s string, out *int32) (bool, error) {
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return false, errors.New("invalid integer")
	}
	*out = int32(v)
	return true, nil
}

func toTransactionResponse(transaction *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          transaction.ID,
		BudgetID:    transaction.BudgetID,
		Description: transaction.Description,
		Amount:      transaction.Amount.StringFixed(2),
		Date:        transaction.Date.Format("2006-01-02"),
		IsIncome:    transaction.IsIncome,
		IsTransfer:  transaction.IsTransfer,
		HasReceipt:  transaction.ReceiptPath != nil,
		CreatedAt:   transaction.CreatedAt.Format(time.RFC3339),
	}
	if transaction.CategoryID != nil {
		resp.CategoryID = transaction.CategoryID
	}
	if transaction.TransferToBudgetID != nil {
		resp.TransferToBudgetID = transaction.TransferToBudgetID
	}
	if transaction.TransferPairID != nil {
		pairID := transaction.TransferPairID.String()
		resp.TransferPairID = &pairID
	}
	return resp
}
