package handler

import (
	"github.com/centavo/centavo-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	budgetHandler *BudgetHandler,
	categoryHandler *CategoryHandler,
	transactionHandler *TransactionHandler,
	savingsHandler *SavingsHandler,
	wsHandler *WebSocketHandler,
) {
	// API version 1
	api := e.Group("/api/v1")

	// WebSocket endpoint authenticates via query-param token, outside the
	// HTTP auth middleware
	if wsHandler != nil {
		api.GET("/ws", wsHandler.HandleWS)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.Authenticate())
	protected.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Budget routes
	protected.POST("/budgets", budgetHandler.CreateBudget)
	protected.GET("/budgets", budgetHandler.GetBudgets)
	protected.GET("/budgets/:id", budgetHandler.GetBudget)
	protected.PUT("/budgets/:id", budgetHandler.UpdateBudget)
	protected.DELETE("/budgets/:id", budgetHandler.DeleteBudget)
	protected.GET("/budgets/:id/summary", budgetHandler.GetBudgetSummary)

	// Budget-scoped category and transaction routes
	protected.POST("/budgets/:id/categories", categoryHandler.CreateCategory)
	protected.GET("/budgets/:id/categories", categoryHandler.GetCategories)
	protected.GET("/budgets/:id/categories/summary", categoryHandler.GetCategorySummaries)
	protected.GET("/budgets/:id/spending-summary", categoryHandler.GetSpendingSummary)
	protected.POST("/budgets/:id/transactions", transactionHandler.CreateTransaction)
	protected.GET("/budgets/:id/transactions", transactionHandler.GetTransactions)
	protected.GET("/budgets/:id/future-expenses", savingsHandler.GetFutureExpenseProgress)

	// Category routes
	protected.GET("/categories/:id", categoryHandler.GetCategory)
	protected.PUT("/categories/:id", categoryHandler.UpdateCategory)
	protected.DELETE("/categories/:id", categoryHandler.DeleteCategory)
	protected.GET("/categories/:id/progress", savingsHandler.GetCategoryProgress)
	protected.GET("/categories/:id/savings-plan", savingsHandler.GetSavingsPlan)

	// Transaction routes
	protected.GET("/transactions/:id", transactionHandler.GetTransaction)
	protected.PUT("/transactions/:id", transactionHandler.UpdateTransaction)
	protected.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)
	protected.POST("/transactions/:id/receipt", transactionHandler.UploadReceipt)
	protected.GET("/transactions/:id/receipt", transactionHandler.GetReceipt)
	protected.DELETE("/transactions/:id/receipt", transactionHandler.DeleteReceipt)

	// Summary routes
	protected.GET("/summaries/budgets", budgetHandler.GetBudgetSummaries)
	protected.GET("/summaries/consistency", budgetHandler.CheckConsistency)

	// Standalone savings-plan estimate
	protected.GET("/savings-plan", savingsHandler.EstimateSavingsPlan)
}
