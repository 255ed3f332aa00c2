package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/centavo/centavo-backend/internal/service"
	"github.com/centavo/centavo-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func newCategoryHandler() (*CategoryHandler, *testutil.MockBudgetRepository, *testutil.MockCategoryRepository, *testutil.MockTransactionRepository) {
	budgetRepo := testutil.NewMockBudgetRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	categoryRepo.TransactionRepo = transactionRepo
	categoryService := service.NewCategoryService(categoryRepo, budgetRepo)
	summaryService := service.NewSummaryService(budgetRepo, categoryRepo, transactionRepo)
	return NewCategoryHandler(categoryService, summaryService), budgetRepo, categoryRepo, transactionRepo
}

func TestCreateCategory_Success(t *testing.T) {
	e := echo.New()
	h, budgetRepo, _, _ := newCategoryHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})

	reqBody := `{"name": "Groceries", "budgetedAmount": "300.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets/1/categories", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.CreateCategory(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var response CategoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Name != "Groceries" {
		t.Errorf("Expected name 'Groceries', got %s", response.Name)
	}
	if response.BudgetedAmount != "300.00" {
		t.Errorf("Expected budgeted amount '300.00', got %s", response.BudgetedAmount)
	}
	if response.TargetDate != nil {
		t.Errorf("Expected no target date, got %v", *response.TargetDate)
	}
}

func TestCreateCategory_FutureExpense(t *testing.T) {
	e := echo.New()
	h, budgetRepo, _, _ := newCategoryHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})

	reqBody := `{"name": "Car Insurance", "budgetedAmount": "0.00", "isFutureExpense": true, "targetDate": "2025-12-01", "targetAmount": "600.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets/1/categories", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.CreateCategory(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var response CategoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !response.IsFutureExpense {
		t.Error("Expected isFutureExpense true")
	}
	if response.TargetDate == nil || *response.TargetDate != "2025-12-01" {
		t.Errorf("Expected target date '2025-12-01', got %v", response.TargetDate)
	}
	if response.TargetAmount == nil || *response.TargetAmount != "600.00" {
		t.Errorf("Expected target amount '600.00', got %v", response.TargetAmount)
	}
}

func TestCreateCategory_FutureExpenseWithoutTargetDate(t *testing.T) {
	e := echo.New()
	h, budgetRepo, _, _ := newCategoryHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})

	reqBody := `{"name": "Car Insurance", "budgetedAmount": "0.00", "isFutureExpense": true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets/1/categories", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.CreateCategory(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "targetDate" {
		t.Errorf("Expected a targetDate field error, got %+v", problem.Errors)
	}
}

func TestCreateCategory_MalformedTargetDate(t *testing.T) {
	e := echo.New()
	h, budgetRepo, _, _ := newCategoryHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})

	reqBody := `{"name": "Car Insurance", "budgetedAmount": "0.00", "isFutureExpense": true, "targetDate": "12/01/2025"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets/1/categories", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.CreateCategory(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Expected a single problem details body, got %q: %v", rec.Body.String(), err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "targetDate" {
		t.Errorf("Expected a targetDate field error, got %+v", problem.Errors)
	}
}

func TestCreateCategory_MalformedBudgetedAmount(t *testing.T) {
	e := echo.New()
	h, budgetRepo, _, _ := newCategoryHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})

	reqBody := `{"name": "Groceries", "budgetedAmount": "three hundred"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets/1/categories", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.CreateCategory(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Expected a single problem details body, got %q: %v", rec.Body.String(), err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "budgetedAmount" {
		t.Errorf("Expected a budgetedAmount field error, got %+v", problem.Errors)
	}
}

func TestCreateCategory_BudgetNotFound(t *testing.T) {
	e := echo.New()
	h, _, _, _ := newCategoryHandler()

	reqBody := `{"name": "Groceries", "budgetedAmount": "300.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets/999/categories", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.CreateCategory(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Expected a single problem details body, got %q: %v", rec.Body.String(), err)
	}
	if problem.Type != ErrorTypeNotFound {
		t.Errorf("Expected type %s, got %s", ErrorTypeNotFound, problem.Type)
	}
}

func TestCreateCategory_MissingWorkspace(t *testing.T) {
	e := echo.New()
	h, _, _, _ := newCategoryHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets/1/categories", strings.NewReader(`{"name": "Groceries", "budgetedAmount": "10.00"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.CreateCategory(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestDeleteCategory_ReportsDetachedTransactions(t *testing.T) {
	e := echo.New()
	h, budgetRepo, categoryRepo, transactionRepo := newCategoryHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})
	categoryRepo.AddCategory(&domain.Category{ID: 1, WorkspaceID: 1, BudgetID: 1, Name: "Groceries"})
	categoryID := int32(1)
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 1, WorkspaceID: 1, BudgetID: 1, CategoryID: &categoryID,
		Description: "Milk", Amount: decimal.RequireFromString("4.50"),
	})
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 2, WorkspaceID: 1, BudgetID: 1, CategoryID: &categoryID,
		Description: "Bread", Amount: decimal.RequireFromString("3.00"),
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/categories/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.DeleteCategory(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response DeleteCategoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.DetachedTransactions != 2 {
		t.Errorf("Expected 2 detached transactions, got %d", response.DetachedTransactions)
	}
}

func TestGetCategory_NotFound(t *testing.T) {
	e := echo.New()
	h, _, _, _ := newCategoryHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories/999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.GetCategory(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetCategorySummaries_ComputesAvailable(t *testing.T) {
	e := echo.New()
	h, budgetRepo, categoryRepo, transactionRepo := newCategoryHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})
	categoryRepo.AddCategory(&domain.Category{
		ID: 1, WorkspaceID: 1, BudgetID: 1, Name: "Groceries",
		BudgetedAmount: decimal.RequireFromString("300.00"),
	})
	categoryID := int32(1)
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 1, WorkspaceID: 1, BudgetID: 1, CategoryID: &categoryID,
		Description: "Market", Amount: decimal.RequireFromString("120.00"),
		Date: time.Now().UTC(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets/1/categories/summary", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.GetCategorySummaries(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response []CategorySummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(response))
	}
	if response[0].Spent != "120.00" {
		t.Errorf("Expected spent '120.00', got %s", response[0].Spent)
	}
	if response[0].Available != "180.00" {
		t.Errorf("Expected available '180.00', got %s", response[0].Available)
	}
}

func TestGetSpendingSummary_SkipsFutureExpenses(t *testing.T) {
	e := echo.New()
	h, budgetRepo, categoryRepo, _ := newCategoryHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})
	categoryRepo.AddCategory(&domain.Category{
		ID: 1, WorkspaceID: 1, BudgetID: 1, Name: "Groceries",
		BudgetedAmount: decimal.RequireFromString("300.00"),
	})
	targetDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	categoryRepo.AddCategory(&domain.Category{
		ID: 2, WorkspaceID: 1, BudgetID: 1, Name: "Car Insurance",
		IsFutureExpense: true, TargetDate: &targetDate,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets/1/spending-summary", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.GetSpendingSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []SpendingSummaryItemResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("Expected 1 spending row, got %d", len(response))
	}
	if response[0].Name != "Groceries" {
		t.Errorf("Expected 'Groceries' row, got %s", response[0].Name)
	}
}
