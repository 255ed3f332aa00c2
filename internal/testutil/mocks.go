// Package testutil provides in-memory mock repositories for service and
// handler tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces map[int32]*domain.Workspace
	BySubject  map[string]*domain.Workspace
	NextID     int32
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces: make(map[int32]*domain.Workspace),
		BySubject:  make(map[string]*domain.Workspace),
		NextID:     1,
	}
}

// CreateOrGetBySubject returns the workspace for a subject, creating it on first sight
func (m *MockWorkspaceRepository) CreateOrGetBySubject(subject string) (*domain.Workspace, error) {
	if ws, ok := m.BySubject[subject]; ok {
		return ws, nil
	}
	ws := &domain.Workspace{
		ID:        m.NextID,
		Subject:   subject,
		CreatedAt: time.Now(),
	}
	m.NextID++
	m.Workspaces[ws.ID] = ws
	m.BySubject[subject] = ws
	return ws, nil
}

// GetByID retrieves a workspace by ID
func (m *MockWorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	if ws, ok := m.Workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// MockBudgetRepository is a mock implementation of domain.BudgetRepository
type MockBudgetRepository struct {
	Budgets map[int32]*domain.Budget
	NextID  int32

	// Optional links used by CountDependents; nil links count as zero.
	CategoryRepo    *MockCategoryRepository
	TransactionRepo *MockTransactionRepository
}

// NewMockBudgetRepository creates a new MockBudgetRepository
func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		Budgets: make(map[int32]*domain.Budget),
		NextID:  1,
	}
}

// Create creates a new budget
func (m *MockBudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	b := *budget
	b.ID = m.NextID
	m.NextID++
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	m.Budgets[b.ID] = &b
	return &b, nil
}

// GetByID retrieves a budget scoped to a workspace
func (m *MockBudgetRepository) GetByID(workspaceID int32, id int32) (*domain.Budget, error) {
	if b, ok := m.Budgets[id]; ok && b.WorkspaceID == workspaceID {
		return b, nil
	}
	return nil, domain.ErrBudgetNotFound
}

// GetAllByWorkspace retrieves all budgets in a workspace ordered by ID
func (m *MockBudgetRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Budget, error) {
	var budgets []*domain.Budget
	for _, b := range m.Budgets {
		if b.WorkspaceID == workspaceID {
			budgets = append(budgets, b)
		}
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].ID < budgets[j].ID })
	return budgets, nil
}

// Update renames a budget
func (m *MockBudgetRepository) Update(workspaceID int32, id int32, name string) (*domain.Budget, error) {
	b, err := m.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	b.Name = name
	b.UpdatedAt = time.Now()
	return b, nil
}

// Delete removes a budget
func (m *MockBudgetRepository) Delete(workspaceID int32, id int32) error {
	if _, err := m.GetByID(workspaceID, id); err != nil {
		return err
	}
	delete(m.Budgets, id)
	return nil
}

// CountDependents counts categories and transactions referencing the budget
func (m *MockBudgetRepository) CountDependents(workspaceID int32, id int32) (int64, int64, error) {
	if _, err := m.GetByID(workspaceID, id); err != nil {
		return 0, 0, err
	}
	var categories, transactions int64
	if m.CategoryRepo != nil {
		for _, c := range m.CategoryRepo.Categories {
			if c.WorkspaceID == workspaceID && c.BudgetID == id {
				categories++
			}
		}
	}
	if m.TransactionRepo != nil {
		for _, t := range m.TransactionRepo.Transactions {
			if t.WorkspaceID == workspaceID && t.BudgetID == id {
				transactions++
			}
		}
	}
	return categories, transactions, nil
}

// AddBudget adds a budget to the mock repository (helper for tests)
func (m *MockBudgetRepository) AddBudget(budget *domain.Budget) {
	m.Budgets[budget.ID] = budget
	if budget.ID >= m.NextID {
		m.NextID = budget.ID + 1
	}
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[int32]*domain.Category
	NextID     int32

	// Optional link used by DeleteAndDetach to clear transaction references.
	TransactionRepo *MockTransactionRepository
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[int32]*domain.Category),
		NextID:     1,
	}
}

// Create creates a new category
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	c := *category
	c.ID = m.NextID
	m.NextID++
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.Categories[c.ID] = &c
	return &c, nil
}

// GetByID retrieves a category scoped to a workspace
func (m *MockCategoryRepository) GetByID(workspaceID int32, id int32) (*domain.Category, error) {
	if c, ok := m.Categories[id]; ok && c.WorkspaceID == workspaceID {
		return c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// GetAllByBudget retrieves all categories of a budget ordered by ID
func (m *MockCategoryRepository) GetAllByBudget(workspaceID int32, budgetID int32) ([]*domain.Category, error) {
	var categories []*domain.Category
	for _, c := range m.Categories {
		if c.WorkspaceID == workspaceID && c.BudgetID == budgetID {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

// Update updates an existing category
func (m *MockCategoryRepository) Update(workspaceID int32, id int32, data *domain.UpdateCategoryData) (*domain.Category, error) {
	c, err := m.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	c.Name = data.Name
	c.BudgetedAmount = data.BudgetedAmount
	c.IsFutureExpense = data.IsFutureExpense
	c.IsTransfer = data.IsTransfer
	c.TargetDate = data.TargetDate
	c.TargetAmount = data.TargetAmount
	c.UpdatedAt = time.Now()
	return c, nil
}

// DeleteAndDetach deletes a category and clears it from referencing transactions
func (m *MockCategoryRepository) DeleteAndDetach(workspaceID int32, id int32) (int64, error) {
	if _, err := m.GetByID(workspaceID, id); err != nil {
		return 0, err
	}
	var detached int64
	if m.TransactionRepo != nil {
		for _, t := range m.TransactionRepo.Transactions {
			if t.WorkspaceID == workspaceID && t.CategoryID != nil && *t.CategoryID == id {
				t.CategoryID = nil
				detached++
			}
		}
	}
	delete(m.Categories, id)
	return detached, nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.Categories[category.ID] = category
	if category.ID >= m.NextID {
		m.NextID = category.ID + 1
	}
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	NextID       int32
	ApplyFn      func(workspaceID int32, change *domain.LedgerChange) ([]*domain.Transaction, error)

	// Optional link; when set, Apply adjusts cached budget balances the way
	// the real repository does inside its database transaction.
	BudgetRepo *MockBudgetRepository
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		NextID:       1,
	}
}

// Apply executes a LedgerChange against the in-memory state
func (m *MockTransactionRepository) Apply(workspaceID int32, change *domain.LedgerChange) ([]*domain.Transaction, error) {
	if m.ApplyFn != nil {
		return m.ApplyFn(workspaceID, change)
	}

	created := make([]*domain.Transaction, 0, len(change.Creates))
	for _, tx := range change.Creates {
		t := *tx
		t.ID = m.NextID
		m.NextID++
		t.WorkspaceID = workspaceID
		t.CreatedAt = time.Now()
		m.Transactions[t.ID] = &t
		created = append(created, &t)
	}

	for _, upd := range change.Updates {
		t, ok := m.Transactions[upd.ID]
		if !ok || t.WorkspaceID != workspaceID {
			return nil, domain.ErrTransactionNotFound
		}
		t.Description = upd.Description
		t.Amount = upd.Amount
		t.Date = upd.Date
		t.CategoryID = upd.CategoryID
		t.IsIncome = upd.IsIncome
		t.IsTransfer = upd.IsTransfer
		t.TransferToBudgetID = upd.TransferToBudgetID
		t.TransferPairID = upd.TransferPairID
	}

	for _, id := range change.Deletes {
		t, ok := m.Transactions[id]
		if !ok || t.WorkspaceID != workspaceID {
			return nil, domain.ErrTransactionNotFound
		}
		delete(m.Transactions, id)
	}

	for _, delta := range change.BalanceDeltas {
		if m.BudgetRepo == nil {
			continue
		}
		b, err := m.BudgetRepo.GetByID(workspaceID, delta.BudgetID)
		if err != nil {
			return nil, err
		}
		b.Balance = b.Balance.Add(delta.Delta)
		b.UpdatedAt = time.Now()
	}

	return created, nil
}

// GetByID retrieves a transaction scoped to a workspace
func (m *MockTransactionRepository) GetByID(workspaceID int32, id int32) (*domain.Transaction, error) {
	if t, ok := m.Transactions[id]; ok && t.WorkspaceID == workspaceID {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// GetMirror returns the other leg of a transfer pair
func (m *MockTransactionRepository) GetMirror(workspaceID int32, pairID uuid.UUID, sourceID int32) (*domain.Transaction, error) {
	for _, t := range m.Transactions {
		if t.WorkspaceID == workspaceID && t.ID != sourceID && t.TransferPairID != nil && *t.TransferPairID == pairID {
			return t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// GetByBudget retrieves a filtered, paginated page of a budget's transactions
func (m *MockTransactionRepository) GetByBudget(workspaceID int32, budgetID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	var matched []*domain.Transaction
	for _, t := range m.Transactions {
		if t.WorkspaceID != workspaceID || t.BudgetID != budgetID {
			continue
		}
		if filters != nil {
			if filters.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filters.CategoryID) {
				continue
			}
			if filters.StartDate != nil && t.Date.Before(*filters.StartDate) {
				continue
			}
			if filters.EndDate != nil && t.Date.After(*filters.EndDate) {
				continue
			}
			if filters.IsIncome != nil && t.IsIncome != *filters.IsIncome {
				continue
			}
		}
		matched = append(matched, t)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID > matched[j].ID
	})

	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)
	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
		}
		if pageSize > domain.MaxPageSize {
			pageSize = domain.MaxPageSize
		}
	}

	totalItems := int64(len(matched))
	totalPages := int32((totalItems + int64(pageSize) - 1) / int64(pageSize))

	start := (page - 1) * pageSize
	if start > int32(len(matched)) {
		start = int32(len(matched))
	}
	end := start + pageSize
	if end > int32(len(matched)) {
		end = int32(len(matched))
	}

	return &domain.PaginatedTransactions{
		Data:       matched[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// GetByCategory retrieves all transactions assigned to a category
func (m *MockTransactionRepository) GetByCategory(workspaceID int32, categoryID int32) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	for _, t := range m.Transactions {
		if t.WorkspaceID == workspaceID && t.CategoryID != nil && *t.CategoryID == categoryID {
			transactions = append(transactions, t)
		}
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].ID < transactions[j].ID })
	return transactions, nil
}

// SumsByBudget aggregates income and expense totals per budget
func (m *MockTransactionRepository) SumsByBudget(workspaceID int32) ([]*domain.BudgetTransactionSums, error) {
	byBudget := make(map[int32]*domain.BudgetTransactionSums)
	for _, t := range m.Transactions {
		if t.WorkspaceID != workspaceID {
			continue
		}
		sums, ok := byBudget[t.BudgetID]
		if !ok {
			sums = &domain.BudgetTransactionSums{
				BudgetID:    t.BudgetID,
				SumIncome:   decimal.Zero,
				SumExpenses: decimal.Zero,
			}
			byBudget[t.BudgetID] = sums
		}
		if t.IsIncome {
			sums.SumIncome = sums.SumIncome.Add(t.Amount)
		} else {
			sums.SumExpenses = sums.SumExpenses.Add(t.Amount)
		}
	}

	result := make([]*domain.BudgetTransactionSums, 0, len(byBudget))
	for _, sums := range byBudget {
		result = append(result, sums)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BudgetID < result[j].BudgetID })
	return result, nil
}

// SetReceiptPath updates the receipt path of a transaction
func (m *MockTransactionRepository) SetReceiptPath(workspaceID int32, id int32, path *string) (*domain.Transaction, error) {
	t, err := m.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	t.ReceiptPath = path
	return t, nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	m.Transactions[transaction.ID] = transaction
	if transaction.ID >= m.NextID {
		m.NextID = transaction.ID + 1
	}
}

// MockReceiptRepository is an in-memory mock of the receipt object store
type MockReceiptRepository struct {
	Objects   map[string][]byte
	UploadFn  func(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	DeleteFn  func(ctx context.Context, objectPath string) error
	PresignFn func(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// NewMockReceiptRepository creates a new MockReceiptRepository
func NewMockReceiptRepository() *MockReceiptRepository {
	return &MockReceiptRepository{
		Objects: make(map[string][]byte),
	}
}

// Upload stores the object in memory
func (m *MockReceiptRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, objectPath, data, contentType, size)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	m.Objects[objectPath] = buf.Bytes()
	return objectPath, nil
}

// Delete removes the object
func (m *MockReceiptRepository) Delete(ctx context.Context, objectPath string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, objectPath)
	}
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a deterministic fake URL for the object
func (m *MockReceiptRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	if m.PresignFn != nil {
		return m.PresignFn(ctx, objectPath, expiry)
	}
	if _, ok := m.Objects[objectPath]; !ok {
		return "", fmt.Errorf("object not found: %s", objectPath)
	}
	return "https://receipts.test/" + objectPath, nil
}
