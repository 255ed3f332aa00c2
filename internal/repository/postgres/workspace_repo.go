package postgres

import (
	"context"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkspaceRepository implements domain.WorkspaceRepository using PostgreSQL
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

// CreateOrGetBySubject returns the workspace for a subject, creating it on
// first sight. The upsert keeps the operation race-free for concurrent
// first requests from the same subject.
func (r *WorkspaceRepository) CreateOrGetBySubject(subject string) (*domain.Workspace, error) {
	ctx := context.Background()

	var ws domain.Workspace
	err := r.pool.QueryRow(ctx, `
		INSERT INTO workspaces (subject)
		VALUES ($1)
		ON CONFLICT (subject) DO UPDATE SET subject = EXCLUDED.subject
		RETURNING id, subject, created_at`,
		subject,
	).Scan(&ws.ID, &ws.Subject, &ws.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// GetByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	ctx := context.Background()

	var ws domain.Workspace
	err := r.pool.QueryRow(ctx, `
		SELECT id, subject, created_at FROM workspaces WHERE id = $1`,
		id,
	).Scan(&ws.ID, &ws.Subject, &ws.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &ws, nil
}
