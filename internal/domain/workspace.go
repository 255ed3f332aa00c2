package domain

import "time"

// Workspace is the ownership boundary for budgets, categories and
// transactions. One workspace is provisioned per authenticated subject.
type Workspace struct {
	ID        int32     `json:"id"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"createdAt"`
}

type WorkspaceRepository interface {
	// CreateOrGetBySubject returns the workspace for a JWT subject,
	// creating it on first sight.
	CreateOrGetBySubject(subject string) (*Workspace, error)
	GetByID(id int32) (*Workspace, error)
}
