package service

import (
	"github.com/centavo/centavo-backend/internal/domain"
)

// WorkspaceService resolves authenticated subjects to workspaces
type WorkspaceService struct {
	workspaceRepo domain.WorkspaceRepository
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(workspaceRepo domain.WorkspaceRepository) *WorkspaceService {
	return &WorkspaceService{workspaceRepo: workspaceRepo}
}

// ResolveWorkspace returns the workspace ID for a JWT subject, provisioning
// a workspace on first contact.
func (s *WorkspaceService) ResolveWorkspace(subject string) (int32, error) {
	workspace, err := s.workspaceRepo.CreateOrGetBySubject(subject)
	if err != nil {
		return 0, err
	}
	return workspace.ID, nil
}

// GetWorkspace retrieves a workspace by ID
func (s *WorkspaceService) GetWorkspace(id int32) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByID(id)
}
