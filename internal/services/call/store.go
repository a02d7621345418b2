package call

import (
	"context"

	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/internal/repository"
)

// repositoryStore adapts the repository manager to the call service's
// Store capability.
type repositoryStore struct {
	repos repository.RepositoryManager
}

// NewRepositoryStore exposes the repository manager as a call service Store.
func NewRepositoryStore(repos repository.RepositoryManager) Store {
	return &repositoryStore{repos: repos}
}

func (s *repositoryStore) CreateCall(ctx context.Context, call *domain.CallRecord) error {
	return s.repos.Calls().Create(ctx, call)
}

func (s *repositoryStore) SetCallSid(ctx context.Context, id, callSid string) error {
	return s.repos.Calls().SetCallSid(ctx, id, callSid)
}

func (s *repositoryStore) UpdateCallStatus(ctx context.Context, id, callSid, status, errorCode, errorMessage string) error {
	return s.repos.Calls().UpdateStatus(ctx, id, callSid, status, errorCode, errorMessage)
}

func (s *repositoryStore) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	return s.repos.Jobs().GetByID(ctx, id)
}

func (s *repositoryStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repos.Customers().GetByID(ctx, id)
}
