package askbob

import (
	"context"

	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/internal/repository"
)

// repositoryStore adapts the repository manager to the dispatcher's
// Store capability.
type repositoryStore struct {
	repos repository.RepositoryManager
}

// NewRepositoryStore exposes the repository manager as a dispatcher Store.
func NewRepositoryStore(repos repository.RepositoryManager) Store {
	return &repositoryStore{repos: repos}
}

func (s *repositoryStore) GetCall(ctx context.Context, id string) (*domain.CallRecord, error) {
	return s.repos.Calls().GetByID(ctx, id)
}

func (s *repositoryStore) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	return s.repos.Jobs().GetByID(ctx, id)
}

func (s *repositoryStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repos.Customers().GetByID(ctx, id)
}

func (s *repositoryStore) GetQuote(ctx context.Context, id string) (*domain.Quote, error) {
	return s.repos.Quotes().GetByID(ctx, id)
}
