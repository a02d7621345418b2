package repository

import (
	"context"

	"gorm.io/gorm"
)

// RepositoryManager combines all repositories behind one capability.
type RepositoryManager interface {
	Calls() *CallRecordRepository
	Jobs() *JobRepository
	Customers() *CustomerRepository
	Quotes() *QuoteRepository

	// Transaction support
	WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connection
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM
type GormRepositoryManager struct {
	db           *gorm.DB
	callRepo     *CallRecordRepository
	jobRepo      *JobRepository
	customerRepo *CustomerRepository
	quoteRepo    *QuoteRepository
}

// NewGormRepositoryManager creates a new GORM repository manager
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:           db,
		callRepo:     NewCallRecordRepository(db),
		jobRepo:      NewJobRepository(db),
		customerRepo: NewCustomerRepository(db),
		quoteRepo:    NewQuoteRepository(db),
	}
}

// Calls returns the call record repository
func (m *GormRepositoryManager) Calls() *CallRecordRepository {
	return m.callRepo
}

// Jobs returns the job repository
func (m *GormRepositoryManager) Jobs() *JobRepository {
	return m.jobRepo
}

// Customers returns the customer repository
func (m *GormRepositoryManager) Customers() *CustomerRepository {
	return m.customerRepo
}

// Quotes returns the quote repository
func (m *GormRepositoryManager) Quotes() *QuoteRepository {
	return m.quoteRepo
}

// WithTx executes a function within a database transaction
func (m *GormRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGormRepositoryManager(tx))
	})
}

// Ping checks the database connection
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
