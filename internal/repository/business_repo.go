package repository

import (
	"context"
	"fmt"

	"github.com/handybob/callops/internal/domain"
	"gorm.io/gorm"
)

// JobRepository handles database operations for jobs.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// GetByID retrieves a job by id
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// CustomerRepository handles database operations for customers.
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByID retrieves a customer by id
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	var customer domain.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}

// QuoteRepository handles database operations for quotes.
type QuoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// GetByID retrieves a quote with its line items
func (r *QuoteRepository) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	var quote domain.Quote
	if err := r.db.WithContext(ctx).Preload("LineItems").Where("id = ?", id).First(&quote).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &quote, nil
}
