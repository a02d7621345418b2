package domain

import (
	"time"
)

// JobStatus represents the lifecycle state of a job
type JobStatus string

const (
	JobStatusLead       JobStatus = "lead"
	JobStatusQuoted     JobStatus = "quoted"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusDone       JobStatus = "done"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job is a unit of work for a customer (a repair, an install, a visit).
type Job struct {
	ID          string    `json:"id" gorm:"column:id;primaryKey"`
	WorkspaceID string    `json:"workspace_id" gorm:"column:workspace_id;index"`
	CustomerID  string    `json:"customer_id" gorm:"column:customer_id;index"`
	Title       string    `json:"title" gorm:"column:title"`
	Description string    `json:"description" gorm:"column:description"`
	Status      JobStatus `json:"status" gorm:"column:status"`
	Address     string    `json:"address,omitempty" gorm:"column:address"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" gorm:"column:scheduled_at"`
	Notes       string    `json:"notes,omitempty" gorm:"column:notes"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// Customer is a person or business the workspace does work for.
type Customer struct {
	ID          string    `json:"id" gorm:"column:id;primaryKey"`
	WorkspaceID string    `json:"workspace_id" gorm:"column:workspace_id;index"`
	Name        string    `json:"name" gorm:"column:name"`
	Phone       string    `json:"phone,omitempty" gorm:"column:phone"`
	Email       string    `json:"email,omitempty" gorm:"column:email"`
	Address     string    `json:"address,omitempty" gorm:"column:address"`
	Notes       string    `json:"notes,omitempty" gorm:"column:notes"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// QuoteLineItem is a single priced line on a quote.
type QuoteLineItem struct {
	ID          string  `json:"id" gorm:"column:id;primaryKey"`
	QuoteID     string  `json:"quote_id" gorm:"column:quote_id;index"`
	Description string  `json:"description" gorm:"column:description"`
	Quantity    float64 `json:"quantity" gorm:"column:quantity"`
	UnitCents   int64   `json:"unit_cents" gorm:"column:unit_cents"`
}

func (QuoteLineItem) TableName() string {
	return "quote_line_items"
}

// Quote is a priced proposal for a job.
type Quote struct {
	ID          string          `json:"id" gorm:"column:id;primaryKey"`
	WorkspaceID string          `json:"workspace_id" gorm:"column:workspace_id;index"`
	JobID       string          `json:"job_id" gorm:"column:job_id;index"`
	Status      string          `json:"status" gorm:"column:status"` // draft, sent, accepted, declined
	TotalCents  int64           `json:"total_cents" gorm:"column:total_cents"`
	LineItems   []QuoteLineItem `json:"line_items,omitempty" gorm:"foreignKey:QuoteID"`
	CreatedAt   time.Time       `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"column:updated_at"`
}

func (Quote) TableName() string {
	return "quotes"
}
