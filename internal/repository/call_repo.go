package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/handybob/callops/internal/domain"
	"gorm.io/gorm"
)

// CallRecordRepository handles database operations for call records.
type CallRecordRepository struct {
	db *gorm.DB
}

// NewCallRecordRepository creates a new call record repository
func NewCallRecordRepository(db *gorm.DB) *CallRecordRepository {
	return &CallRecordRepository{db: db}
}

// Create creates a new call record
func (r *CallRecordRepository) Create(ctx context.Context, call *domain.CallRecord) error {
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.WorkspaceID == "" {
		return fmt.Errorf("call record requires a workspace id")
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now()
	}
	call.UpdatedAt = time.Now()

	if err := r.db.WithContext(ctx).Create(call).Error; err != nil {
		return fmt.Errorf("failed to create call record: %w", err)
	}
	return nil
}

// GetByID retrieves a call record by internal id
func (r *CallRecordRepository) GetByID(ctx context.Context, id string) (*domain.CallRecord, error) {
	var call domain.CallRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get call record: %w", err)
	}
	return &call, nil
}

// GetByCallSid retrieves a call record by the provider's call id
func (r *CallRecordRepository) GetByCallSid(ctx context.Context, callSid string) (*domain.CallRecord, error) {
	if callSid == "" {
		return nil, nil
	}
	var call domain.CallRecord
	if err := r.db.WithContext(ctx).Where("call_sid = ?", callSid).First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get call record by sid: %w", err)
	}
	return &call, nil
}

// ListByWorkspace retrieves the most recent call records for a workspace
func (r *CallRecordRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]*domain.CallRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var calls []*domain.CallRecord
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}
	return calls, nil
}

// UpdateStatus overwrites the technical status fields of a call record.
// Column set is disjoint from UpdateRecording so racing callbacks for
// the same call never clobber each other's fields.
func (r *CallRecordRepository) UpdateStatus(ctx context.Context, id, callSid, status, errorCode, errorMessage string) error {
	updates := map[string]interface{}{
		"provider_status": status,
		"error_code":      errorCode,
		"error_message":   errorMessage,
		"updated_at":      time.Now(),
	}
	if callSid != "" {
		updates["call_sid"] = callSid
	}
	if err := r.db.WithContext(ctx).Model(&domain.CallRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update call status: %w", err)
	}
	return nil
}

// UpdateRecording sets the recording fields of a call record.
func (r *CallRecordRepository) UpdateRecording(ctx context.Context, id, callSid, recordingSid, recordingURL string, durationSeconds int) error {
	updates := map[string]interface{}{
		"recording_sid":      recordingSid,
		"recording_url":      recordingURL,
		"recording_duration": durationSeconds,
		"updated_at":         time.Now(),
	}
	if callSid != "" {
		updates["call_sid"] = callSid
	}
	if err := r.db.WithContext(ctx).Model(&domain.CallRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update call recording: %w", err)
	}
	return nil
}

// RecordOutcome writes the business outcome fields. Callers are expected
// to have passed the readiness gate; the store only persists.
func (r *CallRecordRepository) RecordOutcome(ctx context.Context, id string, reached *bool, code domain.OutcomeCode, notes string) error {
	updates := map[string]interface{}{
		"reached_customer":    reached,
		"outcome_code":        code,
		"outcome_notes":       notes,
		"outcome_recorded_at": time.Now(),
		"updated_at":          time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&domain.CallRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to record call outcome: %w", err)
	}
	return nil
}

// UpdateSummary replaces the free-text summary column (which may carry
// an encoded speech plan).
func (r *CallRecordRepository) UpdateSummary(ctx context.Context, id, summary string) error {
	updates := map[string]interface{}{
		"summary":    summary,
		"updated_at": time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&domain.CallRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update call summary: %w", err)
	}
	return nil
}

// SetCallSid stores the provider call id returned by the create-call API
func (r *CallRecordRepository) SetCallSid(ctx context.Context, id, callSid string) error {
	updates := map[string]interface{}{
		"call_sid":   callSid,
		"updated_at": time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&domain.CallRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to set call sid: %w", err)
	}
	return nil
}
