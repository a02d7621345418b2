package telephony

import (
	"context"
	"fmt"

	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/pkg/logger"
	"go.uber.org/zap"
)

// StatusEvent is a provider status callback for a call.
type StatusEvent struct {
	CallSid      string
	Status       string
	ErrorCode    string
	ErrorMessage string

	// CorrelationID is the internal call id passed back as a query
	// parameter by the call-placing workflow, so the event can be
	// matched before the provider's CallSid is stored.
	CorrelationID string
	WorkspaceID   string
}

// RecordingEvent is a provider recording callback for a call.
type RecordingEvent struct {
	CallSid         string
	RecordingSid    string
	RecordingURL    string
	DurationSeconds int

	CorrelationID string
	WorkspaceID   string
}

// Disposition describes what the reconciler did with an event. Every
// disposition maps to a 200 response; only signature failures are
// allowed to produce a non-2xx, so the provider retries exactly that
// failure class and nothing else.
type Disposition string

const (
	DispositionApplied   Disposition = "applied"
	DispositionDuplicate Disposition = "duplicate"
	DispositionUnmatched Disposition = "unmatched"
)

// CallStore is the store adapter the reconciler consumes. Updates are
// field-disjoint per event type so concurrent status and recording
// callbacks for the same call never overwrite each other.
type CallStore interface {
	GetByID(ctx context.Context, id string) (*domain.CallRecord, error)
	GetByCallSid(ctx context.Context, callSid string) (*domain.CallRecord, error)
	UpdateStatus(ctx context.Context, id, callSid, status, errorCode, errorMessage string) error
	UpdateRecording(ctx context.Context, id, callSid, recordingSid, recordingURL string, durationSeconds int) error
}

// EventPublisher broadcasts call lifecycle transitions so UI layers can
// live-update. Best effort: publish failures are logged, never fatal.
type EventPublisher interface {
	PublishCallEvent(ctx context.Context, workspaceID, callID, kind string) error
}

// Reconciler applies provider callbacks to call records idempotently.
// Stateless per request; all durable state lives in the store.
type Reconciler struct {
	store     CallStore
	publisher EventPublisher
}

// NewReconciler creates a reconciler. The publisher may be nil.
func NewReconciler(store CallStore, publisher EventPublisher) *Reconciler {
	return &Reconciler{store: store, publisher: publisher}
}

// ApplyStatus applies a status callback. The provider is the source of
// truth for its own status, so technical fields are overwritten
// unconditionally (last write wins). An event that matches no record is
// reported as unmatched, not as an error: retries cannot fix it.
func (r *Reconciler) ApplyStatus(ctx context.Context, event StatusEvent) (Disposition, error) {
	call, err := r.lookup(ctx, event.CallSid, event.CorrelationID, event.WorkspaceID)
	if err != nil {
		return "", err
	}
	if call == nil {
		logger.Base().Info("unmatched status callback",
			zap.String("call_sid", event.CallSid),
			zap.String("correlation_id", event.CorrelationID),
			zap.String("status", event.Status))
		return DispositionUnmatched, nil
	}

	if err := r.store.UpdateStatus(ctx, call.ID, event.CallSid, event.Status, event.ErrorCode, event.ErrorMessage); err != nil {
		return "", fmt.Errorf("failed to apply status callback: %w", err)
	}

	logger.Base().Info("applied status callback",
		zap.String("call_id", call.ID),
		zap.String("call_sid", event.CallSid),
		zap.String("status", event.Status))

	r.publish(ctx, call.WorkspaceID, call.ID, "call.status."+event.Status)
	return DispositionApplied, nil
}

// ApplyRecording applies a recording callback. A recording id that is
// already stored on the record is a duplicate delivery: no-op, no side
// effects, the stored fields stay exactly as the first delivery left them.
func (r *Reconciler) ApplyRecording(ctx context.Context, event RecordingEvent) (Disposition, error) {
	call, err := r.lookup(ctx, event.CallSid, event.CorrelationID, event.WorkspaceID)
	if err != nil {
		return "", err
	}
	if call == nil {
		logger.Base().Info("unmatched recording callback",
			zap.String("call_sid", event.CallSid),
			zap.String("correlation_id", event.CorrelationID),
			zap.String("recording_sid", event.RecordingSid))
		return DispositionUnmatched, nil
	}

	if call.RecordingSid == event.RecordingSid && event.RecordingSid != "" {
		logger.Base().Info("duplicate recording callback ignored",
			zap.String("call_id", call.ID),
			zap.String("recording_sid", event.RecordingSid))
		return DispositionDuplicate, nil
	}

	if err := r.store.UpdateRecording(ctx, call.ID, event.CallSid, event.RecordingSid, event.RecordingURL, event.DurationSeconds); err != nil {
		return "", fmt.Errorf("failed to apply recording callback: %w", err)
	}

	logger.Base().Info("applied recording callback",
		zap.String("call_id", call.ID),
		zap.String("recording_sid", event.RecordingSid),
		zap.Int("duration_seconds", event.DurationSeconds))

	r.publish(ctx, call.WorkspaceID, call.ID, "call.recording")
	return DispositionApplied, nil
}

// lookup finds the call by provider CallSid, then by the internal
// correlation id. A workspace hint that contradicts the record's tenant
// makes the event unmatched rather than cross-tenant.
func (r *Reconciler) lookup(ctx context.Context, callSid, correlationID, workspaceID string) (*domain.CallRecord, error) {
	var call *domain.CallRecord
	var err error

	if callSid != "" {
		call, err = r.store.GetByCallSid(ctx, callSid)
		if err != nil {
			return nil, fmt.Errorf("failed to look up call by sid: %w", err)
		}
	}
	if call == nil && correlationID != "" {
		call, err = r.store.GetByID(ctx, correlationID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up call by correlation id: %w", err)
		}
	}
	if call == nil {
		return nil, nil
	}
	if workspaceID != "" && call.WorkspaceID != workspaceID {
		logger.Base().Warn("callback workspace does not match call record, treating as unmatched",
			zap.String("call_id", call.ID),
			zap.String("callback_workspace", workspaceID))
		return nil, nil
	}
	return call, nil
}

func (r *Reconciler) publish(ctx context.Context, workspaceID, callID, kind string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishCallEvent(ctx, workspaceID, callID, kind); err != nil {
		logger.Base().Warn("failed to publish call event",
			zap.String("call_id", callID),
			zap.String("kind", kind),
			zap.Error(err))
	}
}
