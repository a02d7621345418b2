package call

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/internal/telephony"
	"github.com/handybob/callops/pkg/logger"
)

// Sentinel errors callers map to user-visible behavior.
var (
	// ErrNotConfigured means the provider credentials are missing.
	ErrNotConfigured = errors.New("outbound calling is not configured")
	// ErrLinkageNotFound means a referenced job or customer does not exist.
	ErrLinkageNotFound = errors.New("linked record not found")
	// ErrLinkageForbidden means a referenced job or customer belongs to
	// another workspace. Never silently rescoped or dropped.
	ErrLinkageForbidden = errors.New("linked record belongs to another workspace")
)

// Store is the persistence capability the call service consumes.
type Store interface {
	CreateCall(ctx context.Context, call *domain.CallRecord) error
	SetCallSid(ctx context.Context, id, callSid string) error
	UpdateCallStatus(ctx context.Context, id, callSid, status, errorCode, errorMessage string) error
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
}

// Config holds what the call service needs to place calls through the
// provider and route its callbacks home.
type Config struct {
	AccountSID    string
	AuthToken     string
	FromNumber    string
	PublicBaseURL string
}

// Service places outbound calls. The call record is created before the
// provider request, so every later callback has a correlation id to land
// on even if the provider never echoes our CallSid.
type Service struct {
	client        *twilio.RestClient
	store         Store
	publisher     telephony.EventPublisher
	fromNumber    string
	publicBaseURL string
	enabled       bool
}

// NewService creates a new call service. With empty credentials the
// service is disabled and placement returns an error, but the rest of
// the application keeps running.
func NewService(cfg Config, store Store, publisher telephony.EventPublisher) *Service {
	s := &Service{
		store:         store,
		publisher:     publisher,
		fromNumber:    cfg.FromNumber,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		logger.Base().Warn("Twilio credentials not provided, outbound calling disabled")
		return s
	}
	s.client = twilio.NewRestClientWithParams(twilio.ClientParams{Username: cfg.AccountSID, Password: cfg.AuthToken})
	s.enabled = true
	return s
}

// IsEnabled returns whether outbound calling is configured.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// PlaceCallInput describes one outbound call to place.
type PlaceCallInput struct {
	WorkspaceID string
	ToPhone     string
	JobID       string
	CustomerID  string

	// Plan is the speech plan the voice script endpoint will render.
	// A zero plan falls back to the default plan.
	Plan telephony.SpeechPlan
}

// PlaceCall creates the call record, stores the speech plan, and asks
// the provider to dial. Returns the created record with its CallSid set
// when the provider accepted the call.
func (s *Service) PlaceCall(ctx context.Context, input PlaceCallInput) (*domain.CallRecord, error) {
	if !s.enabled {
		return nil, ErrNotConfigured
	}
	if input.WorkspaceID == "" || input.ToPhone == "" {
		return nil, fmt.Errorf("workspace id and destination number are required")
	}
	if err := s.verifyLinkage(ctx, input); err != nil {
		return nil, err
	}

	plan := input.Plan
	if plan.ScriptText == "" && plan.Voice == "" {
		plan = telephony.DefaultSpeechPlan()
	}
	encodedPlan, err := telephony.EncodeSpeechPlan(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to encode speech plan: %w", err)
	}

	record := &domain.CallRecord{
		WorkspaceID:    input.WorkspaceID,
		Direction:      domain.CallDirectionOutbound,
		FromPhone:      s.fromNumber,
		ToPhone:        input.ToPhone,
		JobID:          input.JobID,
		CustomerID:     input.CustomerID,
		ProviderStatus: domain.CallStatusQueued,
		Summary:        encodedPlan,
	}
	if err := s.store.CreateCall(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create call record: %w", err)
	}

	params := &api.CreateCallParams{}
	params.SetTo(input.ToPhone)
	params.SetFrom(s.fromNumber)
	params.SetUrl(s.callbackURL("/twilio/voice/script", record))
	params.SetMethod("POST")
	params.SetStatusCallback(s.callbackURL("/twilio/voice/status", record))
	params.SetStatusCallbackMethod("POST")
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	params.SetRecord(true)
	params.SetRecordingStatusCallback(s.callbackURL("/twilio/voice/recording", record))
	params.SetRecordingStatusCallbackMethod("POST")

	resp, err := s.client.Api.CreateCall(params)
	if err != nil {
		// The record stays behind with its queued status so the failed
		// attempt is visible in call history.
		logger.Base().Error("provider rejected outbound call",
			zap.String("call_id", record.ID),
			zap.String("to", input.ToPhone),
			zap.Error(err))
		markErr := s.store.UpdateCallStatus(ctx, record.ID, "", domain.CallStatusFailed, "", "provider rejected call request")
		if markErr != nil {
			logger.Base().Error("failed to mark call as failed", zap.Error(markErr))
		}
		return nil, fmt.Errorf("failed to place call: %w", err)
	}

	if resp.Sid != nil && *resp.Sid != "" {
		record.CallSid = *resp.Sid
		if err := s.store.SetCallSid(ctx, record.ID, *resp.Sid); err != nil {
			return nil, fmt.Errorf("failed to store call sid: %w", err)
		}
	}
	if resp.Status != nil {
		record.ProviderStatus = *resp.Status
	}

	logger.Base().Info("outbound call placed",
		zap.String("call_id", record.ID),
		zap.String("call_sid", record.CallSid),
		zap.String("workspace_id", record.WorkspaceID))

	if s.publisher != nil {
		if err := s.publisher.PublishCallEvent(ctx, record.WorkspaceID, record.ID, "call.placed"); err != nil {
			logger.Base().Warn("failed to publish call placed event", zap.Error(err))
		}
	}

	return record, nil
}

// verifyLinkage checks that the optional job and customer references
// resolve within the call's workspace before anything is persisted.
func (s *Service) verifyLinkage(ctx context.Context, input PlaceCallInput) error {
	if input.JobID != "" {
		job, err := s.store.GetJob(ctx, input.JobID)
		if err != nil {
			return fmt.Errorf("failed to load job: %w", err)
		}
		if job == nil {
			return fmt.Errorf("job: %w", ErrLinkageNotFound)
		}
		if err := verifyOwner(job, input.WorkspaceID, "job"); err != nil {
			return err
		}
	}
	if input.CustomerID != "" {
		customer, err := s.store.GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to load customer: %w", err)
		}
		if customer == nil {
			return fmt.Errorf("customer: %w", ErrLinkageNotFound)
		}
		if err := verifyOwner(customer, input.WorkspaceID, "customer"); err != nil {
			return err
		}
	}
	return nil
}

func verifyOwner(entity domain.TenantOwned, workspaceID, what string) error {
	if entity.OwnerWorkspaceID() != workspaceID {
		logger.Base().Warn("call linkage tenant mismatch",
			zap.String("entity", what),
			zap.String("workspace_id", workspaceID))
		return fmt.Errorf("%s: %w", what, ErrLinkageForbidden)
	}
	return nil
}

// callbackURL builds a webhook URL carrying the correlation id and
// workspace as query parameters. Query parameters participate in the
// provider's signature, so the same values must survive proxying.
func (s *Service) callbackURL(path string, record *domain.CallRecord) string {
	query := url.Values{}
	query.Set("call", record.ID)
	query.Set("workspace", record.WorkspaceID)
	return s.publicBaseURL + path + "?" + query.Encode()
}
