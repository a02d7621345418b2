package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/jinzhu/copier"
	"golang.org/x/time/rate"

	"github.com/handybob/callops/internal/askbob"
	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/internal/telephony"
	"github.com/handybob/callops/pkg/logger"
	"go.uber.org/zap"
)

// taskRequest is the wire shape of an AskBob task. Workspace and user
// come from the session token, never from this body.
type taskRequest struct {
	Kind              string `json:"kind"`
	JobID             string `json:"jobId,omitempty"`
	CustomerID        string `json:"customerId,omitempty"`
	QuoteID           string `json:"quoteId,omitempty"`
	CallID            string `json:"callId,omitempty"`
	Goal              string `json:"goal,omitempty"`
	TranscriptSnippet string `json:"transcriptSnippet,omitempty"`
	Question          string `json:"question,omitempty"`
}

type taskResponse struct {
	Kind          string      `json:"kind"`
	LatencyMillis int64       `json:"latencyMillis"`
	Result        interface{} `json:"result"`
}

// CallActions is the slice of the call store the AskBob surface needs:
// readiness lookups and persistence of call-affecting task results.
type CallActions interface {
	GetByID(ctx context.Context, id string) (*domain.CallRecord, error)
	RecordOutcome(ctx context.Context, id string, reached *bool, code domain.OutcomeCode, notes string) error
	UpdateSummary(ctx context.Context, id, summary string) error
}

// AskBobHandler exposes the AI task dispatcher over HTTP and owns the
// side effects a successful task implies (persisting outcomes, storing
// generated speech plans).
type AskBobHandler struct {
	dispatcher *askbob.Dispatcher
	calls      CallActions

	ratePerMinute int
	mu            sync.Mutex
	limiters      map[string]*rate.Limiter
}

// NewAskBobHandler creates a new AskBob handler
func NewAskBobHandler(dispatcher *askbob.Dispatcher, calls CallActions, ratePerMinute int) *AskBobHandler {
	if ratePerMinute <= 0 {
		ratePerMinute = 20
	}
	return &AskBobHandler{
		dispatcher:    dispatcher,
		calls:         calls,
		ratePerMinute: ratePerMinute,
		limiters:      make(map[string]*rate.Limiter),
	}
}

// SetupAskBobRoutes registers the task endpoints. The caller is expected
// to wrap the router with authentication.
func (h *AskBobHandler) SetupAskBobRoutes(router *mux.Router) {
	router.HandleFunc("/tasks", h.HandleRunTask).Methods("POST")
	router.HandleFunc("/calls/{id}/readiness", h.HandleCallReadiness).Methods("GET")

	logger.Base().Info("AskBob routes registered")
}

// limiter returns the per-workspace rate limiter, creating it on first
// use. Burst equals the per-minute budget so a quiet workspace can spend
// its whole minute at once.
func (h *AskBobHandler) limiter(workspaceID string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	lim, ok := h.limiters[workspaceID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(h.ratePerMinute)/60.0), h.ratePerMinute)
		h.limiters[workspaceID] = lim
	}
	return lim
}

// HandleRunTask runs one AskBob task and persists its side effects.
// POST /v1/askbob/tasks
func (h *AskBobHandler) HandleRunTask(w http.ResponseWriter, r *http.Request) {
	auth, ok := AuthFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if !h.limiter(auth.WorkspaceID).Allow() {
		writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var task askbob.Task
	if err := copier.Copy(&task, &req); err != nil {
		logger.Base().Error("failed to map task request", zap.Error(err))
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	task.Kind = askbob.TaskKind(req.Kind)
	task.Context = askbob.TaskContext{
		WorkspaceID: auth.WorkspaceID,
		UserID:      auth.UserID,
		JobID:       req.JobID,
		CustomerID:  req.CustomerID,
		QuoteID:     req.QuoteID,
	}

	if !h.checkReadiness(w, r, task) {
		return
	}

	result, err := h.dispatcher.Run(r.Context(), auth, task)
	if err != nil {
		h.writeTaskError(w, task, err)
		return
	}

	if err := h.persistSideEffects(r, auth, task, result); err != nil {
		logger.Base().Error("failed to persist task side effects",
			zap.String("kind", string(task.Kind)),
			zap.String("call_id", task.CallID),
			zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(taskResponse{
		Kind:          string(result.Kind),
		LatencyMillis: result.LatencyMillis,
		Result:        result.Payload,
	})
}

// checkReadiness enforces the call readiness gates for the call-scoped
// variants before any model call is made. Writes a 409 with reason tags
// and returns false when the call is not ready.
func (h *AskBobHandler) checkReadiness(w http.ResponseWriter, r *http.Request, task askbob.Task) bool {
	switch task.Kind {
	case askbob.TaskCallEnrichment, askbob.TaskLiveGuidance, askbob.TaskFollowUpDraft:
	default:
		return true
	}

	if task.CallID == "" {
		// The dispatcher reports the missing reference as invalid_task.
		return true
	}

	call, err := h.calls.GetByID(r.Context(), task.CallID)
	if err != nil {
		logger.Base().Error("failed to load call for readiness check", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return false
	}
	if call != nil && call.WorkspaceID != task.Context.WorkspaceID {
		// A foreign-workspace call must be indistinguishable from a
		// missing one; the gate reasons would otherwise reveal another
		// tenant's call state.
		call = nil
	}

	var readiness telephony.Readiness
	switch task.Kind {
	case askbob.TaskCallEnrichment:
		readiness = telephony.ReadyForEnrichment(call)
	case askbob.TaskLiveGuidance:
		readiness = telephony.ReadyForLiveGuidance(call)
	case askbob.TaskFollowUpDraft:
		readiness = telephony.ReadyForFollowUpDraft(call)
	}
	if !readiness.Ready {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   "Call not ready for this task",
			"reasons": readiness.Reasons,
		})
		return false
	}
	return true
}

// persistSideEffects applies the durable effects of a successful task.
func (h *AskBobHandler) persistSideEffects(r *http.Request, auth askbob.AuthContext, task askbob.Task, result *askbob.TaskResult) error {
	switch payload := result.Payload.(type) {
	case *askbob.CallEnrichmentResult:
		reached := payload.ReachedCustomer
		if err := h.calls.RecordOutcome(r.Context(), task.CallID, &reached, payload.OutcomeCode, payload.OutcomeNotes); err != nil {
			return err
		}
		logger.Base().Info("call enrichment recorded",
			zap.String("workspace_id", auth.WorkspaceID),
			zap.String("call_id", task.CallID),
			zap.String("outcome_code", string(payload.OutcomeCode)))

	case *askbob.CallScriptResult:
		if task.CallID == "" {
			return nil
		}
		plan := telephony.SpeechPlan{
			Voice:          payload.Voice,
			GreetingStyle:  payload.GreetingStyle,
			AllowVoicemail: payload.AllowVoicemail,
			ScriptText:     payload.ScriptText,
		}
		encoded, err := telephony.EncodeSpeechPlan(plan)
		if err != nil {
			return err
		}
		if err := h.calls.UpdateSummary(r.Context(), task.CallID, encoded); err != nil {
			return err
		}
	}
	return nil
}

// writeTaskError maps dispatcher error codes onto HTTP statuses.
func (h *AskBobHandler) writeTaskError(w http.ResponseWriter, task askbob.Task, err error) {
	logger.Base().Warn("askbob task failed",
		zap.String("kind", string(task.Kind)),
		zap.String("code", string(askbob.CodeOf(err))),
		zap.Error(err))

	switch askbob.CodeOf(err) {
	case askbob.CodeForbidden:
		writeJSONError(w, http.StatusForbidden, "Forbidden")
	case askbob.CodeInvalidTask:
		writeJSONError(w, http.StatusBadRequest, "Invalid task")
	case askbob.CodeInvalidModelOutput:
		writeJSONError(w, http.StatusUnprocessableEntity, "Model produced an unusable response")
	case askbob.CodeUpstreamError:
		writeJSONError(w, http.StatusBadGateway, "Upstream AI service failed")
	default:
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// HandleCallReadiness reports which AI actions are currently available
// for a call, so a UI can disable buttons with a reason.
// GET /v1/askbob/calls/{id}/readiness
func (h *AskBobHandler) HandleCallReadiness(w http.ResponseWriter, r *http.Request) {
	auth, ok := AuthFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	callID := mux.Vars(r)["id"]
	call, err := h.calls.GetByID(r.Context(), callID)
	if err != nil {
		logger.Base().Error("failed to load call for readiness report", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if call != nil && call.WorkspaceID != auth.WorkspaceID {
		// Same response as a missing call; tenants never learn about
		// each other's records.
		call = nil
	}

	type gateView struct {
		Ready   bool     `json:"ready"`
		Reasons []string `json:"reasons,omitempty"`
	}
	view := func(rd telephony.Readiness) gateView {
		return gateView{Ready: rd.Ready, Reasons: rd.Reasons}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]gateView{
		"callEnrichment": view(telephony.ReadyForEnrichment(call)),
		"liveGuidance":   view(telephony.ReadyForLiveGuidance(call)),
		"followUpDraft":  view(telephony.ReadyForFollowUpDraft(call)),
	})
}
