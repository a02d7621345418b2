package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/handybob/callops/internal/repository"
	callservice "github.com/handybob/callops/internal/services/call"
	"github.com/handybob/callops/internal/telephony"
	"github.com/handybob/callops/pkg/logger"
	"go.uber.org/zap"
)

// placeCallRequest is the wire shape for placing an outbound call.
type placeCallRequest struct {
	ToPhone    string `json:"toPhone"`
	JobID      string `json:"jobId,omitempty"`
	CustomerID string `json:"customerId,omitempty"`

	Voice          string `json:"voice,omitempty"`
	GreetingStyle  string `json:"greetingStyle,omitempty"`
	AllowVoicemail bool   `json:"allowVoicemail,omitempty"`
	ScriptText     string `json:"scriptText,omitempty"`
}

// CallHandler exposes outbound call placement and call history.
type CallHandler struct {
	service *callservice.Service
	repos   repository.RepositoryManager
}

// NewCallHandler creates a new call handler
func NewCallHandler(service *callservice.Service, repos repository.RepositoryManager) *CallHandler {
	return &CallHandler{service: service, repos: repos}
}

// SetupCallRoutes registers the call endpoints. The caller is expected
// to wrap the router with authentication.
func (h *CallHandler) SetupCallRoutes(router *mux.Router) {
	router.HandleFunc("/calls", h.HandlePlaceCall).Methods("POST")
	router.HandleFunc("/calls", h.HandleListCalls).Methods("GET")
	router.HandleFunc("/calls/{id}", h.HandleGetCall).Methods("GET")

	logger.Base().Info("call routes registered")
}

// HandlePlaceCall places an outbound call.
// POST /v1/calls
func (h *CallHandler) HandlePlaceCall(w http.ResponseWriter, r *http.Request) {
	auth, ok := AuthFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req placeCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ToPhone == "" {
		writeJSONError(w, http.StatusBadRequest, "toPhone is required")
		return
	}

	if !h.service.IsEnabled() {
		writeJSONError(w, http.StatusServiceUnavailable, "Outbound calling is not configured")
		return
	}

	record, err := h.service.PlaceCall(r.Context(), callservice.PlaceCallInput{
		WorkspaceID: auth.WorkspaceID,
		ToPhone:     req.ToPhone,
		JobID:       req.JobID,
		CustomerID:  req.CustomerID,
		Plan: telephony.SpeechPlan{
			Voice:          req.Voice,
			GreetingStyle:  req.GreetingStyle,
			AllowVoicemail: req.AllowVoicemail,
			ScriptText:     req.ScriptText,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, callservice.ErrLinkageForbidden):
			writeJSONError(w, http.StatusForbidden, "Forbidden")
		case errors.Is(err, callservice.ErrLinkageNotFound):
			writeJSONError(w, http.StatusBadRequest, "Linked record not found")
		default:
			logger.Base().Error("failed to place outbound call",
				zap.String("workspace_id", auth.WorkspaceID),
				zap.Error(err))
			writeJSONError(w, http.StatusBadGateway, "Failed to place call")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// HandleListCalls returns recent calls for the caller's workspace.
// GET /v1/calls
func (h *CallHandler) HandleListCalls(w http.ResponseWriter, r *http.Request) {
	auth, ok := AuthFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	calls, err := h.repos.Calls().ListByWorkspace(r.Context(), auth.WorkspaceID, 50)
	if err != nil {
		logger.Base().Error("failed to list calls", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"calls": calls})
}

// HandleGetCall returns one call by id, scoped to the caller's workspace.
// GET /v1/calls/{id}
func (h *CallHandler) HandleGetCall(w http.ResponseWriter, r *http.Request) {
	auth, ok := AuthFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	call, err := h.repos.Calls().GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		logger.Base().Error("failed to get call", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if call == nil || call.WorkspaceID != auth.WorkspaceID {
		writeJSONError(w, http.StatusNotFound, "Call not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(call)
}
