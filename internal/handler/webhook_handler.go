package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/handybob/callops/internal/telephony"
	"github.com/handybob/callops/pkg/logger"
	"go.uber.org/zap"
)

// TwilioWebhookHandler handles provider callbacks: status, recording and
// the voice script document. Signature verification runs before anything
// else; only a signature failure produces a non-2xx so the provider's
// retry machinery is reserved for exactly that failure class.
type TwilioWebhookHandler struct {
	verifier      *telephony.SignatureVerifier
	reconciler    *telephony.Reconciler
	calls         telephony.CallStore
	publicBaseURL string
}

// NewTwilioWebhookHandler creates a new webhook handler
func NewTwilioWebhookHandler(verifier *telephony.SignatureVerifier, reconciler *telephony.Reconciler, calls telephony.CallStore, publicBaseURL string) *TwilioWebhookHandler {
	return &TwilioWebhookHandler{
		verifier:      verifier,
		reconciler:    reconciler,
		calls:         calls,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// SetupWebhookRoutes registers the provider callback routes.
func (h *TwilioWebhookHandler) SetupWebhookRoutes(router *mux.Router) {
	webhooks := router.PathPrefix("/twilio/voice").Subrouter()
	webhooks.HandleFunc("/status", h.HandleStatusCallback).Methods("POST")
	webhooks.HandleFunc("/recording", h.HandleRecordingCallback).Methods("POST")
	webhooks.HandleFunc("/script", h.HandleVoiceScript).Methods("GET", "POST")

	logger.Base().Info("Twilio webhook routes registered")
}

// verifyRequest parses the form and checks the provider signature
// against the exact externally visible URL. Returns false after writing
// the 403 when verification fails.
func (h *TwilioWebhookHandler) verifyRequest(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		logger.Base().Warn("failed to parse webhook form", zap.Error(err))
		h.sendForbidden(w)
		return false
	}

	params := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		params[key] = r.PostForm.Get(key)
	}

	requestURL := h.publicBaseURL + r.URL.RequestURI()
	result := h.verifier.Verify(r.Header.Get("X-Twilio-Signature"), requestURL, params)
	if !result.Valid {
		// The response carries no detail; the reason goes to the log only.
		logger.Base().Warn("webhook signature rejected",
			zap.String("reason", string(result.Reason)),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr))
		h.sendForbidden(w)
		return false
	}
	return true
}

// HandleStatusCallback handles a call status callback
// POST /twilio/voice/status?call={id}&workspace={id}
func (h *TwilioWebhookHandler) HandleStatusCallback(w http.ResponseWriter, r *http.Request) {
	if !h.verifyRequest(w, r) {
		return
	}

	event := telephony.StatusEvent{
		CallSid:       r.PostForm.Get("CallSid"),
		Status:        r.PostForm.Get("CallStatus"),
		ErrorCode:     r.PostForm.Get("ErrorCode"),
		ErrorMessage:  r.PostForm.Get("ErrorMessage"),
		CorrelationID: r.URL.Query().Get("call"),
		WorkspaceID:   r.URL.Query().Get("workspace"),
	}

	if _, err := h.reconciler.ApplyStatus(r.Context(), event); err != nil {
		// Store failures are transient; a 200 would make the provider
		// drop the event for good, so this is the one store-error path
		// that intentionally 500s and lets the provider redeliver.
		logger.Base().Error("failed to apply status callback", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.sendOK(w)
}

// HandleRecordingCallback handles a recording status callback
// POST /twilio/voice/recording?call={id}&workspace={id}
func (h *TwilioWebhookHandler) HandleRecordingCallback(w http.ResponseWriter, r *http.Request) {
	if !h.verifyRequest(w, r) {
		return
	}

	duration, _ := strconv.Atoi(r.PostForm.Get("RecordingDuration"))
	event := telephony.RecordingEvent{
		CallSid:         r.PostForm.Get("CallSid"),
		RecordingSid:    r.PostForm.Get("RecordingSid"),
		RecordingURL:    r.PostForm.Get("RecordingUrl"),
		DurationSeconds: duration,
		CorrelationID:   r.URL.Query().Get("call"),
		WorkspaceID:     r.URL.Query().Get("workspace"),
	}

	if _, err := h.reconciler.ApplyRecording(r.Context(), event); err != nil {
		logger.Base().Error("failed to apply recording callback", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.sendOK(w)
}

// HandleVoiceScript serves the voice-response document for an outbound
// call. The provider must always receive valid markup, so an unknown or
// plan-less call renders the default plan instead of erroring.
// GET|POST /twilio/voice/script?call={id}
func (h *TwilioWebhookHandler) HandleVoiceScript(w http.ResponseWriter, r *http.Request) {
	if !h.verifyRequest(w, r) {
		return
	}

	plan := telephony.DefaultSpeechPlan()

	callSid := r.PostForm.Get("CallSid")
	correlationID := r.URL.Query().Get("call")

	call, err := h.calls.GetByCallSid(r.Context(), callSid)
	if err == nil && call == nil && correlationID != "" {
		call, err = h.calls.GetByID(r.Context(), correlationID)
	}
	if err != nil {
		logger.Base().Warn("failed to load call for voice script, using default plan", zap.Error(err))
	}
	if call != nil {
		plan = telephony.DecodeSpeechPlan(call.Summary)
	} else {
		logger.Base().Info("voice script requested for unknown call",
			zap.String("call_sid", callSid),
			zap.String("correlation_id", correlationID))
	}

	doc, err := telephony.RenderCallScript(plan)
	if err != nil {
		logger.Base().Error("failed to render call script", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

func (h *TwilioWebhookHandler) sendOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"ok":true}`))
}

func (h *TwilioWebhookHandler) sendForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error":"Forbidden"}`))
}
