package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/internal/telephony"
)

const webhookAuthToken = "test-auth-token"
const webhookBaseURL = "https://ops.example.com"

// twilioSign reproduces the provider's request signature: HMAC-SHA1 over
// the full URL followed by the sorted POST keys and values.
func twilioSign(authToken, requestURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := requestURL
	for _, k := range keys {
		payload += k + params[k]
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type stubCallStore struct {
	byID      map[string]*domain.CallRecord
	byCallSid map[string]*domain.CallRecord

	statusUpdates    int
	recordingUpdates int
	lastStatus       string
}

func newStubCallStore(calls ...*domain.CallRecord) *stubCallStore {
	s := &stubCallStore{
		byID:      make(map[string]*domain.CallRecord),
		byCallSid: make(map[string]*domain.CallRecord),
	}
	for _, c := range calls {
		s.byID[c.ID] = c
		if c.CallSid != "" {
			s.byCallSid[c.CallSid] = c
		}
	}
	return s
}

func (s *stubCallStore) GetByID(_ context.Context, id string) (*domain.CallRecord, error) {
	return s.byID[id], nil
}

func (s *stubCallStore) GetByCallSid(_ context.Context, callSid string) (*domain.CallRecord, error) {
	if callSid == "" {
		return nil, nil
	}
	return s.byCallSid[callSid], nil
}

func (s *stubCallStore) UpdateStatus(_ context.Context, id, callSid, status, errorCode, errorMessage string) error {
	s.statusUpdates++
	s.lastStatus = status
	if c, ok := s.byID[id]; ok {
		c.ProviderStatus = status
		if callSid != "" {
			c.CallSid = callSid
			s.byCallSid[callSid] = c
		}
	}
	return nil
}

func (s *stubCallStore) UpdateRecording(_ context.Context, id, callSid, recordingSid, recordingURL string, durationSeconds int) error {
	s.recordingUpdates++
	if c, ok := s.byID[id]; ok {
		c.RecordingSid = recordingSid
		c.RecordingURL = recordingURL
		c.RecordingDuration = durationSeconds
	}
	return nil
}

func newWebhookHandler(store *stubCallStore) *TwilioWebhookHandler {
	verifier := telephony.NewSignatureVerifier(webhookAuthToken)
	reconciler := telephony.NewReconciler(store, nil)
	return NewTwilioWebhookHandler(verifier, reconciler, store, webhookBaseURL)
}

// postSigned builds a signed form POST the way the provider sends one.
func postSigned(t *testing.T, path string, params map[string]string, tamper bool) *http.Request {
	t.Helper()

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	signature := twilioSign(webhookAuthToken, webhookBaseURL+path, params)
	if tamper {
		signature = twilioSign("wrong-token", webhookBaseURL+path, params)
	}
	req.Header.Set("X-Twilio-Signature", signature)
	return req
}

func TestStatusCallbackRejectsBadSignature(t *testing.T) {
	store := newStubCallStore(&domain.CallRecord{ID: "call-1", WorkspaceID: "ws-1", CallSid: "CA100"})
	h := newWebhookHandler(store)

	req := postSigned(t, "/twilio/voice/status?call=call-1&workspace=ws-1", map[string]string{
		"CallSid":    "CA100",
		"CallStatus": "completed",
	}, true)
	rec := httptest.NewRecorder()

	h.HandleStatusCallback(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, rec.Body.String())
	assert.Zero(t, store.statusUpdates, "rejected callback must not touch the store")
}

func TestStatusCallbackRejectsMissingSignature(t *testing.T) {
	store := newStubCallStore()
	h := newWebhookHandler(store)

	req := postSigned(t, "/twilio/voice/status", map[string]string{"CallSid": "CA100"}, false)
	req.Header.Del("X-Twilio-Signature")
	rec := httptest.NewRecorder()

	h.HandleStatusCallback(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatusCallbackAppliesUpdate(t *testing.T) {
	store := newStubCallStore(&domain.CallRecord{ID: "call-1", WorkspaceID: "ws-1", CallSid: "CA100"})
	h := newWebhookHandler(store)

	req := postSigned(t, "/twilio/voice/status?call=call-1&workspace=ws-1", map[string]string{
		"CallSid":    "CA100",
		"CallStatus": "completed",
	}, false)
	rec := httptest.NewRecorder()

	h.HandleStatusCallback(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, 1, store.statusUpdates)
	assert.Equal(t, "completed", store.lastStatus)
}

func TestStatusCallbackUnmatchedStillAcknowledged(t *testing.T) {
	store := newStubCallStore()
	h := newWebhookHandler(store)

	req := postSigned(t, "/twilio/voice/status", map[string]string{
		"CallSid":    "CA999",
		"CallStatus": "completed",
	}, false)
	rec := httptest.NewRecorder()

	h.HandleStatusCallback(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Zero(t, store.statusUpdates, "unmatched callback must never create a record")
}

func TestRecordingCallbackAppliesAndDeduplicates(t *testing.T) {
	call := &domain.CallRecord{ID: "call-1", WorkspaceID: "ws-1", CallSid: "CA100"}
	store := newStubCallStore(call)
	h := newWebhookHandler(store)

	params := map[string]string{
		"CallSid":           "CA100",
		"RecordingSid":      "RE200",
		"RecordingUrl":      "https://api.twilio.com/recordings/RE200",
		"RecordingDuration": "45",
	}

	for i := 0; i < 2; i++ {
		req := postSigned(t, "/twilio/voice/recording?call=call-1&workspace=ws-1", params, false)
		rec := httptest.NewRecorder()
		h.HandleRecordingCallback(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	}

	assert.Equal(t, 1, store.recordingUpdates, "redelivered recording must be a no-op")
	assert.Equal(t, 45, call.RecordingDuration)
}

func TestVoiceScriptRendersStoredPlan(t *testing.T) {
	encoded, err := telephony.EncodeSpeechPlan(telephony.SpeechPlan{
		Voice:         "Polly.Matthew",
		GreetingStyle: "professional",
		ScriptText:    "We are confirming your fence repair for Thursday.",
	})
	require.NoError(t, err)

	store := newStubCallStore(&domain.CallRecord{
		ID: "call-1", WorkspaceID: "ws-1", CallSid: "CA100", Summary: encoded,
	})
	h := newWebhookHandler(store)

	req := postSigned(t, "/twilio/voice/script?call=call-1&workspace=ws-1", map[string]string{
		"CallSid": "CA100",
	}, false)
	rec := httptest.NewRecorder()

	h.HandleVoiceScript(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "We are confirming your fence repair for Thursday.")
	assert.Contains(t, rec.Body.String(), `voice="Polly.Matthew"`)
}

func TestVoiceScriptUnknownCallFallsBackToDefaultPlan(t *testing.T) {
	store := newStubCallStore()
	h := newWebhookHandler(store)

	req := postSigned(t, "/twilio/voice/script", map[string]string{"CallSid": "CA404"}, false)
	rec := httptest.NewRecorder()

	h.HandleVoiceScript(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "the provider must always receive a script document")
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<Say")
	assert.Contains(t, rec.Body.String(), `voice="Polly.Joanna"`)
}
