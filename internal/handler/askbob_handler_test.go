package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handybob/callops/internal/askbob"
	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/internal/telephony"
)

type stubAskBobStore struct {
	quotes map[string]*domain.Quote
}

func (s *stubAskBobStore) GetCall(context.Context, string) (*domain.CallRecord, error) {
	return nil, nil
}

func (s *stubAskBobStore) GetJob(context.Context, string) (*domain.Job, error) {
	return nil, nil
}

func (s *stubAskBobStore) GetCustomer(context.Context, string) (*domain.Customer, error) {
	return nil, nil
}

func (s *stubAskBobStore) GetQuote(_ context.Context, id string) (*domain.Quote, error) {
	return s.quotes[id], nil
}

type stubCompletion struct {
	response string
	err      error
	calls    int
}

func (s *stubCompletion) Complete(context.Context, string) (string, error) {
	s.calls++
	return s.response, s.err
}

// stubCallActions is an in-memory CallActions for handler tests.
type stubCallActions struct {
	calls    map[string]*domain.CallRecord
	outcomes int
}

func newStubCallActions(calls ...*domain.CallRecord) *stubCallActions {
	s := &stubCallActions{calls: make(map[string]*domain.CallRecord)}
	for _, c := range calls {
		s.calls[c.ID] = c
	}
	return s
}

func (s *stubCallActions) GetByID(_ context.Context, id string) (*domain.CallRecord, error) {
	return s.calls[id], nil
}

func (s *stubCallActions) RecordOutcome(_ context.Context, id string, reached *bool, code domain.OutcomeCode, notes string) error {
	s.outcomes++
	if c, ok := s.calls[id]; ok {
		c.ReachedCustomer = reached
		c.OutcomeCode = code
		c.OutcomeNotes = notes
	}
	return nil
}

func (s *stubCallActions) UpdateSummary(_ context.Context, id, summary string) error {
	if c, ok := s.calls[id]; ok {
		c.Summary = summary
	}
	return nil
}

func newAskBobTestHandler(svc *stubCompletion, ratePerMinute int) *AskBobHandler {
	return newAskBobTestHandlerWithCalls(svc, ratePerMinute, newStubCallActions())
}

func newAskBobTestHandlerWithCalls(svc *stubCompletion, ratePerMinute int, calls CallActions) *AskBobHandler {
	store := &stubAskBobStore{quotes: map[string]*domain.Quote{
		"quote-1": {ID: "quote-1", WorkspaceID: "ws-1", JobID: "job-1", TotalCents: 45000},
		"quote-2": {ID: "quote-2", WorkspaceID: "ws-other", JobID: "job-2", TotalCents: 9000},
	}}
	dispatcher := askbob.NewDispatcher(store, svc, telephony.NewMigrationWarnings())
	return NewAskBobHandler(dispatcher, calls, ratePerMinute)
}

func runTask(t *testing.T, h *AskBobHandler, auth *askbob.AuthContext, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/askbob/tasks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != nil {
		req = req.WithContext(context.WithValue(req.Context(), authContextKey, *auth))
	}
	rec := httptest.NewRecorder()
	h.HandleRunTask(rec, req)
	return rec
}

func TestRunTaskRequiresAuth(t *testing.T) {
	h := newAskBobTestHandler(&stubCompletion{}, 20)

	rec := runTask(t, h, nil, `{"kind":"quote_explanation","quoteId":"quote-1"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunTaskSuccess(t *testing.T) {
	svc := &stubCompletion{response: `{"explanation":"The total covers labor and parts."}`}
	h := newAskBobTestHandler(svc, 20)
	auth := &askbob.AuthContext{WorkspaceID: "ws-1", UserID: "user-1"}

	rec := runTask(t, h, auth, `{"kind":"quote_explanation","quoteId":"quote-1","question":"Why so much?"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Kind   string `json:"kind"`
		Result struct {
			Explanation string `json:"explanation"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "quote_explanation", resp.Kind)
	assert.Equal(t, "The total covers labor and parts.", resp.Result.Explanation)
	assert.Equal(t, 1, svc.calls)
}

func TestRunTaskForeignQuoteIsForbidden(t *testing.T) {
	svc := &stubCompletion{response: `{"explanation":"irrelevant"}`}
	h := newAskBobTestHandler(svc, 20)
	auth := &askbob.AuthContext{WorkspaceID: "ws-1", UserID: "user-1"}

	rec := runTask(t, h, auth, `{"kind":"quote_explanation","quoteId":"quote-2","question":"Why?"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, svc.calls, "no model call may happen for a foreign entity")
}

func TestRunTaskUnknownKindIsBadRequest(t *testing.T) {
	h := newAskBobTestHandler(&stubCompletion{}, 20)
	auth := &askbob.AuthContext{WorkspaceID: "ws-1"}

	rec := runTask(t, h, auth, `{"kind":"write_poetry"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunTaskBadModelOutputIsUnprocessable(t *testing.T) {
	svc := &stubCompletion{response: `sorry, I cannot help with that`}
	h := newAskBobTestHandler(svc, 20)
	auth := &askbob.AuthContext{WorkspaceID: "ws-1"}

	rec := runTask(t, h, auth, `{"kind":"quote_explanation","quoteId":"quote-1","question":"Why?"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, svc.calls, "the model is called exactly once, never retried")
}

func TestRunTaskRateLimitPerWorkspace(t *testing.T) {
	svc := &stubCompletion{response: `{"explanation":"ok"}`}
	h := newAskBobTestHandler(svc, 1)
	body := `{"kind":"quote_explanation","quoteId":"quote-1","question":"Why?"}`

	first := runTask(t, h, &askbob.AuthContext{WorkspaceID: "ws-1"}, body)
	second := runTask(t, h, &askbob.AuthContext{WorkspaceID: "ws-1"}, body)

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// A different workspace has its own budget.
	other := runTask(t, h, &askbob.AuthContext{WorkspaceID: "ws-9"}, body)
	assert.NotEqual(t, http.StatusTooManyRequests, other.Code)
}

func TestRunTaskReadinessBlocksNonTerminalCall(t *testing.T) {
	svc := &stubCompletion{response: `{"reachedCustomer":true}`}
	calls := newStubCallActions(&domain.CallRecord{
		ID:             "call-1",
		WorkspaceID:    "ws-1",
		ProviderStatus: domain.CallStatusInProgress,
	})
	h := newAskBobTestHandlerWithCalls(svc, 20, calls)
	auth := &askbob.AuthContext{WorkspaceID: "ws-1"}

	rec := runTask(t, h, auth, `{"kind":"call_enrichment","callId":"call-1"}`)

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Reasons []string `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{telephony.ReasonNotTerminal}, resp.Reasons)
	assert.Zero(t, svc.calls, "no model call may happen before the gate passes")
}

func TestRunTaskReadinessForeignCallLooksMissing(t *testing.T) {
	svc := &stubCompletion{response: `{"reachedCustomer":true}`}
	// The foreign call is terminal, so its true gate reasons would differ
	// from a missing call's, which is exactly what must not leak.
	calls := newStubCallActions(&domain.CallRecord{
		ID:             "call-foreign",
		WorkspaceID:    "ws-other",
		ProviderStatus: domain.CallStatusCompleted,
	})
	h := newAskBobTestHandlerWithCalls(svc, 20, calls)
	auth := &askbob.AuthContext{WorkspaceID: "ws-1"}

	foreign := runTask(t, h, auth, `{"kind":"call_enrichment","callId":"call-foreign"}`)
	missing := runTask(t, h, auth, `{"kind":"call_enrichment","callId":"call-nope"}`)

	require.Equal(t, http.StatusConflict, foreign.Code)
	require.Equal(t, http.StatusConflict, missing.Code)
	assert.JSONEq(t, missing.Body.String(), foreign.Body.String())

	var resp struct {
		Reasons []string `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal(foreign.Body.Bytes(), &resp))
	assert.Equal(t, []string{telephony.ReasonCallMissing}, resp.Reasons)
	assert.Zero(t, svc.calls)
}
