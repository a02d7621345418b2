package telephony

import (
	"testing"
	"time"

	"github.com/handybob/callops/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestReadyForEnrichment(t *testing.T) {
	inProgress := &domain.CallRecord{ProviderStatus: domain.CallStatusInProgress}
	got := ReadyForEnrichment(inProgress)
	assert.False(t, got.Ready)
	assert.Contains(t, got.Reasons, ReasonNotTerminal)

	for _, status := range []string{
		domain.CallStatusCompleted,
		domain.CallStatusFailed,
		domain.CallStatusBusy,
		domain.CallStatusNoAnswer,
		domain.CallStatusCanceled,
	} {
		got := ReadyForEnrichment(&domain.CallRecord{ProviderStatus: status})
		assert.True(t, got.Ready, "status %s", status)
	}

	got = ReadyForEnrichment(nil)
	assert.False(t, got.Ready)
	assert.Contains(t, got.Reasons, ReasonCallMissing)
}

func TestReadyForLiveGuidance(t *testing.T) {
	now := time.Now()

	active := &domain.CallRecord{ProviderStatus: domain.CallStatusInProgress}
	assert.True(t, ReadyForLiveGuidance(active).Ready)

	enriched := &domain.CallRecord{ProviderStatus: domain.CallStatusCompleted, OutcomeRecordedAt: &now}
	got := ReadyForLiveGuidance(enriched)
	assert.False(t, got.Ready)
	assert.Contains(t, got.Reasons, ReasonAlreadyEnriched)

	assert.False(t, ReadyForLiveGuidance(nil).Ready)
}

func TestReadyForFollowUpDraft(t *testing.T) {
	now := time.Now()

	done := &domain.CallRecord{ProviderStatus: domain.CallStatusCompleted, OutcomeRecordedAt: &now}
	assert.True(t, ReadyForFollowUpDraft(done).Ready)

	notEnriched := &domain.CallRecord{ProviderStatus: domain.CallStatusCompleted}
	got := ReadyForFollowUpDraft(notEnriched)
	assert.False(t, got.Ready)
	assert.Contains(t, got.Reasons, "no_outcome_recorded")

	ringing := &domain.CallRecord{ProviderStatus: domain.CallStatusRinging}
	got = ReadyForFollowUpDraft(ringing)
	assert.False(t, got.Ready)
	assert.Contains(t, got.Reasons, ReasonNotTerminal)
}
