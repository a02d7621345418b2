package telephony

import (
	"github.com/handybob/callops/internal/domain"
)

// Readiness reason tags returned to calling UIs so a disabled action can
// be explained.
const (
	ReasonCallMissing     = "call_missing"
	ReasonNotTerminal     = "not_terminal"
	ReasonAlreadyEnriched = "already_enriched"
)

// Readiness is the answer of a readiness predicate: allowed or not, and
// when not, a small set of human-readable reason tags.
type Readiness struct {
	Ready   bool
	Reasons []string
}

func ready() Readiness {
	return Readiness{Ready: true}
}

func notReady(reasons ...string) Readiness {
	return Readiness{Ready: false, Reasons: reasons}
}

// ReadyForEnrichment reports whether a call may receive after-call AI
// enrichment. Enrichment claims a business outcome, so it is never
// allowed before the technical status is terminal.
func ReadyForEnrichment(call *domain.CallRecord) Readiness {
	if call == nil {
		return notReady(ReasonCallMissing)
	}
	if !call.IsTerminal() {
		return notReady(ReasonNotTerminal)
	}
	return ready()
}

// ReadyForFollowUpDraft reports whether a follow-up message may be
// drafted for the call: the call must be terminal and enriched.
func ReadyForFollowUpDraft(call *domain.CallRecord) Readiness {
	if call == nil {
		return notReady(ReasonCallMissing)
	}
	var reasons []string
	if !call.IsTerminal() {
		reasons = append(reasons, ReasonNotTerminal)
	}
	if !call.HasOutcome() {
		reasons = append(reasons, "no_outcome_recorded")
	}
	if len(reasons) > 0 {
		return notReady(reasons...)
	}
	return ready()
}

// ReadyForLiveGuidance reports whether live in-call guidance may run:
// the call exists and its outcome has not been recorded yet. A terminal
// but not-yet-enriched call is still allowed, so guidance survives brief
// status races at the end of a call.
func ReadyForLiveGuidance(call *domain.CallRecord) Readiness {
	if call == nil {
		return notReady(ReasonCallMissing)
	}
	if call.HasOutcome() {
		return notReady(ReasonAlreadyEnriched)
	}
	return ready()
}
