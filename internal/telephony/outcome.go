package telephony

import (
	"strings"
	"sync"
	"unicode"

	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/pkg/logger"
	"go.uber.org/zap"
)

// NotesMaxLen is the cap applied to outcome notes before storage or
// prompt building. Applied identically to human and AI authored text.
const NotesMaxLen = 200

// notesEllipsis marks truncated notes.
const notesEllipsis = "…"

// MigrationWarnings tracks log-once warnings for rows that predate the
// canonical outcome columns. Owned by the process lifecycle and passed by
// reference so the "warn once" state is explicit rather than a hidden
// package global.
type MigrationWarnings struct {
	legacyOutcomeOnce sync.Once
}

// NewMigrationWarnings creates the warning tracker. One per process.
func NewMigrationWarnings() *MigrationWarnings {
	return &MigrationWarnings{}
}

func (m *MigrationWarnings) warnLegacyOutcome() {
	m.legacyOutcomeOnce.Do(func() {
		logger.Base().Warn("call record carries only legacy free-text outcome, canonical outcome column absent",
			zap.String("hint", "run the outcome backfill migration"))
	})
}

// NormalizeOutcome maps a raw or legacy outcome string to a canonical
// outcome code. Matching is case-insensitive and substring tolerant for
// historical free text. Empty input yields the empty code.
func NormalizeOutcome(raw string) domain.OutcomeCode {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	// Already-canonical codes pass through unchanged.
	if domain.IsKnownOutcomeCode(domain.OutcomeCode(trimmed)) {
		return domain.OutcomeCode(trimmed)
	}

	lower := strings.ToLower(trimmed)
	switch {
	case strings.Contains(lower, "scheduled"):
		return domain.OutcomeReachedScheduled
	case strings.Contains(lower, "declined"):
		return domain.OutcomeReachedDeclined
	case strings.Contains(lower, "voicemail"):
		return domain.OutcomeNoAnswerLeftVoicemail
	case strings.Contains(lower, "follow"):
		return domain.OutcomeReachedFollowUp
	case lower == "wrong_number":
		return domain.OutcomeWrongNumber
	default:
		return domain.OutcomeOther
	}
}

// ResolveOutcome returns the canonical outcome for a call record. The
// canonical column wins when present; otherwise legacy free text is
// normalized and a one-time migration warning is emitted.
func ResolveOutcome(call *domain.CallRecord, legacyText string, warnings *MigrationWarnings) domain.OutcomeCode {
	if call != nil && call.OutcomeCode != "" {
		return NormalizeOutcome(string(call.OutcomeCode))
	}
	if strings.TrimSpace(legacyText) == "" {
		return ""
	}
	if warnings != nil {
		warnings.warnLegacyOutcome()
	}
	return NormalizeOutcome(legacyText)
}

// NormalizeNotes trims, collapses internal whitespace runs to single
// spaces, and truncates to NotesMaxLen runes with an ellipsis marker.
// Idempotent: NormalizeNotes(NormalizeNotes(x)) == NormalizeNotes(x).
func NormalizeNotes(raw string) string {
	collapsed := collapseWhitespace(strings.TrimSpace(raw))
	runes := []rune(collapsed)
	if len(runes) <= NotesMaxLen {
		return collapsed
	}
	return string(runes[:NotesMaxLen-1]) + notesEllipsis
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inRun = true
			continue
		}
		if inRun && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}
