package domain

import (
	"time"
)

// CallDirection represents the direction of a call
type CallDirection string

const (
	CallDirectionInbound  CallDirection = "inbound"
	CallDirectionOutbound CallDirection = "outbound"
)

// Provider call statuses. The set is open ended on the provider side, so
// these constants cover the values we branch on rather than an exhaustive list.
const (
	CallStatusQueued     = "queued"
	CallStatusRinging    = "ringing"
	CallStatusInProgress = "in-progress"
	CallStatusCompleted  = "completed"
	CallStatusFailed     = "failed"
	CallStatusBusy       = "busy"
	CallStatusNoAnswer   = "no-answer"
	CallStatusCanceled   = "canceled"
)

// terminalStatuses are the statuses after which the provider sends no
// further technical state changes for a call.
var terminalStatuses = map[string]bool{
	CallStatusCompleted: true,
	CallStatusFailed:    true,
	CallStatusBusy:      true,
	CallStatusNoAnswer:  true,
	CallStatusCanceled:  true,
}

// IsTerminalCallStatus reports whether a provider status is terminal.
func IsTerminalCallStatus(status string) bool {
	return terminalStatuses[status]
}

// OutcomeCode is the canonical, closed-set business classification of how
// a call concluded. Distinct from the provider's technical status.
type OutcomeCode string

const (
	OutcomeReachedScheduled      OutcomeCode = "reached_scheduled"
	OutcomeReachedDeclined       OutcomeCode = "reached_declined"
	OutcomeReachedFollowUp       OutcomeCode = "reached_follow_up"
	OutcomeNoAnswerLeftVoicemail OutcomeCode = "no_answer_left_voicemail"
	OutcomeNoAnswerNoVoicemail   OutcomeCode = "no_answer_no_voicemail"
	OutcomeWrongNumber           OutcomeCode = "wrong_number"
	OutcomeOther                 OutcomeCode = "other"
)

// KnownOutcomeCodes lists every canonical outcome code.
var KnownOutcomeCodes = []OutcomeCode{
	OutcomeReachedScheduled,
	OutcomeReachedDeclined,
	OutcomeReachedFollowUp,
	OutcomeNoAnswerLeftVoicemail,
	OutcomeNoAnswerNoVoicemail,
	OutcomeWrongNumber,
	OutcomeOther,
}

// IsKnownOutcomeCode reports whether code is part of the canonical set.
func IsKnownOutcomeCode(code OutcomeCode) bool {
	for _, k := range KnownOutcomeCodes {
		if k == code {
			return true
		}
	}
	return false
}

// CallRecord is the durable record for a single telephone call. One row
// per call attempt; created when the call is placed (outbound) or on the
// first provider callback (inbound), appended to for the life of the call.
type CallRecord struct {
	ID          string `json:"id" gorm:"column:id;primaryKey"`
	WorkspaceID string `json:"workspace_id" gorm:"column:workspace_id;index"`

	// Provider identity. CallSid may be empty until the first callback
	// or the provider's create-call response arrives.
	CallSid   string        `json:"call_sid" gorm:"column:call_sid;uniqueIndex"`
	Direction CallDirection `json:"direction" gorm:"column:direction"`
	FromPhone string        `json:"from_phone" gorm:"column:from_phone"`
	ToPhone   string        `json:"to_phone" gorm:"column:to_phone"`

	// Optional business linkage. Both must belong to the same workspace
	// as the call itself.
	JobID      string `json:"job_id,omitempty" gorm:"column:job_id;index"`
	CustomerID string `json:"customer_id,omitempty" gorm:"column:customer_id;index"`

	// Technical state, owned by the provider (last write wins).
	ProviderStatus string `json:"provider_status" gorm:"column:provider_status"`
	ErrorCode      string `json:"error_code,omitempty" gorm:"column:error_code"`
	ErrorMessage   string `json:"error_message,omitempty" gorm:"column:error_message"`

	// Recording state, set at most once per physical recording id.
	RecordingSid      string `json:"recording_sid,omitempty" gorm:"column:recording_sid"`
	RecordingURL      string `json:"recording_url,omitempty" gorm:"column:recording_url"`
	RecordingDuration int    `json:"recording_duration,omitempty" gorm:"column:recording_duration"`

	// Business outcome, writable only once the call is terminal.
	// ReachedCustomer is tri-state: nil means unknown.
	ReachedCustomer   *bool       `json:"reached_customer,omitempty" gorm:"column:reached_customer"`
	OutcomeCode       OutcomeCode `json:"outcome_code,omitempty" gorm:"column:outcome_code"`
	OutcomeNotes      string      `json:"outcome_notes,omitempty" gorm:"column:outcome_notes"`
	OutcomeRecordedAt *time.Time  `json:"outcome_recorded_at,omitempty" gorm:"column:outcome_recorded_at"`

	// Free-text AI summary. May carry an embedded speech plan via the
	// speech plan codec; always treat through that codec, never parse here.
	Summary string `json:"summary,omitempty" gorm:"column:summary"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (CallRecord) TableName() string {
	return "call_records"
}

// IsTerminal reports whether the call's technical state is terminal.
func (c *CallRecord) IsTerminal() bool {
	return IsTerminalCallStatus(c.ProviderStatus)
}

// HasOutcome reports whether a business outcome has been recorded.
func (c *CallRecord) HasOutcome() bool {
	return c.OutcomeRecordedAt != nil
}
