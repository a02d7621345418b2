package askbob

import (
	"github.com/handybob/callops/internal/domain"
)

// TaskKind tags a task variant. The dispatcher switches on this tag and
// validates the model output against the variant's required shape.
type TaskKind string

const (
	TaskCallScript              TaskKind = "call_script"
	TaskLiveGuidance            TaskKind = "live_guidance"
	TaskCallEnrichment          TaskKind = "call_enrichment"
	TaskJobAfterCallSummary     TaskKind = "job_after_call_summary"
	TaskJobSchedulingSuggestion TaskKind = "job_scheduling_suggestion"
	TaskQuoteGeneration         TaskKind = "quote_generation"
	TaskQuoteExplanation        TaskKind = "quote_explanation"
	TaskMaterialsGeneration     TaskKind = "materials_generation"
	TaskMaterialsExplanation    TaskKind = "materials_explanation"
	TaskFollowUpDraft           TaskKind = "follow_up_draft"
)

// AuthContext is the caller's authenticated identity, derived from the
// session token, never from the request body.
type AuthContext struct {
	WorkspaceID string
	UserID      string
}

// TaskContext scopes a task request. It is re-validated against the
// authenticated tenant and against every loaded entity before any model
// call is made.
type TaskContext struct {
	WorkspaceID string
	UserID      string
	JobID       string
	CustomerID  string
	QuoteID     string
}

// Task is a tagged request for AI-generated assistance tied to a call,
// job, or quote.
type Task struct {
	Kind    TaskKind
	Context TaskContext

	// CallID references the call for call-scoped variants.
	CallID string

	// Goal is a short operator-supplied instruction (what the call or
	// quote should achieve). Normalized before prompt building.
	Goal string

	// TranscriptSnippet carries recent in-call text for live guidance.
	TranscriptSnippet string

	// Question is the customer question for explanation variants.
	Question string
}

// CallScriptResult is the generated speech plan for an outbound call.
type CallScriptResult struct {
	Voice          string `json:"voice"`
	GreetingStyle  string `json:"greetingStyle"`
	AllowVoicemail bool   `json:"allowVoicemail"`
	ScriptText     string `json:"scriptText"`
}

// LiveGuidanceResult is a short ordered list of things to say or ask next.
type LiveGuidanceResult struct {
	Steps []string `json:"steps"`
}

// CallEnrichmentResult is the post-call business outcome suggested by the
// model. Notes are normalized before persistence.
type CallEnrichmentResult struct {
	ReachedCustomer bool               `json:"reachedCustomer"`
	OutcomeCode     domain.OutcomeCode `json:"outcomeCode"`
	OutcomeNotes    string             `json:"outcomeNotes"`
	Summary         string             `json:"summary"`
}

// JobAfterCallSummaryResult summarizes a call in the context of its job.
type JobAfterCallSummaryResult struct {
	Summary   string   `json:"summary"`
	NextSteps []string `json:"nextSteps"`
}

// JobSchedulingSuggestionResult proposes when to schedule a job.
type JobSchedulingSuggestionResult struct {
	SuggestedDate string `json:"suggestedDate"`
	Reason        string `json:"reason"`
}

// QuoteLineSuggestion is one proposed quote line.
type QuoteLineSuggestion struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitCents   int64   `json:"unitCents"`
}

// QuoteGenerationResult is a proposed set of quote lines for a job.
type QuoteGenerationResult struct {
	LineItems []QuoteLineSuggestion `json:"lineItems"`
	Notes     string                `json:"notes"`
}

// QuoteExplanationResult is a plain-language explanation of a quote.
type QuoteExplanationResult struct {
	Explanation string `json:"explanation"`
}

// MaterialSuggestion is one proposed material line.
type MaterialSuggestion struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// MaterialsGenerationResult is a proposed materials list for a job.
type MaterialsGenerationResult struct {
	Materials []MaterialSuggestion `json:"materials"`
}

// MaterialsExplanationResult explains a materials list to a customer.
type MaterialsExplanationResult struct {
	Explanation string `json:"explanation"`
}

// FollowUpDraftResult is a drafted follow-up message after a call.
type FollowUpDraftResult struct {
	Channel string `json:"channel"` // sms or email
	Message string `json:"message"`
}

// TaskResult is the dispatcher's answer: the variant's typed payload plus
// the model latency. Always produced by parsing and validating model
// output, never by trusting it verbatim.
type TaskResult struct {
	Kind          TaskKind
	LatencyMillis int64

	// Payload is one of the *Result types above, matching Kind.
	Payload interface{}
}
