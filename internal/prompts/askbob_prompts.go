package prompts

import (
	"fmt"
	"strings"
)

// Prompt builders for AskBob tasks. Every builder is deterministic: the
// same inputs always produce the same prompt, and every free-text input
// is expected to be normalized and bounded by the caller before it is
// interpolated here.

const jsonOnlyRule = "Respond with a single JSON object and nothing else. No prose, no Markdown."

// CallContext is the call-level detail shared by call-scoped prompts.
type CallContext struct {
	CustomerName string
	JobTitle     string
	JobNotes     string
	Goal         string
}

func (c CallContext) describe() string {
	var b strings.Builder
	if c.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", c.CustomerName)
	}
	if c.JobTitle != "" {
		fmt.Fprintf(&b, "Job: %s\n", c.JobTitle)
	}
	if c.JobNotes != "" {
		fmt.Fprintf(&b, "Job notes: %s\n", c.JobNotes)
	}
	if c.Goal != "" {
		fmt.Fprintf(&b, "Goal of the call: %s\n", c.Goal)
	}
	return b.String()
}

// CallScript asks for a speech plan for an automated outbound call.
func CallScript(ctx CallContext) string {
	return fmt.Sprintf(`You are AskBob, the assistant inside a small-business operations tool.
Write a short spoken script for an automated outbound phone call placed on behalf of the business.

%s
Rules:
- At most three short sentences of script text.
- Polite, plain language a customer hears over the phone.
- Decide whether leaving a voicemail is appropriate for this goal.

%s
Required keys: "voice" (string), "greetingStyle" (one of friendly, professional, casual), "allowVoicemail" (boolean), "scriptText" (string).`, ctx.describe(), jsonOnlyRule)
}

// LiveGuidance asks for the next things to say during an ongoing call.
func LiveGuidance(ctx CallContext, transcriptSnippet string) string {
	return fmt.Sprintf(`You are AskBob, assisting a tradesperson who is on a phone call right now.

%s
Most recent conversation:
%s

Suggest what to say or ask next. Keep each step to one sentence.

%s
Required keys: "steps" (array of 2 to 4 strings, in speaking order).`, ctx.describe(), transcriptSnippet, jsonOnlyRule)
}

// CallEnrichment asks for the business outcome of a finished call.
func CallEnrichment(ctx CallContext, callStatus, notes string, outcomeCodes []string) string {
	return fmt.Sprintf(`You are AskBob. A phone call has ended; classify its business outcome.

%s
Technical call status: %s
Notes about the call: %s

%s
Required keys: "reachedCustomer" (boolean), "outcomeCode" (one of: %s), "outcomeNotes" (string, one or two sentences), "summary" (string).`,
		ctx.describe(), callStatus, notes, jsonOnlyRule, strings.Join(outcomeCodes, ", "))
}

// JobAfterCallSummary asks for a job-level summary after a call.
func JobAfterCallSummary(ctx CallContext, callNotes string) string {
	return fmt.Sprintf(`You are AskBob. Summarize the state of a job after a phone call about it.

%s
What happened on the call: %s

%s
Required keys: "summary" (string), "nextSteps" (array of strings).`, ctx.describe(), callNotes, jsonOnlyRule)
}

// JobSchedulingSuggestion asks when a job should be scheduled.
func JobSchedulingSuggestion(jobTitle, jobNotes, existingSchedule string) string {
	return fmt.Sprintf(`You are AskBob. Suggest when the following job should be scheduled.

Job: %s
Job notes: %s
Existing schedule context: %s

%s
Required keys: "suggestedDate" (string, ISO 8601 date), "reason" (string).`, jobTitle, jobNotes, existingSchedule, jsonOnlyRule)
}

// QuoteGeneration asks for proposed quote lines for a job.
func QuoteGeneration(jobTitle, jobDescription, jobNotes string) string {
	return fmt.Sprintf(`You are AskBob. Draft quote line items for the following job. Prices are estimates the business owner will review; use whole cents.

Job: %s
Description: %s
Notes: %s

%s
Required keys: "lineItems" (array of objects with "description" string, "quantity" number, "unitCents" number), "notes" (string).`, jobTitle, jobDescription, jobNotes, jsonOnlyRule)
}

// QuoteExplanation asks for a customer-friendly explanation of a quote.
func QuoteExplanation(quoteSummary, question string) string {
	return fmt.Sprintf(`You are AskBob. Explain the following quote to a customer in plain language.

Quote:
%s

Customer question: %s

%s
Required keys: "explanation" (string).`, quoteSummary, question, jsonOnlyRule)
}

// MaterialsGeneration asks for a materials list for a job.
func MaterialsGeneration(jobTitle, jobDescription string) string {
	return fmt.Sprintf(`You are AskBob. List the materials needed for the following job.

Job: %s
Description: %s

%s
Required keys: "materials" (array of objects with "name" string, "quantity" number, "unit" string).`, jobTitle, jobDescription, jsonOnlyRule)
}

// MaterialsExplanation asks for a customer-friendly materials explanation.
func MaterialsExplanation(materialsSummary, question string) string {
	return fmt.Sprintf(`You are AskBob. Explain why the following materials are needed, in plain language a customer understands.

Materials:
%s

Customer question: %s

%s
Required keys: "explanation" (string).`, materialsSummary, question, jsonOnlyRule)
}

// FollowUpDraft asks for a follow-up message after a finished call.
func FollowUpDraft(ctx CallContext, outcomeCode, outcomeNotes string) string {
	return fmt.Sprintf(`You are AskBob. Draft a short follow-up message to the customer after a phone call.

%s
Call outcome: %s
Outcome notes: %s

Pick "sms" for short confirmations, "email" when detail is needed.

%s
Required keys: "channel" (sms or email), "message" (string).`, ctx.describe(), outcomeCode, outcomeNotes, jsonOnlyRule)
}
