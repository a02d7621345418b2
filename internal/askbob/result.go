package askbob

import (
	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/internal/telephony"
)

// parseResult turns raw model output into the variant's typed payload.
// Every variant has a required-field checklist; a response that fails it
// yields a single invalid_model_output error, never a partial payload.
func parseResult(kind TaskKind, raw string) (interface{}, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	switch kind {
	case TaskCallScript:
		return parseCallScript(obj)
	case TaskLiveGuidance:
		return parseLiveGuidance(obj)
	case TaskCallEnrichment:
		return parseCallEnrichment(obj)
	case TaskJobAfterCallSummary:
		return parseJobAfterCallSummary(obj)
	case TaskJobSchedulingSuggestion:
		return parseJobSchedulingSuggestion(obj)
	case TaskQuoteGeneration:
		return parseQuoteGeneration(obj)
	case TaskQuoteExplanation:
		explanation, err := requireString(obj, "explanation")
		if err != nil {
			return nil, err
		}
		return &QuoteExplanationResult{Explanation: explanation}, nil
	case TaskMaterialsGeneration:
		return parseMaterialsGeneration(obj)
	case TaskMaterialsExplanation:
		explanation, err := requireString(obj, "explanation")
		if err != nil {
			return nil, err
		}
		return &MaterialsExplanationResult{Explanation: explanation}, nil
	case TaskFollowUpDraft:
		return parseFollowUpDraft(obj)
	default:
		return nil, newError(CodeInvalidTask, "unknown task kind")
	}
}

func parseCallScript(obj map[string]interface{}) (*CallScriptResult, error) {
	voice, err := requireString(obj, "voice")
	if err != nil {
		return nil, err
	}
	style, err := requireString(obj, "greetingStyle")
	if err != nil {
		return nil, err
	}
	allowVoicemail, err := requireBool(obj, "allowVoicemail")
	if err != nil {
		return nil, err
	}
	script, err := requireString(obj, "scriptText")
	if err != nil {
		return nil, err
	}
	return &CallScriptResult{
		Voice:          voice,
		GreetingStyle:  style,
		AllowVoicemail: allowVoicemail,
		ScriptText:     script,
	}, nil
}

func parseLiveGuidance(obj map[string]interface{}) (*LiveGuidanceResult, error) {
	steps, err := requireStringArray(obj, "steps")
	if err != nil {
		return nil, err
	}
	return &LiveGuidanceResult{Steps: steps}, nil
}

func parseCallEnrichment(obj map[string]interface{}) (*CallEnrichmentResult, error) {
	reached, err := requireBool(obj, "reachedCustomer")
	if err != nil {
		return nil, err
	}
	rawCode, err := requireString(obj, "outcomeCode")
	if err != nil {
		return nil, err
	}
	code := telephony.NormalizeOutcome(rawCode)
	if !domain.IsKnownOutcomeCode(code) {
		return nil, newError(CodeInvalidModelOutput, "outcomeCode is not a canonical outcome")
	}
	notes, err := requireString(obj, "outcomeNotes")
	if err != nil {
		return nil, err
	}
	summary, err := requireString(obj, "summary")
	if err != nil {
		return nil, err
	}
	return &CallEnrichmentResult{
		ReachedCustomer: reached,
		OutcomeCode:     code,
		OutcomeNotes:    telephony.NormalizeNotes(notes),
		Summary:         summary,
	}, nil
}

func parseJobAfterCallSummary(obj map[string]interface{}) (*JobAfterCallSummaryResult, error) {
	summary, err := requireString(obj, "summary")
	if err != nil {
		return nil, err
	}
	steps, err := requireStringArray(obj, "nextSteps")
	if err != nil {
		return nil, err
	}
	return &JobAfterCallSummaryResult{Summary: summary, NextSteps: steps}, nil
}

func parseJobSchedulingSuggestion(obj map[string]interface{}) (*JobSchedulingSuggestionResult, error) {
	date, err := requireString(obj, "suggestedDate")
	if err != nil {
		return nil, err
	}
	reason, err := requireString(obj, "reason")
	if err != nil {
		return nil, err
	}
	return &JobSchedulingSuggestionResult{SuggestedDate: date, Reason: reason}, nil
}

func parseQuoteGeneration(obj map[string]interface{}) (*QuoteGenerationResult, error) {
	items, err := requireObjectArray(obj, "lineItems")
	if err != nil {
		return nil, err
	}
	result := &QuoteGenerationResult{Notes: optionalString(obj, "notes")}
	for _, item := range items {
		description, err := requireString(item, "description")
		if err != nil {
			return nil, err
		}
		quantity, err := requireNumber(item, "quantity")
		if err != nil {
			return nil, err
		}
		unitCents, err := requireNumber(item, "unitCents")
		if err != nil {
			return nil, err
		}
		result.LineItems = append(result.LineItems, QuoteLineSuggestion{
			Description: description,
			Quantity:    quantity,
			UnitCents:   int64(unitCents),
		})
	}
	return result, nil
}

func parseMaterialsGeneration(obj map[string]interface{}) (*MaterialsGenerationResult, error) {
	items, err := requireObjectArray(obj, "materials")
	if err != nil {
		return nil, err
	}
	result := &MaterialsGenerationResult{}
	for _, item := range items {
		name, err := requireString(item, "name")
		if err != nil {
			return nil, err
		}
		quantity, err := requireNumber(item, "quantity")
		if err != nil {
			return nil, err
		}
		result.Materials = append(result.Materials, MaterialSuggestion{
			Name:     name,
			Quantity: quantity,
			Unit:     optionalString(item, "unit"),
		})
	}
	return result, nil
}

func parseFollowUpDraft(obj map[string]interface{}) (*FollowUpDraftResult, error) {
	channel, err := requireString(obj, "channel")
	if err != nil {
		return nil, err
	}
	if channel != "sms" && channel != "email" {
		return nil, newError(CodeInvalidModelOutput, "channel must be sms or email")
	}
	message, err := requireString(obj, "message")
	if err != nil {
		return nil, err
	}
	return &FollowUpDraftResult{Channel: channel, Message: message}, nil
}
