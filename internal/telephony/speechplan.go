package telephony

import (
	"encoding/json"
	"strings"
)

// PlanMarker separates the human-legible script text from the embedded
// JSON payload inside the call summary column. Legacy-compatible: rows
// written before the codec existed simply have no marker.
const PlanMarker = "\n---speech-plan---\n"

// Default plan values used whenever a stored summary has no decodable
// plan. The renderer must always get a usable plan.
const (
	DefaultPlanVoice         = "Polly.Joanna"
	DefaultPlanGreetingStyle = "friendly"
)

// SpeechPlan describes how an outbound automated call should speak.
type SpeechPlan struct {
	Voice          string `json:"voice"`
	GreetingStyle  string `json:"greetingStyle"`
	AllowVoicemail bool   `json:"allowVoicemail"`
	ScriptText     string `json:"scriptText,omitempty"`
}

// DefaultSpeechPlan returns the conservative fallback plan: default
// voice, friendly greeting, voicemail disabled, no script.
func DefaultSpeechPlan() SpeechPlan {
	return SpeechPlan{
		Voice:          DefaultPlanVoice,
		GreetingStyle:  DefaultPlanGreetingStyle,
		AllowVoicemail: false,
	}
}

// EncodeSpeechPlan produces a summary value: the script text as legible
// free text, then the marker, then the JSON-encoded plan.
func EncodeSpeechPlan(plan SpeechPlan) (string, error) {
	payload, err := json.Marshal(plan)
	if err != nil {
		return "", err
	}
	return plan.ScriptText + PlanMarker + string(payload), nil
}

// DecodeSpeechPlan recovers a plan from a stored summary value. If the
// marker is missing or the payload does not parse, the default plan is
// returned; decoding never fails.
func DecodeSpeechPlan(summary string) SpeechPlan {
	idx := strings.LastIndex(summary, PlanMarker)
	if idx < 0 {
		return DefaultSpeechPlan()
	}

	var plan SpeechPlan
	payload := summary[idx+len(PlanMarker):]
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return DefaultSpeechPlan()
	}
	if plan.Voice == "" {
		plan.Voice = DefaultPlanVoice
	}
	if plan.GreetingStyle == "" {
		plan.GreetingStyle = DefaultPlanGreetingStyle
	}
	return plan
}
