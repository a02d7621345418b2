package telephony

import (
	"strings"

	"github.com/twilio/twilio-go/twiml"
)

// Fixed sentences used by the renderer. The spoken script is provider
// parsed XML, so all interpolated text goes through the TwiML encoder
// rather than string concatenation.
const (
	fallbackScriptLine = "We are calling to follow up on your recent request. Please call us back at your convenience."
	voicemailIntro     = "If we have reached your voicemail, we will leave a short message."
	voicemailCallback  = "Please call us back when you have a moment. Thank you."
)

// greetingLines maps a speech plan greeting style to its opening line.
var greetingLines = map[string]string{
	"friendly":     "Hi there! This is an automated call from your service provider.",
	"professional": "Good day. This is an automated call on behalf of your service provider.",
	"casual":       "Hey, quick automated call from your service provider.",
}

// RenderCallScript turns a speech plan into a provider voice-response
// document: a greeting line, then at most the first two non-empty script
// lines (or a fixed fallback), then an optional voicemail coda.
func RenderCallScript(plan SpeechPlan) (string, error) {
	greeting, ok := greetingLines[strings.ToLower(plan.GreetingStyle)]
	if !ok {
		greeting = greetingLines[DefaultPlanGreetingStyle]
	}

	voice := plan.Voice
	if voice == "" {
		voice = DefaultPlanVoice
	}

	verbs := []twiml.Element{
		&twiml.VoiceSay{Message: greeting, Voice: voice},
	}
	for _, line := range scriptLines(plan.ScriptText) {
		verbs = append(verbs, &twiml.VoiceSay{Message: line, Voice: voice})
	}

	if plan.AllowVoicemail {
		verbs = append(verbs,
			&twiml.VoicePause{Length: "1"},
			&twiml.VoiceSay{Message: voicemailIntro, Voice: voice},
			&twiml.VoiceSay{Message: voicemailCallback, Voice: voice},
		)
	}

	return twiml.Voice(verbs)
}

// scriptLines returns the first two non-empty lines of the script text,
// or the fixed fallback line when the script is empty.
func scriptLines(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
		if len(lines) == 2 {
			return lines
		}
	}
	if len(lines) == 0 {
		return []string{fallbackScriptLine}
	}
	return lines
}
