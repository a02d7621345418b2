package telephony

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCallScriptGreetingAndScript(t *testing.T) {
	doc, err := RenderCallScript(SpeechPlan{
		Voice:         "Polly.Joanna",
		GreetingStyle: "professional",
		ScriptText:    "First line.\n\nSecond line.\nThird line is dropped.",
	})
	require.NoError(t, err)

	assert.Contains(t, doc, "Good day.")
	assert.Contains(t, doc, "First line.")
	assert.Contains(t, doc, "Second line.")
	assert.NotContains(t, doc, "Third line")
	assert.NotContains(t, doc, "<Pause")
}

func TestRenderCallScriptFallbackSentence(t *testing.T) {
	doc, err := RenderCallScript(DefaultSpeechPlan())
	require.NoError(t, err)
	assert.Contains(t, doc, "calling to follow up")
}

func TestRenderCallScriptVoicemailCoda(t *testing.T) {
	plan := DefaultSpeechPlan()
	plan.AllowVoicemail = true
	doc, err := RenderCallScript(plan)
	require.NoError(t, err)

	assert.Contains(t, doc, "<Pause")
	assert.Contains(t, doc, "voicemail")
	assert.Contains(t, doc, "call us back")
}

func TestRenderCallScriptEscapesMarkup(t *testing.T) {
	doc, err := RenderCallScript(SpeechPlan{
		Voice:         DefaultPlanVoice,
		GreetingStyle: "friendly",
		ScriptText:    `Quote for <roof> repair & "gutters"`,
	})
	require.NoError(t, err)

	assert.NotContains(t, doc, "<roof>")
	assert.Contains(t, doc, "&amp;")
	// The only raw angle brackets left are TwiML's own tags.
	stripped := strings.ReplaceAll(doc, "<Response>", "")
	stripped = strings.ReplaceAll(stripped, "</Response>", "")
	assert.NotContains(t, stripped, "<roof")
}

func TestRenderCallScriptUnknownGreetingStyle(t *testing.T) {
	doc, err := RenderCallScript(SpeechPlan{GreetingStyle: "whimsical"})
	require.NoError(t, err)
	assert.Contains(t, doc, greetingLines[DefaultPlanGreetingStyle])
}
