package telephony

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeechPlanRoundTrip(t *testing.T) {
	plan := SpeechPlan{
		Voice:          "Polly.Matthew",
		GreetingStyle:  "professional",
		AllowVoicemail: true,
		ScriptText:     "Hi, this is about your boiler repair.\nWe can come Tuesday.",
	}

	encoded, err := EncodeSpeechPlan(plan)
	require.NoError(t, err)
	assert.Contains(t, encoded, plan.ScriptText)
	assert.Contains(t, encoded, PlanMarker)

	decoded := DecodeSpeechPlan(encoded)
	assert.Equal(t, plan, decoded)
}

func TestDecodeSpeechPlanNoMarker(t *testing.T) {
	decoded := DecodeSpeechPlan("a plain human summary written before plans existed")
	assert.Equal(t, DefaultSpeechPlan(), decoded)
}

func TestDecodeSpeechPlanBadPayload(t *testing.T) {
	decoded := DecodeSpeechPlan("script" + PlanMarker + "{not json")
	assert.Equal(t, DefaultSpeechPlan(), decoded)
}

func TestDecodeSpeechPlanEmptySummary(t *testing.T) {
	decoded := DecodeSpeechPlan("")
	assert.Equal(t, DefaultSpeechPlan(), decoded)
	assert.False(t, decoded.AllowVoicemail)
	assert.Empty(t, decoded.ScriptText)
}
