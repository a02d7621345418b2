package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

// signParams computes a provider signature the same way the provider
// does: HMAC-SHA1 over the URL followed by the sorted key+value pairs.
func signParams(authToken, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := url
	for _, k := range keys {
		payload += k + params[k]
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyValidSignature(t *testing.T) {
	const token = "test-auth-token"
	url := "https://calls.example.com/twilio/voice/status?call=call-9&workspace=ws-1"
	params := map[string]string{
		"CallSid":    "CA1",
		"CallStatus": "ringing",
	}

	v := NewSignatureVerifier(token)
	result := v.Verify(signParams(token, url, params), url, params)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Reason)
}

func TestVerifyTamperedInputs(t *testing.T) {
	const token = "test-auth-token"
	url := "https://calls.example.com/twilio/voice/status"
	params := map[string]string{"CallSid": "CA1", "CallStatus": "completed"}
	sig := signParams(token, url, params)

	v := NewSignatureVerifier(token)

	t.Run("mutated signature", func(t *testing.T) {
		mutated := "A" + sig[1:]
		result := v.Verify(mutated, url, params)
		assert.False(t, result.Valid)
		assert.Equal(t, ReasonInvalidSignature, result.Reason)
	})

	t.Run("mutated url", func(t *testing.T) {
		result := v.Verify(sig, url+"x", params)
		assert.False(t, result.Valid)
		assert.Equal(t, ReasonInvalidSignature, result.Reason)
	})

	t.Run("mutated body", func(t *testing.T) {
		tampered := map[string]string{"CallSid": "CA1", "CallStatus": "failed"}
		result := v.Verify(sig, url, tampered)
		assert.False(t, result.Valid)
		assert.Equal(t, ReasonInvalidSignature, result.Reason)
	})
}

func TestVerifyMissingSignature(t *testing.T) {
	v := NewSignatureVerifier("test-auth-token")
	result := v.Verify("", "https://calls.example.com/x", nil)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonMissingSignature, result.Reason)
}

func TestVerifyMissingTokenFailsClosed(t *testing.T) {
	v := NewSignatureVerifier("")
	result := v.Verify("anything", "https://calls.example.com/x", nil)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonMissingToken, result.Reason)
}
