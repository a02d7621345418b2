package telephony

import (
	twclient "github.com/twilio/twilio-go/client"
)

// VerifyReason explains a failed webhook signature verification.
type VerifyReason string

const (
	// ReasonMissingToken means the shared auth token is not configured.
	// Treated as a hard failure, never "skip verification".
	ReasonMissingToken VerifyReason = "missing_token"
	// ReasonMissingSignature means the signature header was absent.
	ReasonMissingSignature VerifyReason = "missing_signature"
	// ReasonInvalidSignature means the computed signature did not match.
	ReasonInvalidSignature VerifyReason = "invalid_signature"
)

// VerifyResult is the outcome of a signature check.
type VerifyResult struct {
	Valid  bool
	Reason VerifyReason
}

// SignatureVerifier validates that an inbound webhook genuinely
// originated from the telephony provider. The check covers the exact
// externally visible request URL and the full set of form parameters.
type SignatureVerifier struct {
	authToken string
	validator twclient.RequestValidator
}

// NewSignatureVerifier creates a verifier for the given shared auth
// token. An empty token fails every verification closed.
func NewSignatureVerifier(authToken string) *SignatureVerifier {
	return &SignatureVerifier{
		authToken: authToken,
		validator: twclient.NewRequestValidator(authToken),
	}
}

// Verify checks the signature header against the request URL and the
// submitted form parameters. It must be called before any event data is
// read or written; a failed result short-circuits the webhook.
func (v *SignatureVerifier) Verify(signatureHeader, requestURL string, params map[string]string) VerifyResult {
	if v.authToken == "" {
		return VerifyResult{Valid: false, Reason: ReasonMissingToken}
	}
	if signatureHeader == "" {
		return VerifyResult{Valid: false, Reason: ReasonMissingSignature}
	}
	if !v.validator.Validate(requestURL, params, signatureHeader) {
		return VerifyResult{Valid: false, Reason: ReasonInvalidSignature}
	}
	return VerifyResult{Valid: true}
}
