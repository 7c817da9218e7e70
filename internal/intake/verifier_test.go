package intake

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"civicpulse_backend/internal/twilio"
	"civicpulse_backend/platform/logger"
)

const verifierToken = "test-auth-token"

func TestVerifierAcceptsCorrectlySignedRequest(t *testing.T) {
	params := map[string]string{"From": "whatsapp:+15550001111", "Body": "hi"}
	signedURL := "https://hooks.example.com/api/v1/hooks/twilio"

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	req := httptest.NewRequest("POST", "/api/v1/hooks/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "hooks.example.com")
	req.Header.Set(SignatureHeader, twilio.ComputeSignature(verifierToken, signedURL, params))

	v := NewVerifier(verifierToken, "", logger.New("development"))
	if !v.Verify(req, params) {
		t.Fatal("expected correctly signed request to pass")
	}
}

func TestVerifierUsesConfiguredURLWhenSet(t *testing.T) {
	params := map[string]string{"From": "whatsapp:+15550001111", "Body": "hi"}
	configured := "https://public.example.com/api/v1/hooks/twilio"

	req := httptest.NewRequest("POST", "/api/v1/hooks/twilio", nil)
	// Forwarded headers disagree with the configured URL; configured wins.
	req.Header.Set("X-Forwarded-Host", "internal.example.com")
	req.Header.Set(SignatureHeader, twilio.ComputeSignature(verifierToken, configured, params))

	v := NewVerifier(verifierToken, configured, logger.New("development"))
	if !v.Verify(req, params) {
		t.Fatal("expected signature against configured URL to pass")
	}
}

func TestVerifierRejectsMissingSignature(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/hooks/twilio", nil)

	v := NewVerifier(verifierToken, "", logger.New("development"))
	if v.Verify(req, map[string]string{"Body": "hi"}) {
		t.Fatal("expected missing signature to be rejected")
	}
}

func TestVerifierRejectsTamperedBody(t *testing.T) {
	params := map[string]string{"From": "whatsapp:+15550001111", "Body": "hi"}
	signedURL := "https://hooks.example.com/api/v1/hooks/twilio"

	req := httptest.NewRequest("POST", "/api/v1/hooks/twilio", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "hooks.example.com")
	req.Header.Set(SignatureHeader, twilio.ComputeSignature(verifierToken, signedURL, params))

	tampered := map[string]string{"From": "whatsapp:+15550001111", "Body": "attacker text"}
	v := NewVerifier(verifierToken, "", logger.New("development"))
	if v.Verify(req, tampered) {
		t.Fatal("expected tampered params to be rejected")
	}
}

func TestVerifierRejectsHostMismatch(t *testing.T) {
	params := map[string]string{"Body": "hi"}
	signedURL := "https://hooks.example.com/api/v1/hooks/twilio"

	req := httptest.NewRequest("POST", "/api/v1/hooks/twilio", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "other.example.com")
	req.Header.Set(SignatureHeader, twilio.ComputeSignature(verifierToken, signedURL, params))

	v := NewVerifier(verifierToken, "", logger.New("development"))
	if v.Verify(req, params) {
		t.Fatal("expected forwarded-host mismatch to be rejected")
	}
}

func TestCanonicalURLCarriesQueryString(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/hooks/twilio?foo=1", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "hooks.example.com")

	v := NewVerifier(verifierToken, "", logger.New("development"))
	got := v.canonicalURL(req)
	want := "https://hooks.example.com/api/v1/hooks/twilio?foo=1"
	if got != want {
		t.Fatalf("canonicalURL = %q, want %q", got, want)
	}
}
