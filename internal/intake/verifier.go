package intake

import (
	"net/http"
	"strings"

	"civicpulse_backend/internal/twilio"
	"civicpulse_backend/platform/logger"
)

// SignatureHeader is the provider's request signature header.
const SignatureHeader = "X-Twilio-Signature"

// Verifier authenticates inbound webhooks. It fails closed: missing header,
// URL mismatch, or digest mismatch all reject the request before any state
// is touched.
type Verifier struct {
	authToken     string
	configuredURL string
	log           *logger.Logger
}

// NewVerifier creates a webhook verifier. configuredURL, when non-empty, is
// used verbatim as the signed URL and wins over header reconstruction.
func NewVerifier(authToken, configuredURL string, log *logger.Logger) *Verifier {
	return &Verifier{
		authToken:     authToken,
		configuredURL: strings.TrimSpace(configuredURL),
		log:           log,
	}
}

// Verify checks the provider signature against the canonical request URL and
// the decoded form parameters. Returns false on any mismatch.
func (v *Verifier) Verify(r *http.Request, params map[string]string) bool {
	signature := r.Header.Get(SignatureHeader)
	url := v.canonicalURL(r)

	if signature == "" {
		v.log.WebhookRejected("missing signature", url, len(params), clientIP(r))
		return false
	}

	if !twilio.ValidateSignature(v.authToken, signature, url, params) {
		v.log.WebhookRejected("signature mismatch", url, len(params), clientIP(r))
		return false
	}

	return true
}

// canonicalURL reconstructs the URL the provider signed. Exactly one policy
// is trusted: a configured public URL when set, otherwise the reverse proxy's
// X-Forwarded-Proto and X-Forwarded-Host headers with the request path and
// query carried over. Direct TLS state and Host are the last resort for
// proxyless deployments.
func (v *Verifier) canonicalURL(r *http.Request) string {
	if v.configuredURL != "" {
		return v.configuredURL
	}

	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}

	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}

	return scheme + "://" + host + r.URL.RequestURI()
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	return r.RemoteAddr
}
