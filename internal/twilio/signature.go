package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"sort"
)

// ComputeSignature calculates the expected X-Twilio-Signature for a request.
// Per Twilio's scheme: concatenate the full URL with every POST parameter
// name and value, names sorted lexicographically, then HMAC-SHA1 with the
// account auth token and base64-encode the digest.
func ComputeSignature(authToken, url string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(url))
	for _, name := range names {
		mac.Write([]byte(name))
		mac.Write([]byte(params[name]))
	}

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature reports whether the provided signature matches the
// expected one for the URL and parameters. Comparison is constant-time.
func ValidateSignature(authToken, signature, url string, params map[string]string) bool {
	if authToken == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(authToken, url, params)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
