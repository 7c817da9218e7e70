// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "IN"

// channelPrefix marks messaging-channel addresses such as "whatsapp:+91...".
const channelPrefix = "whatsapp:"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// StripChannel removes a leading "whatsapp:" channel prefix, leaving the bare
// address. Addresses without the prefix are returned trimmed.
func StripChannel(address string) string {
	trimmed := strings.TrimSpace(address)
	if strings.HasPrefix(strings.ToLower(trimmed), channelPrefix) {
		return trimmed[len(channelPrefix):]
	}
	return trimmed
}

// WithChannel prefixes a bare address with the "whatsapp:" channel marker if
// it is not already present.
func WithChannel(address string) string {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return trimmed
	}
	if strings.HasPrefix(strings.ToLower(trimmed), channelPrefix) {
		return trimmed
	}
	return channelPrefix + trimmed
}
