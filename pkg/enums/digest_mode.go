package enums

import "fmt"

// EmailDigestMode controls whether a user receives emails immediately or batched.
type EmailDigestMode string

const (
	DigestModeImmediate EmailDigestMode = "immediate"
	DigestModeDaily     EmailDigestMode = "daily_digest"
)

var validEmailDigestModes = []EmailDigestMode{
	DigestModeImmediate,
	DigestModeDaily,
}

// IsValid reports whether the value is a known EmailDigestMode.
func (d EmailDigestMode) IsValid() bool {
	for _, candidate := range validEmailDigestModes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseEmailDigestMode converts raw input into an EmailDigestMode.
func ParseEmailDigestMode(value string) (EmailDigestMode, error) {
	for _, candidate := range validEmailDigestModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid email digest mode %q", value)
}
