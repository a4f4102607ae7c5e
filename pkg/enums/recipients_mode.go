package enums

import "fmt"

// RecipientsMode selects which tenant members a dispatch targets.
type RecipientsMode string

const (
	RecipientsOwnersManagers RecipientsMode = "owners_managers"
	RecipientsAll            RecipientsMode = "all"
	RecipientsCustom         RecipientsMode = "custom"
)

var validRecipientsModes = []RecipientsMode{
	RecipientsOwnersManagers,
	RecipientsAll,
	RecipientsCustom,
}

// IsValid reports whether the value is a known RecipientsMode.
func (r RecipientsMode) IsValid() bool {
	for _, candidate := range validRecipientsModes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecipientsMode converts raw input into a RecipientsMode.
func ParseRecipientsMode(value string) (RecipientsMode, error) {
	for _, candidate := range validRecipientsModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recipients mode %q", value)
}
