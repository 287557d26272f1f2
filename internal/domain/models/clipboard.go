package models

import "time"

// SensitiveKind names a category of data the clipboard guard recognises.
type SensitiveKind string

const (
	SensitiveCardNumber SensitiveKind = "card_number"
	SensitiveIBAN       SensitiveKind = "iban"
	SensitiveEmail      SensitiveKind = "email"
	SensitivePhone      SensitiveKind = "phone"
	SensitiveSSN        SensitiveKind = "ssn"
)

// ClipboardResult is returned after a successful copy.
type ClipboardResult struct {
	Success           bool            `json:"success"`
	WillAutoClear     bool            `json:"will_auto_clear"`
	AutoClearDuration time.Duration   `json:"auto_clear_duration"`
	Detected          []SensitiveKind `json:"detected,omitempty"`
}
