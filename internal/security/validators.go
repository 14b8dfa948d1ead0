package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Input length constraints
const (
	MaxPollTitleLength    = 100
	MaxQuestionTextLength = 300
	MaxOptionTextLength   = 100
	MaxVoterIDLength      = 64
	MinNameLength         = 1
)

var (
	// PocketBase ID regex - 15 character alphanumeric
	pocketbaseIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{15}$`)
	// UUID validation regex
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	// Voter identifiers are opaque device/session strings; keep them to
	// a safe charset so they can be logged and indexed verbatim.
	voterIDRegex = regexp.MustCompile(`^[a-zA-Z0-9.\-_:]+$`)
	// Display text: Unicode letters/numbers plus common punctuation
	textRegex = regexp.MustCompile(`^[\p{L}\p{N}\s'\-_.,?!()]+$`)
	// Dangerous characters that could be used for injection attacks
	dangerousCharsRegex = regexp.MustCompile(`[<>{}[\]\\;|&$` + "`" + `]`)
)

// ValidateRecordID validates that a string is a valid PocketBase ID or
// UUID format. PocketBase uses 15-character alphanumeric IDs.
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}

	if pocketbaseIDRegex.MatchString(id) {
		return nil
	}

	// Fallback: standard UUID format (for compatibility)
	if uuidRegex.MatchString(strings.ToLower(id)) {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("malformed UUID: %w", err)
		}
		return nil
	}

	return fmt.Errorf("invalid ID format (expected 15-character PocketBase ID or UUID)")
}

// ValidateVoterIdentifier validates the opaque per-device identifier a
// taker presents with each vote. It is not tied to an account; it only
// needs to be stable, non-empty and safe to store.
func ValidateVoterIdentifier(voterID string) error {
	if voterID == "" {
		return fmt.Errorf("voter identifier cannot be empty")
	}
	if len(voterID) > MaxVoterIDLength {
		return fmt.Errorf("voter identifier too long (max %d characters)", MaxVoterIDLength)
	}
	if !voterIDRegex.MatchString(voterID) {
		return fmt.Errorf("voter identifier contains invalid characters")
	}
	return nil
}

// ValidateText validates a display string with length and character
// constraints. Returns the sanitized text.
func ValidateText(text string, maxLen int) (string, error) {
	text = strings.TrimSpace(text)

	if text == "" {
		return "", fmt.Errorf("text cannot be empty")
	}
	if len(text) < MinNameLength {
		return "", fmt.Errorf("text too short (min %d characters)", MinNameLength)
	}
	if len(text) > maxLen {
		return "", fmt.Errorf("text too long (max %d characters)", maxLen)
	}

	if !textRegex.MatchString(text) {
		return "", fmt.Errorf("text contains invalid characters")
	}
	if dangerousCharsRegex.MatchString(text) {
		return "", fmt.Errorf("text contains potentially dangerous characters")
	}

	for _, r := range text {
		if r < 32 || r == 127 {
			return "", fmt.Errorf("text contains control characters")
		}
	}

	return text, nil
}

// ValidatePollTitle validates a poll title.
func ValidatePollTitle(title string) (string, error) {
	return ValidateText(title, MaxPollTitleLength)
}

// ValidateQuestionText validates a question's display text.
func ValidateQuestionText(text string) (string, error) {
	return ValidateText(text, MaxQuestionTextLength)
}

// ValidateOptionText validates an option's display text.
func ValidateOptionText(text string) (string, error) {
	return ValidateText(text, MaxOptionTextLength)
}

// SanitizeErrorMessage removes sensitive information from error
// messages before they leave the process.
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	sensitivePatterns := []string{
		"sql",
		"database",
		"record",
		"collection",
		"pocketbase",
		"constraint",
		"foreign key",
		"unique",
		"duplicate key",
		"no rows",
	}

	for _, pattern := range sensitivePatterns {
		if strings.Contains(errStr, pattern) {
			return "An error occurred while processing your request"
		}
	}

	return err.Error()
}
