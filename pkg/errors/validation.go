package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateEmployeeID validates a directory object identifier for safety.
// IDs end up in cache keys and file names, so the rules are conservative:
// non-empty, no control characters, no path separators, bounded length.
func ValidateEmployeeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "employee id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "employee id too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "employee id contains control characters")
		}
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "employee id contains path characters")
	}
	return nil
}

// emailRegex is deliberately loose: one @, no whitespace, something on
// both sides. The directory provider is the authority on real addresses.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// ValidateEmail validates an email address used to select the top-level user.
// Empty is allowed (it means "auto-detect").
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if !emailRegex.MatchString(email) {
		return New(ErrCodeInvalidInput, "invalid email address: %q", email)
	}
	return nil
}

// hexColorRegex matches #RGB and #RRGGBB color values.
var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateHexColor validates a chart color setting.
func ValidateHexColor(color string) error {
	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidSettings, "invalid hex color: %q", color)
	}
	return nil
}

// updateTimeRegex matches 24h HH:MM times.
var updateTimeRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// ValidateUpdateTime validates the nightly refresh time setting (HH:MM, 24h).
func ValidateUpdateTime(t string) error {
	if !updateTimeRegex.MatchString(t) {
		return New(ErrCodeInvalidSettings, "invalid update time %q (want HH:MM)", t)
	}
	return nil
}
