package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Request size limits (in bytes)
const (
	MaxJSONSize    = 1 * 1024 * 1024 // 1MB - baseline request body size
	MaxMessageSize = 16 * 1024       // 16KB - discovery query size
)

// String length limits
const (
	MaxIDLength       = 128
	MaxCategoryLength = 64
	MaxParamsDepth    = 8
)

// Regular expressions for validation
var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// ToolIDPattern allows alphanumeric, hyphens, underscores, and dots (for service.tool format)
	ToolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// ErrTooDeep reports a parameter object nested beyond MaxParamsDepth.
var ErrTooDeep = errors.New("nesting too deep")

// ValidateJSONDepth checks if decoded JSON nesting depth is within limits
func ValidateJSONDepth(data any, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data any, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return fmt.Errorf("%w: depth %d exceeds maximum %d", ErrTooDeep, currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]any:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []any:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateString validates length and rejects NUL bytes
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if value == "" {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateID validates an identifier such as an actor or request ID
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}
	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}
	return nil
}

// ValidateToolID validates a bare tool name or a service.tool ID
func ValidateToolID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}
	if id != "" && !ToolIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateCategory validates a service category filter
func ValidateCategory(category string, required bool) error {
	if err := ValidateString(category, "category", 1, MaxCategoryLength, required); err != nil {
		return err
	}
	if category != "" && !SafeIDPattern.MatchString(category) {
		return fmt.Errorf("category contains invalid characters")
	}
	return nil
}

// ValidateMessage validates a free-text discovery query
func ValidateMessage(message string) error {
	return ValidateString(message, "message", 1, MaxMessageSize, true)
}
