package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var (
	userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

	// advisory only: other types are accepted and passed through
	suggestedExtensions = map[string]bool{
		".pdf": true, ".docx": true, ".jpg": true, ".jpeg": true, ".png": true,
	}
)

// ValidateUserID validates user identity format
func ValidateUserID(user string) error {
	if user == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if !userIDPattern.MatchString(user) {
		return fmt.Errorf("invalid user ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// SanitizeFileName strips directories and path tricks from an uploaded name.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(SanitizeString(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// IsSuggestedExtension reports whether the file matches the upload picker's suggestion list.
func IsSuggestedExtension(name string) bool {
	return suggestedExtensions[strings.ToLower(filepath.Ext(name))]
}
