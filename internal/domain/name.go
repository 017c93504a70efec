package domain

import (
	"regexp"
)

// MaxNameLength bounds display names on every board, local or hosted.
const MaxNameLength = 20

// FallbackName attributes entries whose name sanitizes to nothing.
const FallbackName = "Anonymous"

var disallowedNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeName reduces a user-chosen display name to the charset every
// board accepts: letters, digits, underscore and hyphen, at most 20
// characters, never empty. The identity provider does not validate names,
// so this runs before a name is stored anywhere.
func SanitizeName(name string) string {
	clean := disallowedNameChars.ReplaceAllString(name, "")
	if len(clean) > MaxNameLength {
		clean = clean[:MaxNameLength]
	}
	if clean == "" {
		return FallbackName
	}
	return clean
}
