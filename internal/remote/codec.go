package remote

import (
	"fmt"
	"strconv"
	"strings"
)

// The hosted API accepts only name, score, seconds and one free text field
// per entry, so the remaining run details travel pipe-packed in the text.

// encodeText packs floor, character and date into the entry text field.
func encodeText(floor int, character, date string) string {
	character = strings.ReplaceAll(character, "|", "")
	date = strings.ReplaceAll(date, "|", "")
	return fmt.Sprintf("%d|%s|%s", floor, character, date)
}

// decodeText unpacks a text field written by encodeText. Missing or
// malformed parts decode to zero values.
func decodeText(text string) (floor int, character, date string) {
	parts := strings.SplitN(text, "|", 3)
	if len(parts) > 0 {
		floor, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		character = parts[1]
	}
	if len(parts) > 2 {
		date = parts[2]
	}
	return floor, character, date
}
