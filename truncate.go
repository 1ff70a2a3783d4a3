package radar

import "unicode/utf8"

// TruncationMarker is appended to truncated text.
const TruncationMarker = "\n\n[Content truncated]"

// Truncate cuts text to max characters and appends TruncationMarker.
// It returns the text, whether it was truncated, and the original length
// in characters.
func Truncate(text string, max int) (string, bool, int) {
	n := utf8.RuneCountInString(text)
	if n <= max {
		return text, false, n
	}
	i := 0
	for pos := range text {
		if i == max {
			return text[:pos] + TruncationMarker, true, n
		}
		i++
	}
	return text, false, n
}
