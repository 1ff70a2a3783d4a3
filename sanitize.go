package radar

import "regexp"

// Placeholders substituted for personal data.
const (
	PlaceholderEmail  = "[EMAIL]"
	PlaceholderPhone  = "[PHONE]"
	PlaceholderIDCard = "[ID_CARD]"
	PlaceholderCard   = "[CARD]"
	PlaceholderIP     = "[IP]"
	PlaceholderUUID   = "[UUID]"
)

// piiRule replaces one kind of personal data.
type piiRule struct {
	kind        string
	re          *regexp.Regexp
	placeholder string
}

// piiRules run most specific first so that, for example, an 18-digit ID
// number is not reported as a card number.
var piiRules = []piiRule{
	{"uuid", regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`), PlaceholderUUID},
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`), PlaceholderEmail},
	{"id_card", regexp.MustCompile(`\b[1-9]\d{5}(?:18|19|20)\d{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])\d{3}[\dXx]\b`), PlaceholderIDCard},
	{"card", regexp.MustCompile(`\b(?:\d{4}[ -]?){3}\d{4}(?:\d{1,3})?\b`), PlaceholderCard},
	{"ip", regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`), PlaceholderIP},
	{"phone", regexp.MustCompile(`(?:\+?86[ -]?)?\b1[3-9]\d{9}\b`), PlaceholderPhone},
	{"phone", regexp.MustCompile(`\+\d{1,3}[ -]?\(?\d{2,4}\)?[ -]?\d{3,4}[ -]?\d{3,4}\b`), PlaceholderPhone},
	{"phone", regexp.MustCompile(`(?:\(\d{3}\)\s?|\b\d{3}[-. ])\d{3}[-. ]\d{4}\b`), PlaceholderPhone},
}

// Sanitize replaces emails, phone numbers, 18-digit ID numbers, card
// numbers, IPv4 addresses and UUIDs with fixed placeholders.
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(text string) string {
	out, _ := SanitizeReport(text)
	return out
}

// SanitizeReport is like Sanitize but also returns the number of
// redactions made per kind.
func SanitizeReport(text string) (string, map[string]int) {
	counts := make(map[string]int)
	// Replacements only ever remove digits, so passes terminate. Running to
	// a fixed point keeps the result stable when a replacement exposes a
	// new word boundary.
	for {
		changed := false
		for _, rule := range piiRules {
			n := 0
			text = rule.re.ReplaceAllStringFunc(text, func(string) string {
				n++
				return rule.placeholder
			})
			if n > 0 {
				counts[rule.kind] += n
				changed = true
			}
		}
		if !changed {
			return text, counts
		}
	}
}
