package escalation

import "regexp"

// Marker is the note the system prompt tells the model to append when it
// judges a query off-topic or sensitive. Any change to Marker or to the prompt
// wording must keep markerPattern matching.
const Marker = "**[Admin email alert triggered for off-topic query]**"

// markerPattern matches the opening of Marker regardless of case and of how
// the model spaces the words.
var markerPattern = regexp.MustCompile(`(?i)\[\s*admin\s*email\s*alert`)

// IsEscalation reports whether text carries the admin alert marker.
func IsEscalation(text string) bool {
	return markerPattern.MatchString(text)
}
