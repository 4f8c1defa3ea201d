package respond

import "strings"

// noSuggestions is the sentinel the model replies with when it declines to
// propose follow-ups.
const noSuggestions = "NONE"

// parseSuggestions extracts up to n follow-up questions from the model's
// reply. Lines are stripped of numbering and bullet markers; blank lines
// are skipped. It returns nil, never an empty slice, when the model
// declined or nothing parseable remains.
func parseSuggestions(reply string, n int) []string {
	reply = strings.TrimSpace(reply)
	if reply == "" || strings.EqualFold(reply, noSuggestions) {
		return nil
	}

	var suggestions []string
	for _, line := range strings.Split(reply, "\n") {
		line = stripMarker(strings.TrimSpace(line))
		if line == "" || strings.EqualFold(line, noSuggestions) {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == n {
			break
		}
	}
	return suggestions
}

// stripMarker removes a leading list marker: "1." / "1)" numbering or a
// bullet ("-", "*", "•").
func stripMarker(line string) string {
	if rest, ok := strings.CutPrefix(line, "-"); ok {
		return strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(line, "*"); ok {
		return strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(line, "•"); ok {
		return strings.TrimSpace(rest)
	}

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
