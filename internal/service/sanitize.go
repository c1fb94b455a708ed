package service

import (
	"regexp"
	"strings"
)

// MaxAnswerLines bounds how many lines of a completion are shown.
const MaxAnswerLines = 20

var (
	boldAsterisk   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	boldUnderscore = regexp.MustCompile(`__(.*?)__`)
)

// Sanitize turns raw completion text into display-safe assistant content:
// bold markup stripped, first 20 lines kept, runs of blank lines collapsed to
// one.
func Sanitize(text string) string {
	text = stripBold(text)

	lines := strings.Split(text, "\n")
	if len(lines) > MaxAnswerLines {
		lines = lines[:MaxAnswerLines]
	}

	kept := make([]string, 0, len(lines))
	prevBlank := false
	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if blank && prevBlank {
			continue
		}
		kept = append(kept, line)
		prevBlank = blank
	}

	return strings.Join(kept, "\n")
}

// stripBold repeats until stable; removing one marker kind can pair up the
// other, as in "*__*x*__*".
func stripBold(text string) string {
	for {
		next := boldAsterisk.ReplaceAllString(text, "$1")
		next = boldUnderscore.ReplaceAllString(next, "$1")
		if next == text {
			return text
		}
		text = next
	}
}
