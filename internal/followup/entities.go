package followup

import (
	"regexp"
	"strings"
)

// Entities are the heuristically extracted references the ledger keeps as a
// session's active entity context
type Entities struct {
	Subject  string
	Category string
	Metric   string
}

var (
	categoryRe = regexp.MustCompile(`(?i)\bin\s+(?:the\s+)?([A-Za-z][\w ]*?)\s+category\b`)
	categoryAltRe = regexp.MustCompile(`(?i)\bcategory\s*(?:=|is)?\s*'?([A-Za-z]\w*)'?`)
	subjectRe  = regexp.MustCompile(`(?i)\b(?:show|list|display|get|find|count)\s+(?:me\s+)?(?:all\s+)?(?:the\s+)?(?:top\s+\d+\s+)?([a-z]+)`)
	metricRe   = regexp.MustCompile(`(?i)\bby\s+([a-z_]+)\b`)
)

// ExtractEntities pulls the most recently mentioned subject, category and
// metric out of a resolved utterance. Empty fields mean nothing was found;
// callers keep the previous value in that case.
func ExtractEntities(resolvedUtterance string) Entities {
	var e Entities

	if m := categoryRe.FindStringSubmatch(resolvedUtterance); m != nil {
		e.Category = strings.TrimSpace(m[1])
	} else if m := categoryAltRe.FindStringSubmatch(resolvedUtterance); m != nil {
		e.Category = m[1]
	}

	if m := subjectRe.FindStringSubmatch(resolvedUtterance); m != nil {
		subject := strings.ToLower(m[1])
		if !isStopword(subject) {
			e.Subject = subject
		}
	}

	if m := metricRe.FindStringSubmatch(resolvedUtterance); m != nil {
		e.Metric = strings.ToLower(m[1])
	}

	return e
}

func isStopword(word string) bool {
	switch word {
	case "me", "all", "the", "a", "an", "of", "in", "top":
		return true
	}
	return false
}
