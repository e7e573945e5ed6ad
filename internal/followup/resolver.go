package followup

import (
	"regexp"
	"strings"
)

// Context is the session state the resolver works against: the last resolved
// utterance plus the active entity context extracted from prior turns.
type Context struct {
	LastResolved string
	Subject      string
	Category     string
	Metric       string
	Relations    []string
}

// Resolver rewrites a follow-up utterance into a self-contained restatement.
// It is best-effort string substitution, not semantic parsing: it may pass
// the utterance through unchanged and it never fails.
//
// When several cues apply, precedence is fixed: entity substitution
// ("what about X") first, then superlative resolution ("the most expensive
// one"), then generic referential cues that only append prior context.
type Resolver struct{}

// NewResolver creates a follow-up resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

var (
	substitutionRe = regexp.MustCompile(`(?i)^\s*(?:and\s+)?(?:what|how)\s+about\s+(.+?)\s*[?.!]*\s*$`)
	superlativeRe  = regexp.MustCompile(`(?i)\b(most|least|best|worst|cheapest|largest|smallest|highest|lowest)\b.*\b(ones|one)\b`)
	onesRe         = regexp.MustCompile(`(?i)\b(?:ones|one)\b`)
)

// Generic referential cues; any of these marks the utterance as a follow-up
// that needs prior context appended.
var referentialCues = []string{
	"those", "these", "that one", "this one", "them", "the same",
	"also", "too", "as well", "additionally",
	"more of", "another", "the previous", "the last", "earlier",
}

// Resolve produces a self-contained restatement of utterance. Worst case it
// returns the input unchanged.
func (r *Resolver) Resolve(c Context, utterance string) string {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" || c.LastResolved == "" {
		return trimmed
	}

	if resolved, ok := r.substituteEntity(c, trimmed); ok {
		return resolved
	}
	if resolved, ok := r.resolveSuperlative(c, trimmed); ok {
		return resolved
	}
	if r.hasReferentialCue(trimmed) {
		return r.appendContext(c, trimmed)
	}

	return trimmed
}

// substituteEntity handles "what about Furniture?": the new entity takes the
// structural role the prior entity held in the last resolved utterance.
func (r *Resolver) substituteEntity(c Context, utterance string) (string, bool) {
	m := substitutionRe.FindStringSubmatch(utterance)
	if m == nil {
		return "", false
	}
	replacement := strings.TrimSpace(m[1])
	if replacement == "" {
		return "", false
	}

	for _, prior := range []string{c.Category, c.Subject, c.Metric} {
		if prior == "" {
			continue
		}
		if resolved, ok := replaceInsensitive(c.LastResolved, prior, replacement); ok {
			return resolved, true
		}
	}

	// No prior entity to substitute; fall back to a minimal restatement
	return "show " + replacement, true
}

// resolveSuperlative handles "the most expensive one": "one" is replaced by
// the active subject so the restatement stands alone.
func (r *Resolver) resolveSuperlative(c Context, utterance string) (string, bool) {
	if c.Subject == "" || !superlativeRe.MatchString(utterance) {
		return "", false
	}

	resolved := onesRe.ReplaceAllString(utterance, c.Subject)
	if !startsWithVerb(resolved) {
		resolved = "show " + resolved
	}
	return resolved, true
}

func (r *Resolver) hasReferentialCue(utterance string) bool {
	lower := " " + strings.ToLower(utterance) + " "
	for _, cue := range referentialCues {
		if strings.Contains(lower, " "+cue+" ") || strings.Contains(lower, " "+cue+"?") {
			return true
		}
	}
	return false
}

// appendContext keeps the utterance intact and appends the prior context so
// generation sees a self-contained request
func (r *Resolver) appendContext(c Context, utterance string) string {
	parts := []string{utterance, "(context: previous question was \"" + c.LastResolved + "\""}
	if len(c.Relations) > 0 {
		parts = append(parts, "using "+strings.Join(c.Relations, ", "))
	}
	return strings.Join(parts, " ") + ")"
}

// replaceInsensitive replaces the first case-insensitive occurrence of old
func replaceInsensitive(s, old, new string) (string, bool) {
	idx := strings.Index(strings.ToLower(s), strings.ToLower(old))
	if idx < 0 {
		return "", false
	}
	return s[:idx] + new + s[idx+len(old):], true
}

func startsWithVerb(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, verb := range []string{"show", "list", "display", "get", "find", "count", "calculate", "give"} {
		if strings.HasPrefix(lower, verb+" ") {
			return true
		}
	}
	return false
}
