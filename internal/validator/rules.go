package validator

import (
	"regexp"
	"strings"
)

// mutatingKeywords are statement-altering or administrative operations that a
// generated read query must never contain
var mutatingKeywords = []string{
	"CREATE", "DROP", "ALTER", "TRUNCATE",
	"INSERT", "UPDATE", "DELETE", "MERGE",
	"GRANT", "REVOKE", "EXEC", "EXECUTE", "CALL",
}

var (
	mutatingRe = regexp.MustCompile(`\b(` + strings.Join(mutatingKeywords, "|") + `)\b`)

	// Tautologies surviving literal-stripping: OR 1=1, OR ''='', OR TRUE
	tautologyNumRe = regexp.MustCompile(`\bOR\s+(\d+)\s*=\s*(\d+)`)
	tautologyStrRe = regexp.MustCompile(`\bOR\s*''\s*=\s*''`)
	tautologyBoolRe = regexp.MustCompile(`\bOR\s+TRUE\b`)

	selectStarRe   = regexp.MustCompile(`\bSELECT\s+(DISTINCT\s+)?\*`)
	qualifiedRefRe = regexp.MustCompile(`\w+\.\w+`)
	relationRe     = regexp.MustCompile(`\b(?:FROM|JOIN)\s+([A-Za-z_][\w.]*)`)
)

// scannedQuery is the single-pass scan result every rule works from. String
// literal contents and comments are stripped before keyword matching so a
// quoted "drop" cannot trip the mutating-operation rule.
type scannedQuery struct {
	raw      string
	stripped string // literals emptied, comments removed
	upper    string // upper-cased stripped text

	statementCount   int
	parenBalance     int
	parenWentNegative bool
	unterminatedQuote bool
	maxLiteralLen     int
	hasLineComment    bool
	trailingComment   bool
	hasBlockComment   bool
}

// scan walks the query once, tracking quote and comment state
func scan(raw string) *scannedQuery {
	q := &scannedQuery{raw: raw}

	var out strings.Builder
	const (
		stNormal = iota
		stSingle
		stDouble
		stLineComment
		stBlockComment
	)
	state := stNormal
	literalLen := 0
	statementHasContent := false

	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch state {
		case stNormal:
			switch {
			case c == '\'':
				state = stSingle
				literalLen = 0
				out.WriteRune(c)
			case c == '"':
				state = stDouble
				out.WriteRune(c)
			case c == '-' && next == '-':
				state = stLineComment
				q.hasLineComment = true
				i++
			case c == '/' && next == '*':
				state = stBlockComment
				q.hasBlockComment = true
				i++
			case c == '(':
				q.parenBalance++
				out.WriteRune(c)
				statementHasContent = true
			case c == ')':
				q.parenBalance--
				if q.parenBalance < 0 {
					q.parenWentNegative = true
				}
				out.WriteRune(c)
				statementHasContent = true
			case c == ';':
				if statementHasContent {
					q.statementCount++
					statementHasContent = false
				}
				out.WriteRune(c)
			default:
				if !isSpace(c) {
					statementHasContent = true
				}
				out.WriteRune(c)
			}
		case stSingle:
			if c == '\'' {
				if next == '\'' {
					// escaped quote inside the literal
					literalLen += 2
					i++
					continue
				}
				state = stNormal
				if literalLen > q.maxLiteralLen {
					q.maxLiteralLen = literalLen
				}
				out.WriteRune(c)
			} else {
				literalLen++
			}
		case stDouble:
			if c == '"' {
				state = stNormal
			}
			out.WriteRune(c)
		case stLineComment:
			if c == '\n' {
				state = stNormal
				out.WriteRune(c)
			}
		case stBlockComment:
			if c == '*' && next == '/' {
				state = stNormal
				i++
			}
		}
	}

	if statementHasContent {
		q.statementCount++
	}
	if state == stSingle || state == stDouble {
		q.unterminatedQuote = true
		if literalLen > q.maxLiteralLen {
			q.maxLiteralLen = literalLen
		}
	}
	if state == stLineComment {
		q.trailingComment = true
	}

	q.stripped = out.String()
	q.upper = strings.ToUpper(q.stripped)
	return q
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// ---- blocking rules, in the documented order ----

func checkMutatingOperation(q *scannedQuery) (string, bool) {
	if m := mutatingRe.FindString(q.upper); m != "" {
		return "mutating operation detected: " + m + "; only read queries are allowed", true
	}
	return "", false
}

func checkMultiStatement(q *scannedQuery) (string, bool) {
	if q.statementCount > 1 {
		return "multiple statements detected; statement stacking is not allowed", true
	}
	return "", false
}

func checkInjectionPattern(q *scannedQuery) (string, bool) {
	if m := tautologyNumRe.FindStringSubmatch(q.upper); m != nil && m[1] == m[2] {
		return "tautology condition detected: OR " + m[1] + "=" + m[2], true
	}
	if tautologyStrRe.MatchString(q.upper) {
		return "tautology condition detected: always-true string comparison", true
	}
	if tautologyBoolRe.MatchString(q.upper) {
		return "tautology condition detected: OR TRUE", true
	}
	if q.trailingComment {
		return "trailing comment token detected; possible statement truncation", true
	}
	return "", false
}

func checkStructuralImbalance(q *scannedQuery) (string, bool) {
	if q.parenBalance != 0 || q.parenWentNegative {
		return "unbalanced grouping symbols", true
	}
	if q.unterminatedQuote {
		return "unterminated string literal", true
	}
	return "", false
}

// ---- advisory checks, never blocking ----

func warnMissingLimit(q *scannedQuery) (string, bool) {
	if !q.hasLimit() {
		return "query has no row-limiting clause; consider adding LIMIT to bound the result set", true
	}
	return "", false
}

func warnWildcardSelect(q *scannedQuery) (string, bool) {
	if selectStarRe.MatchString(q.upper) {
		return "wildcard column selection may return unnecessary columns; consider listing columns explicitly", true
	}
	return "", false
}

func warnLargeLiteral(q *scannedQuery) (string, bool) {
	if q.maxLiteralLen > 256 {
		return "very large string literal; possible obfuscated payload", true
	}
	return "", false
}

func warnUnqualifiedJoin(q *scannedQuery) (string, bool) {
	if strings.Contains(q.upper, " JOIN ") && !qualifiedRefRe.MatchString(q.stripped) {
		return "multiple relations are joined but no column reference is qualified", true
	}
	return "", false
}

func (q *scannedQuery) hasLimit() bool {
	return strings.Contains(q.upper, "LIMIT") ||
		strings.Contains(q.upper, "FETCH FIRST") ||
		strings.Contains(q.upper, " TOP ")
}
