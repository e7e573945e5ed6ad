package ledger

import (
	"regexp"
	"strings"
)

var relationRe = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][\w.]*)`)

// relationsFromQuery extracts the table names a generated query references,
// deduplicated in first-seen order. Simple pattern extraction, intentionally
// not a SQL parser.
func relationsFromQuery(queryText string) []string {
	if queryText == "" {
		return nil
	}

	seen := make(map[string]bool)
	var relations []string
	for _, match := range relationRe.FindAllStringSubmatch(queryText, -1) {
		name := strings.ToLower(match[1])
		// Drop a schema qualifier; the bare table name is the entity
		if idx := strings.LastIndex(name, "."); idx >= 0 {
			name = name[idx+1:]
		}
		if !seen[name] {
			seen[name] = true
			relations = append(relations, name)
		}
	}
	return relations
}
