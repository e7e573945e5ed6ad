package generator

import (
	"context"
	"strings"

	"github.com/queryflow/queryflow-backend/internal/prompt"
)

// Generator is the external text-generation capability. Implementations may
// fail with a generic error; no retry logic is owned on this side of the
// boundary.
type Generator interface {
	Generate(ctx context.Context, req prompt.GenerationRequest) (string, error)
}

// CleanSQL strips markdown fences and surrounding whitespace from generated
// query text
func CleanSQL(text string) string {
	text = strings.ReplaceAll(text, "```sql", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
