package followup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_CategorySubstitution(t *testing.T) {
	r := NewResolver()
	c := Context{
		LastResolved: "show products in Electronics category",
		Subject:      "products",
		Category:     "Electronics",
	}

	resolved := r.Resolve(c, "what about Furniture?")

	// The new entity holds the structural role the prior one held
	assert.Equal(t, "show products in Furniture category", resolved)
}

func TestResolve_SubstitutionWithoutPriorEntity(t *testing.T) {
	r := NewResolver()
	c := Context{LastResolved: "count all orders"}

	resolved := r.Resolve(c, "how about customers?")
	assert.Equal(t, "show customers", resolved)
}

func TestResolve_Superlative(t *testing.T) {
	r := NewResolver()
	c := Context{
		LastResolved: "show products in Furniture category",
		Subject:      "products",
	}

	resolved := r.Resolve(c, "the most expensive one")
	assert.Equal(t, "show the most expensive products", resolved)
}

func TestResolve_ReferentialCueAppendsContext(t *testing.T) {
	r := NewResolver()
	c := Context{
		LastResolved: "show customers from Texas",
		Relations:    []string{"customers"},
	}

	resolved := r.Resolve(c, "show me those with open orders too")
	assert.Contains(t, resolved, "show me those with open orders too")
	assert.Contains(t, resolved, "show customers from Texas")
	assert.Contains(t, resolved, "customers")
}

func TestResolve_PassThrough(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name      string
		context   Context
		utterance string
	}{
		{
			name:      "no prior turn",
			context:   Context{},
			utterance: "what about Furniture?",
		},
		{
			name:      "no referential cue",
			context:   Context{LastResolved: "show products", Subject: "products"},
			utterance: "count orders by status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.utterance, r.Resolve(tt.context, tt.utterance))
		})
	}
}

func TestResolve_SubstitutionWinsOverReferentialCue(t *testing.T) {
	r := NewResolver()
	c := Context{
		LastResolved: "show products in Electronics category",
		Category:     "Electronics",
	}

	// "and what about X" carries both a generic cue ("and") and a
	// substitution cue; substitution has precedence.
	resolved := r.Resolve(c, "and what about Furniture?")
	assert.Equal(t, "show products in Furniture category", resolved)
}

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		utterance string
		expected  Entities
	}{
		{
			utterance: "show products in Electronics category",
			expected:  Entities{Subject: "products", Category: "Electronics"},
		},
		{
			utterance: "Show me top 5 customers by revenue",
			expected:  Entities{Subject: "customers", Metric: "revenue"},
		},
		{
			utterance: "count orders by status",
			expected:  Entities{Subject: "orders", Metric: "status"},
		},
		{
			utterance: "hello",
			expected:  Entities{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractEntities(tt.utterance))
		})
	}
}
