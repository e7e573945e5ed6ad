package prompt

import (
	"fmt"
	"strings"

	"github.com/queryflow/queryflow-backend/internal/config"
	"github.com/queryflow/queryflow-backend/internal/repository"
	"github.com/queryflow/queryflow-backend/internal/retriever"
)

// GenerationRequest is the fully assembled payload handed to the Generator
type GenerationRequest struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Composer assembles the generation request from schema metadata, retrieved
// business context, recent conversation turns and the resolved utterance.
// Pure text assembly; no I/O. Empty inputs degrade gracefully by omitting
// their sections.
type Composer struct {
	dialect      config.DialectConfig
	historyTurns int
}

// NewComposer creates a prompt composer for the configured dialect
func NewComposer(dialect config.DialectConfig, historyTurns int) *Composer {
	if historyTurns <= 0 {
		historyTurns = 3
	}
	return &Composer{dialect: dialect, historyTurns: historyTurns}
}

// Compose builds the generation request. Deterministic for identical inputs.
func (c *Composer) Compose(schemaText string, snippets []retriever.Snippet, recentTurns []repository.Turn, resolvedUtterance string) GenerationRequest {
	var system strings.Builder

	fmt.Fprintf(&system, "You are a %s SQL expert. Convert the user's question into a single valid read-only %s SQL statement.\n",
		c.dialect.Name, c.dialect.Name)

	if len(c.dialect.Rules) > 0 {
		system.WriteString("\nDialect guidelines:\n")
		for _, rule := range c.dialect.Rules {
			system.WriteString("- " + rule + "\n")
		}
	}

	system.WriteString("\nGenerate ONLY the SQL query without any explanation or formatting fences.\n")

	var user strings.Builder

	if schemaText != "" {
		user.WriteString("Schema:\n")
		user.WriteString(schemaText)
		user.WriteString("\n\n")
	}

	if len(snippets) > 0 {
		user.WriteString("Business context:\n")
		for i, s := range snippets {
			fmt.Fprintf(&user, "[%d] (relevance %.0f%%) %s\n", i+1, s.Score*100, s.Text)
		}
		user.WriteString("\n")
	}

	turns := recentTurns
	if len(turns) > c.historyTurns {
		turns = turns[len(turns)-c.historyTurns:]
	}
	if len(turns) > 0 {
		user.WriteString("Previous conversation:\n")
		for _, turn := range turns {
			fmt.Fprintf(&user, "User asked: %s\n", turn.ResolvedUtterance)
			if turn.QueryText != "" {
				fmt.Fprintf(&user, "Generated SQL: %s\n", turn.QueryText)
			}
		}
		user.WriteString("\n")
	}

	fmt.Fprintf(&user, "Question: %s\n\nSQL Query:", resolvedUtterance)

	return GenerationRequest{
		System: system.String(),
		User:   user.String(),
	}
}

// ComposeExplanation builds the request used to explain an already generated
// query in plain language
func (c *Composer) ComposeExplanation(queryText, resolvedUtterance string) GenerationRequest {
	var user strings.Builder
	user.WriteString("Explain the following SQL query in simple terms. Describe what it does and how it answers the user's question.\n\n")
	fmt.Fprintf(&user, "User's question: %s\n\nSQL query:\n%s\n", resolvedUtterance, queryText)

	return GenerationRequest{
		System: "You explain SQL queries so that a non-technical person can understand them. Be clear and concise.",
		User:   user.String(),
	}
}
