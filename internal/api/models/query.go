package models

import (
	"github.com/queryflow/queryflow-backend/internal/executor"
	"github.com/queryflow/queryflow-backend/internal/validator"
)

// Failure reasons carried in a QueryResponse. These are terminal states of
// the request, never of the session.
const (
	ReasonGenerationFailed   = "generation_failed"
	ReasonValidationRejected = "validation_rejected"
	ReasonExecutionFailed    = "execution_failed"
)

// Options are the per-request flags of the query operation
type Options struct {
	Execute  bool `json:"execute"`
	Explain  bool `json:"explain"`
	UseCache bool `json:"use_cache"`
	Validate bool `json:"validate"`
}

// DefaultOptions returns the options used when a request omits them
func DefaultOptions() Options {
	return Options{UseCache: true, Validate: true}
}

// QueryRequest is the inbound payload of the query operation. The option
// pointers distinguish "omitted" from "explicitly false".
type QueryRequest struct {
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`
	Execute   *bool  `json:"execute,omitempty"`
	Explain   *bool  `json:"explain,omitempty"`
	UseCache  *bool  `json:"use_cache,omitempty"`
	Validate  *bool  `json:"validate,omitempty"`
}

// ResolveOptions merges the request's option flags with the defaults
func (r QueryRequest) ResolveOptions() Options {
	opts := DefaultOptions()
	if r.Execute != nil {
		opts.Execute = *r.Execute
	}
	if r.Explain != nil {
		opts.Explain = *r.Explain
	}
	if r.UseCache != nil {
		opts.UseCache = *r.UseCache
	}
	if r.Validate != nil {
		opts.Validate = *r.Validate
	}
	return opts
}

// RequestError is a machine-readable terminal failure
type RequestError struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// QueryResponse is the structured outcome of one query operation. The caller
// always receives one of three shapes: success (possibly cached), rejection
// with a named blocking check, or failure with a named reason. It never
// carries a raw error.
type QueryResponse struct {
	SessionID         string             `json:"session_id"`
	Utterance         string             `json:"utterance"`
	ResolvedUtterance string             `json:"resolved_utterance"`
	QueryText         string             `json:"query_text,omitempty"`
	Validation        *validator.Verdict `json:"validation_verdict,omitempty"`
	Result            *executor.Result   `json:"execution_result,omitempty"`
	Explanation       string             `json:"explanation,omitempty"`
	WasCached         bool               `json:"was_cached"`
	CacheSource       string             `json:"cache_source,omitempty"`
	Error             *RequestError      `json:"error,omitempty"`
}

// StageEvent is one pipeline progress notification streamed over websocket
type StageEvent struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail,omitempty"`
}

// IntentAnalysis is the heuristic classification of an utterance
type IntentAnalysis struct {
	Utterance       string   `json:"utterance"`
	IntentType      string   `json:"intent_type"`
	Complexity      string   `json:"complexity"`
	LikelyRelations []string `json:"likely_relations"`
	Recommendations []string `json:"recommendations"`
}
