package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/queryflow/queryflow-backend/internal/api/models"
	"github.com/queryflow/queryflow-backend/internal/config"
	"github.com/queryflow/queryflow-backend/internal/executor"
	"github.com/queryflow/queryflow-backend/internal/generator"
	"github.com/queryflow/queryflow-backend/internal/ledger"
	"github.com/queryflow/queryflow-backend/internal/prompt"
	"github.com/queryflow/queryflow-backend/internal/querycache"
	"github.com/queryflow/queryflow-backend/internal/repository"
	"github.com/queryflow/queryflow-backend/internal/retriever"
	"github.com/queryflow/queryflow-backend/internal/schema"
	"github.com/queryflow/queryflow-backend/internal/validator"
)

// ProgressFunc receives pipeline stage notifications. May be nil.
type ProgressFunc func(event models.StageEvent)

// Orchestrator sequences one request through the pipeline: follow-up
// resolution, cache lookup, context retrieval, prompt composition,
// generation, validation, optional execution, caching, ledger append,
// response assembly. It holds no per-request state and is safe for
// concurrent use across independent sessions.
type Orchestrator struct {
	ledger    *ledger.Ledger
	cache     *querycache.Cache
	retriever *retriever.Adapter
	composer  *prompt.Composer
	generator generator.Generator
	executor  executor.Executor
	schema    schema.Provider
	validator *validator.Validator
	dialect   config.DialectConfig
	logger    *logrus.Logger

	historyTurns int
	defaultLimit int
}

// NewOrchestrator wires the pipeline components together
func NewOrchestrator(
	lg *ledger.Ledger,
	cache *querycache.Cache,
	ret *retriever.Adapter,
	composer *prompt.Composer,
	gen generator.Generator,
	exec executor.Executor,
	schemaProvider schema.Provider,
	dialect config.DialectConfig,
	historyTurns int,
	logger *logrus.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
	}
	if historyTurns <= 0 {
		historyTurns = 3
	}
	return &Orchestrator{
		ledger:       lg,
		cache:        cache,
		retriever:    ret,
		composer:     composer,
		generator:    gen,
		executor:     exec,
		schema:       schemaProvider,
		validator:    validator.New(),
		dialect:      dialect,
		logger:       logger,
		historyTurns: historyTurns,
		defaultLimit: 1000,
	}
}

// Handle runs one utterance through the pipeline
func (o *Orchestrator) Handle(ctx context.Context, sessionID, utterance string, opts models.Options) (*models.QueryResponse, error) {
	return o.HandleWithProgress(ctx, sessionID, utterance, opts, nil)
}

// HandleWithProgress is Handle with pipeline stage notifications. On
// cancellation no turn is appended and no cache entry is stored; partial
// work is discarded.
func (o *Orchestrator) HandleWithProgress(ctx context.Context, sessionID, utterance string, opts models.Options, progress ProgressFunc) (*models.QueryResponse, error) {
	notify := func(stage, detail string) {
		if progress != nil {
			progress(models.StageEvent{Stage: stage, Detail: detail})
		}
	}

	session, err := o.ledger.StartOrResume(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session store unavailable: %w", err)
	}

	resolved := o.ledger.Resolve(ctx, session, utterance)
	notify("resolved", resolved)

	resp := &models.QueryResponse{
		SessionID:         sessionID,
		Utterance:         utterance,
		ResolvedUtterance: resolved,
	}

	fingerprint := querycache.Fingerprint(resolved, querycache.Options{
		Execute: opts.Execute,
		Dialect: o.dialect.Name,
	})

	if opts.UseCache {
		if entry, ok := o.cache.Lookup(ctx, fingerprint); ok {
			notify("cache_hit", entry.Source)
			return o.respondFromCache(ctx, resp, entry, fingerprint, opts, notify)
		}
	}
	notify("cache_checked", "miss")

	snippets := o.retriever.Retrieve(ctx, resolved)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notify("context_retrieved", fmt.Sprintf("%d snippets", len(snippets)))

	schemaText := ""
	if o.schema != nil {
		schemaText, err = o.schema.SchemaText(ctx)
		if err != nil {
			o.logger.WithError(err).Warn("schema description unavailable; composing without it")
			schemaText = ""
		}
	}

	recentTurns, err := o.ledger.RecentTurns(ctx, sessionID, o.historyTurns)
	if err != nil {
		o.logger.WithError(err).Warn("turn history unavailable; composing without it")
		recentTurns = nil
	}

	genReq := o.composer.Compose(schemaText, snippets, recentTurns, resolved)
	notify("prompt_composed", "")

	raw, err := o.generator.Generate(ctx, genReq)
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	queryText := generator.CleanSQL(raw)
	if err != nil || queryText == "" {
		if err == nil {
			err = fmt.Errorf("generator returned empty output")
		}
		o.logger.WithError(err).WithField("session_id", sessionID).Error("generation failed")
		resp.Error = &models.RequestError{
			Reason:  models.ReasonGenerationFailed,
			Message: "query generation failed: " + err.Error(),
		}
		o.appendTurn(ctx, sessionID, utterance, resolved, "", nil, "generation failed")
		return resp, nil
	}
	resp.QueryText = queryText
	notify("generated", "")

	var verdict validator.Verdict
	if opts.Validate {
		verdict = o.validator.Validate(queryText)
	} else {
		verdict = validator.BypassedVerdict(queryText)
	}
	resp.Validation = &verdict
	notify("validated", string(verdict.BlockingReason))

	if !verdict.IsValid {
		resp.Error = &models.RequestError{
			Reason:  models.ReasonValidationRejected,
			Message: fmt.Sprintf("query rejected by %s check: %s", verdict.BlockingReason, verdict.Message),
		}
		// A rejected attempt is part of conversation history; it is never cached
		o.appendTurn(ctx, sessionID, utterance, resolved, queryText, &verdict, "rejected")
		return resp, nil
	}

	if opts.Explain {
		resp.Explanation = o.explain(ctx, queryText, resolved)
	}

	entry := querycache.Entry{
		Fingerprint: fingerprint,
		QueryText:   queryText,
	}

	if opts.Execute {
		result, execErr := o.runQuery(ctx, queryText)
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		if execErr != nil {
			o.logger.WithError(execErr).WithField("session_id", sessionID).Error("execution failed")
			resp.Error = &models.RequestError{
				Reason:  models.ReasonExecutionFailed,
				Message: "query execution failed: " + execErr.Error(),
			}
			// The generated text was validated; cache it so a retry of
			// execution alone does not require re-generation
			if opts.UseCache && opts.Validate {
				o.cache.Store(ctx, entry)
			}
			o.appendTurn(ctx, sessionID, utterance, resolved, queryText, &verdict, "execution failed")
			return resp, nil
		}
		resp.Result = result
		notify("executed", fmt.Sprintf("%d rows", result.RowCount))

		if payload, merr := json.Marshal(result); merr == nil {
			entry.Result = payload
		}
	}

	// Only validated queries ever reach the cache; an explicit validation
	// bypass is not a validation, so those outcomes are not stored.
	if opts.UseCache && opts.Validate {
		o.cache.Store(ctx, entry)
		notify("cached", fingerprint)
	}

	o.appendTurn(ctx, sessionID, utterance, resolved, queryText, &verdict, executionSummary(resp.Result))
	notify("responded", "")

	return resp, nil
}

// respondFromCache serves a hit. Validation is short-circuited by the
// invariant that only previously validated text is ever stored.
func (o *Orchestrator) respondFromCache(ctx context.Context, resp *models.QueryResponse, entry *querycache.Entry, fingerprint string, opts models.Options, notify func(string, string)) (*models.QueryResponse, error) {
	resp.QueryText = entry.QueryText
	resp.WasCached = true
	resp.CacheSource = entry.Source
	resp.Validation = &validator.Verdict{IsValid: true, Warnings: []string{}}

	if len(entry.Result) > 0 {
		var result executor.Result
		if err := json.Unmarshal(entry.Result, &result); err == nil {
			resp.Result = &result
		}
	}

	// An entry cached after an execution failure holds text but no result;
	// execution alone is retried here without re-generation.
	if opts.Execute && resp.Result == nil {
		result, err := o.runQuery(ctx, entry.QueryText)
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		if err != nil {
			o.logger.WithError(err).Error("execution failed on cached query")
			resp.Error = &models.RequestError{
				Reason:  models.ReasonExecutionFailed,
				Message: "query execution failed: " + err.Error(),
			}
			o.appendTurn(ctx, resp.SessionID, resp.Utterance, resp.ResolvedUtterance, entry.QueryText, resp.Validation, "execution failed")
			return resp, nil
		}
		resp.Result = result
		notify("executed", fmt.Sprintf("%d rows", result.RowCount))

		if payload, merr := json.Marshal(result); merr == nil {
			refreshed := *entry
			refreshed.Result = payload
			refreshed.Fingerprint = fingerprint
			o.cache.Store(ctx, refreshed)
		}
	}

	if opts.Explain {
		resp.Explanation = o.explain(ctx, entry.QueryText, resp.ResolvedUtterance)
	}

	o.appendTurn(ctx, resp.SessionID, resp.Utterance, resp.ResolvedUtterance, entry.QueryText, resp.Validation, "served from cache")
	notify("responded", "cached")

	return resp, nil
}

func (o *Orchestrator) runQuery(ctx context.Context, queryText string) (*executor.Result, error) {
	if o.executor == nil {
		return nil, fmt.Errorf("no executor configured")
	}
	bounded := validator.ApplyDefaultLimit(queryText, o.defaultLimit)
	return o.executor.Run(ctx, bounded)
}

// explain asks the generator for a plain-language explanation. Failure is
// non-fatal; the response simply carries no explanation.
func (o *Orchestrator) explain(ctx context.Context, queryText, resolved string) string {
	text, err := o.generator.Generate(ctx, o.composer.ComposeExplanation(queryText, resolved))
	if err != nil {
		o.logger.WithError(err).Warn("explanation generation failed")
		return ""
	}
	return text
}

func (o *Orchestrator) appendTurn(ctx context.Context, sessionID, utterance, resolved, queryText string, verdict *validator.Verdict, summary string) {
	turn := repository.Turn{
		SessionID:         sessionID,
		Utterance:         utterance,
		ResolvedUtterance: resolved,
		QueryText:         queryText,
		ExecutionSummary:  summary,
	}
	if verdict != nil {
		turn.Valid = verdict.IsValid
		turn.BlockingReason = string(verdict.BlockingReason)
	}

	if err := o.ledger.Append(ctx, turn); err != nil {
		o.logger.WithError(err).WithField("session_id", sessionID).Error("failed to append turn")
	}
}

func executionSummary(result *executor.Result) string {
	if result == nil {
		return ""
	}
	return fmt.Sprintf("%d rows in %s", result.RowCount, result.Duration)
}
