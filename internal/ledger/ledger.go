package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/queryflow/queryflow-backend/internal/followup"
	"github.com/queryflow/queryflow-backend/internal/repository"
)

// Ledger tracks per-session turn history and the active entity context used
// for follow-up resolution. Sessions are append-only: turns are never
// mutated after creation. Idle sessions are evicted lazily on next access.
type Ledger struct {
	sessions    repository.SessionRepository
	turns       repository.TurnRepository
	resolver    *followup.Resolver
	idleTimeout time.Duration
	logger      *logrus.Logger
}

// Summary reports conversation counters for observability
type Summary struct {
	SessionID        string     `json:"session_id"`
	Turns            int        `json:"turns"`
	DistinctSubjects int        `json:"distinct_subjects"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	LastActivity     *time.Time `json:"last_activity,omitempty"`
}

// New creates a conversation ledger
func New(sessions repository.SessionRepository, turns repository.TurnRepository, idleTimeout time.Duration, logger *logrus.Logger) *Ledger {
	if idleTimeout <= 0 {
		idleTimeout = 24 * time.Hour
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Ledger{
		sessions:    sessions,
		turns:       turns,
		resolver:    followup.NewResolver(),
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// StartOrResume returns the session for an id, creating an empty one if none
// exists. Idempotent. A session idle past the configured timeout is evicted
// here and replaced by a fresh one.
func (l *Ledger) StartOrResume(ctx context.Context, sessionID string) (*repository.Session, error) {
	session, err := l.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session != nil && time.Since(session.UpdatedAt) > l.idleTimeout {
		l.logger.WithField("session_id", sessionID).Info("evicting idle session")
		if err := l.sessions.Delete(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("failed to evict idle session: %w", err)
		}
		session = nil
	}

	if session == nil {
		session = &repository.Session{ID: sessionID}
		if err := l.sessions.Upsert(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}

	return session, nil
}

// Resolve rewrites an utterance against the session's active entity context.
// It never fails; worst case the utterance passes through unchanged.
func (l *Ledger) Resolve(ctx context.Context, session *repository.Session, utterance string) string {
	fc := followup.Context{
		Subject:  session.Subject,
		Category: session.Category,
		Metric:   session.Metric,
	}

	turns, err := l.turns.ListBySession(ctx, session.ID)
	if err != nil {
		l.logger.WithError(err).WithField("session_id", session.ID).
			Warn("could not load turn history for resolution")
	}
	if len(turns) > 0 {
		last := turns[len(turns)-1]
		fc.LastResolved = last.ResolvedUtterance
		fc.Relations = relationsFromQuery(last.QueryText)
	}

	return l.resolver.Resolve(fc, utterance)
}

// Append records an immutable turn and heuristically updates the session's
// active entity context from the resolved utterance
func (l *Ledger) Append(ctx context.Context, turn repository.Turn) error {
	if _, err := l.turns.Create(ctx, turn); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}

	entities := followup.ExtractEntities(turn.ResolvedUtterance)
	if entities.Subject == "" && turn.QueryText != "" {
		if relations := relationsFromQuery(turn.QueryText); len(relations) > 0 {
			entities.Subject = relations[0]
		}
	}

	if err := l.sessions.Touch(ctx, turn.SessionID, entities.Subject, entities.Category, entities.Metric); err != nil {
		return fmt.Errorf("failed to update session context: %w", err)
	}

	return nil
}

// RecentTurns returns the last n turns in chronological order
func (l *Ledger) RecentTurns(ctx context.Context, sessionID string, n int) ([]repository.Turn, error) {
	turns, err := l.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns, nil
}

// Summarize returns conversation counters. Pure read, no side effects.
func (l *Ledger) Summarize(ctx context.Context, sessionID string) (*Summary, error) {
	turns, err := l.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		SessionID: sessionID,
		Turns:     len(turns),
	}

	subjects := make(map[string]bool)
	for _, turn := range turns {
		if e := followup.ExtractEntities(turn.ResolvedUtterance); e.Subject != "" {
			subjects[e.Subject] = true
		}
	}
	summary.DistinctSubjects = len(subjects)

	if len(turns) > 0 {
		started := turns[0].CreatedAt
		last := turns[len(turns)-1].CreatedAt
		summary.StartedAt = &started
		summary.LastActivity = &last
	}

	return summary, nil
}

// Get returns a session without creating or evicting anything. Returns
// (nil, nil) when the session does not exist.
func (l *Ledger) Get(ctx context.Context, sessionID string) (*repository.Session, error) {
	return l.sessions.Get(ctx, sessionID)
}

// Clear removes a session and its turns
func (l *Ledger) Clear(ctx context.Context, sessionID string) error {
	return l.sessions.Delete(ctx, sessionID)
}

// ListSessions returns all known sessions ordered by recency
func (l *Ledger) ListSessions(ctx context.Context) ([]*repository.Session, error) {
	return l.sessions.List(ctx)
}
