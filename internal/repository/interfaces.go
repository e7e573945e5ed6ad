package repository

import (
	"context"
	"time"
)

// Session represents one logical conversation thread. The entity columns hold
// the session's active entity context: the most recently referenced subject,
// filter dimension and metric, used for follow-up resolution.
type Session struct {
	ID        string    `db:"id"`
	Subject   string    `db:"subject"`
	Category  string    `db:"category"`
	Metric    string    `db:"metric"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Turn is an immutable record of one request against a session
type Turn struct {
	ID                string    `db:"id"`
	SessionID         string    `db:"session_id"`
	Utterance         string    `db:"utterance"`
	ResolvedUtterance string    `db:"resolved_utterance"`
	QueryText         string    `db:"query_text"`
	Valid             bool      `db:"valid"`
	BlockingReason    string    `db:"blocking_reason"`
	ExecutionSummary  string    `db:"execution_summary"`
	CreatedAt         time.Time `db:"created_at"`
}

// CacheRecord is a persisted cache entry keyed by fingerprint
type CacheRecord struct {
	Fingerprint  string    `db:"fingerprint"`
	QueryText    string    `db:"query_text"`
	Result       []byte    `db:"result"`
	CreatedAt    time.Time `db:"created_at"`
	LastAccessAt time.Time `db:"last_access_at"`
}

// SessionRepository defines session storage operations
type SessionRepository interface {
	Upsert(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context) ([]*Session, error)
	Touch(ctx context.Context, id string, subject, category, metric string) error
	Delete(ctx context.Context, id string) error
}

// TurnRepository defines turn storage operations. Turns are append-only.
type TurnRepository interface {
	Create(ctx context.Context, turn Turn) (string, error)
	ListBySession(ctx context.Context, sessionID string) ([]Turn, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
}

// CacheRepository defines the persistent cache tier storage operations
type CacheRepository interface {
	Get(ctx context.Context, fingerprint string) (*CacheRecord, error)
	Set(ctx context.Context, record CacheRecord) error
	Delete(ctx context.Context, fingerprint string) error
	DeleteAll(ctx context.Context) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
}
