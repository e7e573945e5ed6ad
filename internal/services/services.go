package services

import (
	"github.com/sirupsen/logrus"
	"github.com/queryflow/queryflow-backend/internal/config"
	"github.com/queryflow/queryflow-backend/internal/database"
	"github.com/queryflow/queryflow-backend/internal/executor"
	"github.com/queryflow/queryflow-backend/internal/generator"
	"github.com/queryflow/queryflow-backend/internal/ledger"
	"github.com/queryflow/queryflow-backend/internal/prompt"
	"github.com/queryflow/queryflow-backend/internal/querycache"
	"github.com/queryflow/queryflow-backend/internal/repository/postgres"
	"github.com/queryflow/queryflow-backend/internal/retriever"
	"github.com/queryflow/queryflow-backend/internal/schema"
)

// Services holds all service instances
type Services struct {
	Config       *config.Config
	DB           *database.DB
	Ledger       *ledger.Ledger
	Cache        *querycache.Cache
	Orchestrator *Orchestrator
	Analyzer     *Analyzer
	Logger       *logrus.Logger
}

// Initialize creates and wires all services from configuration
func Initialize(cfg *config.Config, db *database.DB, logger *logrus.Logger) (*Services, error) {
	if logger == nil {
		logger = logrus.New()
	}

	sessionRepo := postgres.NewSessionRepository(db.DB)
	turnRepo := postgres.NewTurnRepository(db.DB)
	cacheRepo := postgres.NewCacheRepository(db.DB)

	lg := ledger.New(sessionRepo, turnRepo, cfg.Ledger.IdleTimeout, logger)

	memory := querycache.NewMemoryTier(cfg.Cache.MemorySize)
	persistent := querycache.NewPersistentTier(cacheRepo)
	cache := querycache.New(memory, persistent, cfg.Cache.TTL, logger)

	var searcher retriever.Searcher
	if cfg.Retriever.BaseURL != "" {
		searcher = retriever.NewHTTPSearcher(cfg.Retriever.BaseURL, cfg.Retriever.Timeout)
	}
	ret := retriever.NewAdapter(searcher, cfg.Retriever.MaxResults, cfg.Retriever.MinRelevance, logger)

	composer := prompt.NewComposer(cfg.Dialect, cfg.Ledger.HistoryTurns)

	gen, err := generator.NewOpenAIGenerator(cfg.Generator)
	if err != nil {
		return nil, err
	}

	exec := executor.NewPostgresExecutor(db.DB, 0, 0)
	schemaProvider := schema.NewPostgresProvider(db.DB, "public", 0)

	orchestrator := NewOrchestrator(
		lg, cache, ret, composer, gen, exec, schemaProvider,
		cfg.Dialect, cfg.Ledger.HistoryTurns, logger,
	)

	return &Services{
		Config:       cfg,
		DB:           db,
		Ledger:       lg,
		Cache:        cache,
		Orchestrator: orchestrator,
		Analyzer:     NewAnalyzer(ret),
		Logger:       logger,
	}, nil
}
