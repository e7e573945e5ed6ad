package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/queryflow/queryflow-backend/internal/config"
	"github.com/queryflow/queryflow-backend/internal/database"
	"github.com/queryflow/queryflow-backend/internal/repository/postgres"
)

// Admin maintenance commands run against the live database. Usage:
//
//	tools -cmd purge-cache [-older-than 24h]
//	tools -cmd list-sessions
//	tools -cmd rollback-migration
func main() {
	cmd := flag.String("cmd", "", "command to run: purge-cache, list-sessions, rollback-migration")
	olderThan := flag.Duration("older-than", 0, "purge-cache: only remove entries older than this duration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	ctx := context.Background()

	switch *cmd {
	case "purge-cache":
		db := mustConnect(cfg)
		defer db.Close()
		repo := postgres.NewCacheRepository(db.DB)
		if *olderThan > 0 {
			n, err := repo.DeleteOlderThan(ctx, time.Now().Add(-*olderThan))
			if err != nil {
				log.Fatal("Failed to purge cache:", err)
			}
			fmt.Printf("Removed %d cache entries older than %s\n", n, *olderThan)
		} else {
			if err := repo.DeleteAll(ctx); err != nil {
				log.Fatal("Failed to purge cache:", err)
			}
			fmt.Println("Cache cleared")
		}

	case "list-sessions":
		db := mustConnect(cfg)
		defer db.Close()
		repo := postgres.NewSessionRepository(db.DB)
		sessions, err := repo.List(ctx)
		if err != nil {
			log.Fatal("Failed to list sessions:", err)
		}
		for _, s := range sessions {
			fmt.Printf("%s  subject=%q category=%q updated=%s\n",
				s.ID, s.Subject, s.Category, s.UpdatedAt.Format(time.RFC3339))
		}
		fmt.Printf("%d sessions\n", len(sessions))

	case "rollback-migration":
		if err := database.RollbackMigration(cfg.Database); err != nil {
			log.Fatal("Failed to rollback migration:", err)
		}
		fmt.Println("Rolled back one migration")

	default:
		flag.Usage()
		log.Fatal("unknown command: ", *cmd)
	}
}

func mustConnect(cfg *config.Config) *database.DB {
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	return db
}
