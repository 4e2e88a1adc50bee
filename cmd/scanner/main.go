package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/adapters/openai"
	"reviewpulse/internal/adapters/platform"
	redisad "reviewpulse/internal/adapters/redis"
	"reviewpulse/internal/analysis"
	"reviewpulse/internal/app"
	"reviewpulse/internal/domain"
	"reviewpulse/internal/shared"
	mysqlrepo "reviewpulse/internal/storage/mysql"
)

// Fan-out is across accounts only; within one account reviews are scored
// sequentially in arrival order.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("workers", cfg.Workers).
		Msg("scanner starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	var llm domain.CompletionClient
	if cfg.OpenAIKey != "" {
		cl, err := openai.New(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize OpenAI client")
		}
		llm = cl
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	scan := app.NewScanService(platform.NewSimulated(), repo, cache, analysis.NewScorer(llm))

	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list accounts")
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, acct := range accounts {
		acct := acct

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			defer sem.Release(1)

			sum, err := scan.ScanAccount(ctx, id)
			if err != nil {
				log.Warn().Int64("id", id).Err(err).Msg("scan failed")
				return
			}
			log.Info().Int64("id", id).Int("reviews", sum.Ingested).Msg("scan ok")
		}(acct.ID)
	}

	wg.Wait()
	log.Info().Msg("scan completed")
}
