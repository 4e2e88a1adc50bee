package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "reviewpulse/internal/adapters/http_server"
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

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// language-model capability is optional; nil means deterministic only
	var llm domain.CompletionClient
	if cfg.OpenAIKey != "" {
		cl, err := openai.New(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize OpenAI client")
		}
		llm = cl
	}

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	scorer := analysis.NewScorer(llm)
	synth := analysis.NewSynthesizer(llm)

	accounts := app.NewAccountService(repo, cache)
	scan := app.NewScanService(platform.NewSimulated(), repo, cache, scorer)
	analysisSvc := app.NewAnalysisService(repo, cache, synth, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Accounts: accounts, Scan: scan, Analysis: analysisSvc})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
