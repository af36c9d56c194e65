package app

import (
	"context"
	"fmt"
	"log"

	"isoscreen/internal/catalog"
	"isoscreen/internal/classifier"
	"isoscreen/internal/engine"
	"isoscreen/internal/gateway/config"
	"isoscreen/internal/gateway/handler"
	"isoscreen/internal/gateway/server"
	"isoscreen/internal/interviewlog"
	"isoscreen/internal/llm"
	"isoscreen/internal/llm/respcache"
	"isoscreen/internal/session"
	"isoscreen/internal/storage"
)

type App struct {
	server *server.Server
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load question catalog: %w", err)
	}

	cli, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to init llm client: %w", err)
	}

	// Dependencies
	sessions := session.NewStore()
	results := storage.New(storage.BackendConfig{
		PostgresDSN: cfg.Results.PostgresDSN,
		S3: storage.S3Config{
			Endpoint:  cfg.Results.S3Endpoint,
			Region:    cfg.Results.S3Region,
			AccessKey: cfg.Results.S3AccessKey,
			SecretKey: cfg.Results.S3SecretKey,
			Bucket:    cfg.Results.S3Bucket,
			UseSSL:    cfg.Results.S3UseSSL,
		},
		ResultsDir: cfg.ResultsDir,
	})
	trace := interviewlog.New(cfg.LogDir)
	cls := classifier.NewLLMClassifier(cli)
	eng := engine.New(cat, cls, sessions, results, trace)

	interviewHandler := handler.NewInterviewHandler(eng, sessions)
	resultsHandler := handler.NewResultsHandler(results)
	logHandler := handler.NewLogHandler(trace)
	watchHandler := handler.NewWatchHandler(eng, sessions)

	// Routing & Server
	mux := server.NewMux(interviewHandler, resultsHandler, logHandler, watchHandler)
	srv := server.New(cfg.Port, mux)

	return &App{server: srv}, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	var inner llm.Client
	if cfg.UseFake {
		log.Printf("app: using fake llm client")
		inner = llm.NewFakeClient()
	} else {
		cli, err := llm.NewGeminiClient(ctx, cfg.Model)
		if err != nil {
			return nil, err
		}
		inner = cli
	}

	mws := []llm.Middleware{llm.Logging()}
	if cfg.CacheDir != "" {
		store, err := respcache.New(respcache.Config{Root: cfg.CacheDir})
		if err != nil {
			return nil, fmt.Errorf("init llm response cache: %w", err)
		}
		mws = append(mws, llm.Caching(store))
	}
	return llm.Wrap(inner, mws...), nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
