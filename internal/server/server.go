package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/minutelab/minuted/config"
	"github.com/minutelab/minuted/internal/conversation"
	"github.com/minutelab/minuted/internal/ingest"
	"github.com/minutelab/minuted/internal/linkmeta"
	"github.com/minutelab/minuted/internal/render"
	"github.com/minutelab/minuted/internal/search"
	"github.com/minutelab/minuted/internal/store"
	"github.com/minutelab/minuted/provider"
)

func Run(cfgPath string, addr string) error {
	cfg := appconfig.LoadConfig(cfgPath)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	ctx := context.Background()

	dsn := cfg.Storage.Postgres.ConnString()
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	st, err := store.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Addr(),
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable (%s), render cache and scheduler lock disabled: %v", cfg.Storage.Redis.Addr(), err)
		rdb = nil
	}

	backends, err := buildCascade(cfg.Render, rdb)
	if err != nil {
		return err
	}

	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), provider.Options{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}

	ingestLogger := log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	var titles *conversation.TitleGenerator
	if cfg.LLM.TitlesEnabled {
		titles = &conversation.TitleGenerator{Provider: llm, Logger: ingestLogger}
	}
	svc := ingest.NewService(backends, llm, titles, ingestLogger)

	var idx *search.Index
	if cfg.Search.Enabled {
		idx, err = search.Open(cfg.Search.IndexPath)
		if err != nil {
			return fmt.Errorf("search index: %w", err)
		}
	}

	auth, err := initAuth(ctx, st, []byte(cfg.Server.JWTSecret), cfg.Server.DevUserEmail)
	if err != nil {
		return err
	}

	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	mh := &MinutesHandler{
		Store:   st,
		Ingest:  svc,
		Links:   &linkmeta.Fetcher{},
		Titles:  titles,
		Search:  idx,
		Timeout: cfg.General.DefaultTimeout,
	}
	mh.Register(api.Group("/minutes"), auth.Secret)
	mh.RegisterFlows(api.Group("/flows"), auth.Secret)

	if idx != nil {
		sh := &SearchHandler{Index: idx}
		sh.Register(api.Group("/search"), auth.Secret)

		sched := &Scheduler{
			Store:    st,
			Index:    idx,
			Rdb:      rdb,
			CronSpec: cfg.Search.RebuildCron,
			Stop:     make(chan struct{}),
		}
		sched.Start()
	}

	if addr == "" {
		addr = cfg.Server.Address
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// buildCascade assembles the render backends in the configured order.
// When Redis is available each backend is wrapped in the render cache so
// repeated previews of the same share URL skip the expensive render.
func buildCascade(cfg appconfig.RenderConfig, rdb *redis.Client) ([]render.Renderer, error) {
	out := make([]render.Renderer, 0, len(cfg.Cascade))
	for _, name := range cfg.Cascade {
		var backend render.Renderer
		switch name {
		case "chrome":
			backend = &render.ChromeRenderer{
				Timeout:      cfg.Chrome.Timeout,
				SettleDelay:  cfg.Chrome.SettleDelay,
				WaitSelector: cfg.Chrome.WaitSelector,
			}
		case "browserless_unblock":
			if cfg.Browserless.BaseURL == "" || cfg.Browserless.Token == "" {
				log.Printf("render backend %s skipped: browserless not configured", name)
				continue
			}
			backend = &render.BrowserlessRenderer{
				BaseURL:          cfg.Browserless.BaseURL,
				Token:            cfg.Browserless.Token,
				Mode:             render.BrowserlessModeUnblock,
				ResidentialProxy: cfg.Browserless.ResidentialProxy,
				Timeout:          cfg.Browserless.Timeout,
			}
		case "browserless_content":
			if cfg.Browserless.BaseURL == "" || cfg.Browserless.Token == "" {
				log.Printf("render backend %s skipped: browserless not configured", name)
				continue
			}
			backend = &render.BrowserlessRenderer{
				BaseURL: cfg.Browserless.BaseURL,
				Token:   cfg.Browserless.Token,
				Mode:    render.BrowserlessModeContent,
				Timeout: cfg.Browserless.Timeout,
			}
		case "plain":
			backend = &render.PlainFetcher{
				Timeout:   cfg.Plain.Timeout,
				UserAgent: cfg.Plain.UserAgent,
			}
		default:
			return nil, fmt.Errorf("unknown render backend %q", name)
		}
		if rdb != nil {
			backend = &render.CachedRenderer{Inner: backend, Client: rdb, TTL: cfg.CacheTTL}
		}
		out = append(out, backend)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("render cascade is empty after configuration checks")
	}
	return out, nil
}
