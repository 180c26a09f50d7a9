package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"trailmark.org/internal/auth"
	"trailmark.org/internal/config"
	"trailmark.org/internal/httpapi"
	"trailmark.org/internal/obs"
	"trailmark.org/internal/pagespeed"
	"trailmark.org/internal/store/pg"
	"trailmark.org/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(cfg.Version, cfg.Commit)

	if cfg.DSN == "" {
		log.Fatal("missing DSN: set TRAILMARK_PG_DSN")
	}
	store, err := pg.Open(cfg.DSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	tokens, err := auth.NewTokenService(cfg.TokenSecret,
		auth.WithIssuer(cfg.TokenIssuer),
		auth.WithAccessTTL(cfg.TokenTTL),
	)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	api, err := httpapi.New(httpapi.Config{
		Version:       cfg.Version,
		Probe:         httpapi.ReadyProbe{DB: store.DB()},
		RateBurst:     cfg.RateBurst,
		RatePerSecond: cfg.RatePerSecond,
		Auth:          auth.NewService(store, tokens),
		Store:         store,
		Websites:      store.Websites(),
		Platforms:     store.Platforms(),
		Links:         tracking.NewService(store.TrackingLinks()),
		LinkStore:     store.TrackingLinks(),
		PageSpeed:     pagespeed.NewService(store.PageSpeedRuns(), pagespeed.NewClient(cfg.PSIAPIKey)),
		Runs:          store.PageSpeedRuns(),
	})
	if err != nil {
		log.Fatalf("api: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting trailmark-api %s on %s", cfg.Version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
