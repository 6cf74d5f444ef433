package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendra.org/internal/auth"
	"vendra.org/internal/config"
	"vendra.org/internal/httpapi"
	"vendra.org/internal/obs"
	"vendra.org/internal/store/pg"
	"vendra.org/internal/stream"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("VENDRA_PG_DSN is required")
	}

	store, err := pg.Open(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	opts := []httpapi.Option{
		httpapi.WithReadyProbe(httpapi.ReadyProbe{DB: store.DB()}),
		httpapi.WithVersion(version),
		httpapi.WithStream(stream.New()),
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSecond),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	}
	if cfg.AuthSecret != "" {
		signer, err := auth.NewSigner(cfg.AuthSecret, auth.WithTTL(cfg.TokenTTL))
		if err != nil {
			log.Fatalf("auth: %v", err)
		}
		opts = append(opts, httpapi.WithAuth(signer, auth.NewService(store, signer)))
	} else {
		log.Print("warning: VENDRA_AUTH_SECRET not set, API runs without authentication")
	}

	api := httpapi.New(store, store, opts...)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting vendra-api %s on %s", version, srv.Addr)

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
