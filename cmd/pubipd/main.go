package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lc/pubip/internal/config"
	"github.com/lc/pubip/internal/log"
	"github.com/lc/pubip/pkg/api"
	"github.com/lc/pubip/pkg/pubip"
)

func main() {
	// load config
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// build the lookup client with config-level defaults
	lookups := pubip.New(pubip.WithDefaults(pubip.Options{
		Timeout:      cfg.Lookup.Timeout,
		OnlyHTTPS:    cfg.Lookup.OnlyHTTPS,
		FallbackURLs: cfg.Lookup.FallbackURLs,
	}))

	// start the api over unix socket
	apiSrv := api.New(lookups)
	sockPath := cfg.Socket.Path

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Infof("pubipd: listening on %s", sockPath)
		if err := apiSrv.ListenAndServe(sockPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("api listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	<-sig
	log.Info("shutting down…")

	shutdownCtx, done := context.WithTimeout(ctx, 5*time.Second)
	defer done()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("api shutdown error: %v", err)
	}
}
