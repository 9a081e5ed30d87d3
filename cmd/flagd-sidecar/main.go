// Package main provides the flagd-sidecar: a local HTTP front for the
// SDK so non-Go processes on the same host can evaluate features.
//
// Startup flow:
//
//  1. Load configuration from environment variables (config.Load)
//  2. Register the SDK's Prometheus series (telemetry.Init)
//  3. Build the SDK client, register it, and start polling
//  4. Serve the evaluation API on SIDECAR_HTTP_ADDR
//  5. Serve /metrics on SIDECAR_METRICS_ADDR
//  6. Wait for SIGINT/SIGTERM, then shut both servers and the poll
//     loop down gracefully
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nyxflag/flagsdk/client"
	"github.com/nyxflag/flagsdk/internal/config"
	"github.com/nyxflag/flagsdk/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	telemetry.Init()

	sdk, err := client.New(cfg)
	if err != nil {
		log.Fatalf("client: %v", err)
	}
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sdk.Start(startCtx); err != nil {
		// Registration failure is survivable for a sidecar: keep
		// serving whatever the poller can fetch.
		log.Printf("[sidecar] registration failed, polling anyway: %v", err)
		sdk.StartPolling()
	}
	cancelStart()

	srv := &server{sdk: sdk, rateLimit: cfg.SidecarRateLimit, origin: cfg.SidecarAllowedOrigin}
	apiSrv := &http.Server{
		Addr:         cfg.SidecarHTTPAddr,
		Handler:      srv.router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("[sidecar] http server listening on %s", cfg.SidecarHTTPAddr)
		if err := apiSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("api server: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:         cfg.SidecarMetricsAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("[sidecar] metrics server listening on %s", cfg.SidecarMetricsAddr)
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics server: %v", err)
		}
	}()

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownSignal

	log.Println("[sidecar] shutdown signal received, stopping...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[sidecar] error during API server shutdown: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[sidecar] error during metrics server shutdown: %v", err)
	}
	sdk.Stop()

	log.Println("[sidecar] stopped")
}
