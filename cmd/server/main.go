// Command server runs the SkillSwap API.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"skillswap/internal/bootstrap"
	"skillswap/internal/cache"
	"skillswap/internal/config"
	"skillswap/internal/observability"
	"skillswap/internal/queue"
	"skillswap/internal/server"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.Configure(cfg.Env, cfg.LogLevel)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "skillswap-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1.0,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	rt.Start(ctx)

	opts := server.Options{}
	if cfg.AMQPURL != "" {
		opts.Publisher = queue.NewPublisher(cfg.AMQPURL)
	}
	var limiterRedis *redis.Client
	if cfg.RedisURL != "" {
		limiterRedis, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("Rate limiting disabled: %v", err)
		} else {
			opts.Redis = limiterRedis
		}
	}

	srv := server.NewServer(cfg, rt.Store, opts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down server...")
	case err := <-errCh:
		if err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	errs = append(errs, srv.Shutdown(shutdownCtx))
	errs = append(errs, rt.Shutdown(shutdownCtx))
	if limiterRedis != nil {
		errs = append(errs, limiterRedis.Close())
	}
	errs = append(errs, shutdownTracing(shutdownCtx))
	if err := errors.Join(errs...); err != nil {
		log.Printf("Shutdown error: %v", err)
		os.Exit(1)
	}
	log.Println("Server shutdown complete")
}
