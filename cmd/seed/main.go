// Command seed replaces the persisted marketplace with generated or fixture
// data.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"skillswap/internal/bootstrap"
	"skillswap/internal/config"
	"skillswap/internal/engine"
	"skillswap/internal/models"
	"skillswap/internal/persistence"
	"skillswap/internal/seed"
)

func main() {
	users := flag.Int("users", seed.DefaultOptions.Users, "Number of users to generate")
	swaps := flag.Int("swaps", seed.DefaultOptions.Swaps, "Number of swap requests to generate")
	messages := flag.Int("messages", seed.DefaultOptions.Messages, "Number of admin messages to generate")
	rngSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for generated data")
	fixture := flag.String("fixture", "", `YAML fixture to load instead of generating ("demo" for the built-in one)`)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	state, err := buildState(*fixture, seed.Options{
		Users:    *users,
		Swaps:    *swaps,
		Messages: *messages,
		MaxDays:  seed.DefaultOptions.MaxDays,
	}, *rngSeed)
	if err != nil {
		log.Fatalf("Failed to build seed data: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slot, closeSlot, err := bootstrap.OpenSlot(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		if err := closeSlot(); err != nil {
			log.Printf("Failed to close storage: %v", err)
		}
	}()

	adapter := persistence.NewAdapter(slot, cfg.StorageKey)
	if err := adapter.Write(ctx, state); err != nil {
		log.Fatalf("Failed to write seed data: %v", err)
	}

	log.Printf("Seeded %s slot %q: %d users, %d swap requests, %d feedback, %d messages",
		slot.Backend(), adapter.Key(),
		len(state.Users), len(state.SwapRequests), len(state.Feedback), len(state.AdminMessages))
}

func buildState(fixture string, opts seed.Options, rngSeed int64) (engine.State, error) {
	now := models.Now()
	switch fixture {
	case "":
		log.Printf("Generating %d users and %d swap requests (seed %d)", opts.Users, opts.Swaps, rngSeed)
		return seed.NewFactory(rngSeed).Marketplace(opts, now), nil
	case "demo":
		return seed.LoadFixture(seed.DemoFixture, now)
	default:
		data, err := os.ReadFile(fixture)
		if err != nil {
			return engine.State{}, err
		}
		return seed.LoadFixture(data, now)
	}
}
