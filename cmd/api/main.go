package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"rfpgen/internal/api"
	"rfpgen/internal/config"
	"rfpgen/internal/storage"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Async generation needs Temporal; the API still serves retrieval and
	// sync generation without it.
	var temporal tclient.Client
	if tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress}); err != nil {
		log.Printf("temporal dial failed, async generation disabled: %v", err)
	} else {
		temporal = tc
		defer tc.Close()
	}

	srv, err := api.NewServer(cfg, db, temporal)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("rfpgen api listening on %s llm_providers=%q embed_providers=%q threshold=%.2f", cfg.APIAddr, cfg.LLMProviders, cfg.EmbedProviders, cfg.SimilarityThreshold)
	if err := http.ListenAndServe(cfg.APIAddr, srv.Routes()); err != nil {
		log.Fatal(err)
	}
}
