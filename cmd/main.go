package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/stellartrade/order-relay/internal/chat"
	"github.com/stellartrade/order-relay/internal/config"
	"github.com/stellartrade/order-relay/internal/dispatcher"
	"github.com/stellartrade/order-relay/internal/registry"
	"github.com/stellartrade/order-relay/internal/relay"
	"github.com/stellartrade/order-relay/internal/runstore"
	"github.com/stellartrade/order-relay/internal/shopify"
	"github.com/stellartrade/order-relay/internal/webhook"
)

var (
	loadDotEnv         = godotenv.Load
	defaultListenServe = http.ListenAndServe
)

func main() {
	if err := run(context.Background(), defaultListenServe); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context, serve func(string, http.Handler) error) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Starting order-relay server...")
	log.Printf("Port: %d", cfg.Port)
	log.Printf("Marker prefix: %s", cfg.MarkerPrefix)
	log.Printf("Shop: %s (API %s)", cfg.ShopifyShopDomain, cfg.ShopifyAPIVersion)
	log.Printf("Relay workers: %d, queue size: %d", cfg.RelayWorkers, cfg.RelayQueueSize)
	log.Printf("Poll interval: %s, idle window: %s", cfg.CommentPollInterval, cfg.IdleWindow)

	// In-memory relay state, owned here and injected downward
	runs := runstore.NewStore()
	reg := registry.New()
	threads := relay.NewThreadCache()
	tracker := relay.NewDeliveryTracker()

	// External collaborators
	chatClient := chat.NewClient(cfg.SlackBotToken, cfg.SlackChannelID, cfg.HistoryPageLimit, cfg.HTTPTimeout)
	feed := shopify.NewClient(cfg.ShopifyShopDomain, cfg.ShopifyAccessToken, cfg.ShopifyAPIVersion, cfg.HTTPTimeout)

	// Relay worker and bounded pool
	resolver := relay.NewResolver(chatClient, threads, cfg.MarkerPrefix)
	worker := relay.NewWorker(relay.Options{
		ResolveTimeout:      cfg.ResolveTimeout,
		ResolvePollInterval: cfg.ResolvePollInterval,
		PollInterval:        cfg.CommentPollInterval,
		IdleWindow:          cfg.IdleWindow,
		InitialDelivery:     cfg.InitialDelivery,
	}, resolver, feed, chatClient, tracker, reg, runs)

	pool := dispatcher.New(worker, dispatcher.Config{
		Workers:   cfg.RelayWorkers,
		QueueSize: cfg.RelayQueueSize,
	})
	defer pool.Shutdown(ctx)

	// Webhook intake
	handler := webhook.NewHandler(cfg.ShopifyWebhookSecret, reg, pool, runs)

	// Setup router
	r := mux.NewRouter()

	// Webhook endpoint
	r.HandleFunc("/webhook/orders", handler.Handle).Methods("POST")

	// Run ledger endpoint
	r.HandleFunc("/runs", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(runs.List()); err != nil {
			log.Printf("Failed to encode runs: %v", err)
		}
	}).Methods("GET")

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Root endpoint with info
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"service":"order-relay","status":"ok","marker":"%s"}`, cfg.MarkerPrefix)
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Webhook endpoint: http://localhost%s/webhook/orders", addr)
	log.Printf("Health check: http://localhost%s/health", addr)

	if err := serve(addr, r); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}
