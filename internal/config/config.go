package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the order-relay service
type Config struct {
	// Server settings
	Port int

	// Slack settings
	SlackBotToken  string
	SlackChannelID string

	// Shopify settings
	ShopifyShopDomain    string
	ShopifyAccessToken   string
	ShopifyAPIVersion    string
	ShopifyWebhookSecret string

	// Thread marker settings
	MarkerPrefix     string
	HistoryPageLimit int

	// Relay worker timing
	ResolveTimeout      time.Duration
	ResolvePollInterval time.Duration
	CommentPollInterval time.Duration
	IdleWindow          time.Duration
	InitialDelivery     bool

	// Relay pool settings
	RelayWorkers   int
	RelayQueueSize int

	// Outbound call settings
	HTTPTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnvInt("PORT", 10000),
		SlackBotToken:        os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannelID:       os.Getenv("SLACK_CHANNEL_ID"),
		ShopifyShopDomain:    os.Getenv("SHOPIFY_SHOP_DOMAIN"),
		ShopifyAccessToken:   os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		ShopifyAPIVersion:    getEnv("SHOPIFY_API_VERSION", "2024-01"),
		ShopifyWebhookSecret: os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
		MarkerPrefix:         getEnv("ORDER_MARKER_PREFIX", "ST.order"),
		HistoryPageLimit:     getEnvInt("HISTORY_PAGE_LIMIT", 200),
		ResolveTimeout:       time.Duration(getEnvInt("RESOLVE_TIMEOUT_SECONDS", 120)) * time.Second,
		ResolvePollInterval:  time.Duration(getEnvInt("RESOLVE_POLL_SECONDS", 5)) * time.Second,
		CommentPollInterval:  time.Duration(getEnvInt("COMMENT_POLL_SECONDS", 15)) * time.Second,
		IdleWindow:           time.Duration(getEnvInt("IDLE_WINDOW_SECONDS", 600)) * time.Second,
		InitialDelivery:      getEnvBool("RELAY_INITIAL_DELIVERY", true),
		RelayWorkers:         getEnvInt("RELAY_WORKERS", 4),
		RelayQueueSize:       getEnvInt("RELAY_QUEUE_SIZE", 16),
		HTTPTimeout:          time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present
func (c *Config) validate() error {
	if err := c.validateSlackCredentials(); err != nil {
		return err
	}

	if err := c.validateShopifyCredentials(); err != nil {
		return err
	}

	c.applyRelayDefaults()
	return c.validateRelayConfig()
}

func (c *Config) validateSlackCredentials() error {
	if c.SlackBotToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if c.SlackChannelID == "" {
		return fmt.Errorf("SLACK_CHANNEL_ID is required")
	}
	return nil
}

func (c *Config) validateShopifyCredentials() error {
	if c.ShopifyShopDomain == "" {
		return fmt.Errorf("SHOPIFY_SHOP_DOMAIN is required")
	}
	if c.ShopifyAccessToken == "" {
		return fmt.Errorf("SHOPIFY_ACCESS_TOKEN is required")
	}
	if c.ShopifyWebhookSecret == "" {
		log.Printf("Warning: SHOPIFY_WEBHOOK_SECRET not set, webhook signatures will not be verified")
	}
	return nil
}

func (c *Config) applyRelayDefaults() {
	if c.MarkerPrefix == "" {
		c.MarkerPrefix = "ST.order"
	}
	if c.HistoryPageLimit <= 0 {
		c.HistoryPageLimit = 200
	}
	if c.ResolveTimeout <= 0 {
		c.ResolveTimeout = 2 * time.Minute
	}
	if c.ResolvePollInterval <= 0 {
		c.ResolvePollInterval = 5 * time.Second
	}
	if c.CommentPollInterval <= 0 {
		c.CommentPollInterval = 15 * time.Second
	}
	if c.IdleWindow <= 0 {
		c.IdleWindow = 10 * time.Minute
	}
	if c.RelayWorkers <= 0 {
		c.RelayWorkers = 4
	}
	if c.RelayQueueSize <= 0 {
		c.RelayQueueSize = 16
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
}

func (c *Config) validateRelayConfig() error {
	if c.IdleWindow < c.CommentPollInterval {
		return fmt.Errorf("IDLE_WINDOW_SECONDS must be >= COMMENT_POLL_SECONDS")
	}
	if c.ResolveTimeout < c.ResolvePollInterval {
		return fmt.Errorf("RESOLVE_TIMEOUT_SECONDS must be >= RESOLVE_POLL_SECONDS")
	}
	return nil
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets environment variable as bool with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
