package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/nook/nook/internal/docstore"
	"github.com/nook/nook/internal/storage"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Object storage configuration
	StorageBackend     string // "s3", "azure" or "url"
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	BucketName         string
	AWSRegion          string
	AWSEndpoint        string
	AzureAccount       string
	AzureAccountKey    string
	StorageURL         string
	ListAllPages       bool

	// Schedule configuration
	CollectSchedule string
	TimeZone        string

	// Notification configuration
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	SMTPFrom          string

	// Collector configuration
	RedditClientID     string
	RedditClientSecret string
	Subreddits         []string
	HackerNewsLimit    int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		StorageBackend:     getEnv("STORAGE_BACKEND", storage.KindS3),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		BucketName:         getEnv("AWS_BUCKET_NAME", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:        getEnv("AWS_ENDPOINT_URL", ""),
		AzureAccount:       getEnv("AZURE_STORAGE_ACCOUNT", ""),
		AzureAccountKey:    getEnv("AZURE_STORAGE_KEY", ""),
		StorageURL:         getEnv("STORAGE_URL", ""),
		ListAllPages:       getBoolEnv("LIST_ALL_PAGES", false),

		CollectSchedule: getEnv("COLLECT_SCHEDULE", "0 0 6 * * *"),
		TimeZone:        getEnv("TIMEZONE", "Local"),

		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:          getEnv("SMTP_FROM", ""),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		Subreddits:         getSliceEnv("SUBREDDITS", []string{"golang", "programming"}),
		HackerNewsLimit:    getIntEnv("HACKER_NEWS_LIMIT", 30),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case storage.KindS3:
		if c.BucketName == "" {
			return fmt.Errorf("AWS_BUCKET_NAME is required")
		}
	case storage.KindAzure:
		if c.BucketName == "" {
			return fmt.Errorf("AWS_BUCKET_NAME is required (used as the container name)")
		}
		if c.AzureAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required for the azure backend")
		}
	case storage.KindURL:
		if c.StorageURL == "" {
			return fmt.Errorf("STORAGE_URL is required for the url backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 's3', 'azure' or 'url'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.HackerNewsLimit < 0 {
		return fmt.Errorf("HACKER_NEWS_LIMIT must not be negative")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	return nil
}

// Location returns the configured time zone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// DocStore returns the document store configuration
func (c *Config) DocStore() docstore.Config {
	location, err := c.Location()
	if err != nil {
		location = time.Local
	}

	return docstore.Config{
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
		Bucket:          c.BucketName,
		Backend:         c.StorageBackend,
		Region:          c.AWSRegion,
		Endpoint:        c.AWSEndpoint,
		AzureAccount:    c.AzureAccount,
		AzureKey:        c.AzureAccountKey,
		URL:             c.StorageURL,
		ListAllPages:    c.ListAllPages,
		Location:        location,
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items
	}
	return defaultValue
}
