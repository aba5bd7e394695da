package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ProjectID         string
	Port              string
	DataDir           string
	DealsAPIBaseURL   string
	VintedBaseURL     string
	DealabsBaseURL    string
	DealabsFeedURL    string
	DefaultSearchTerm string
	PageSize          int
	MaxPages          int
	BrowserEngine     string
	SessionTimeout    time.Duration
	RequestTimeout    time.Duration
	IngestCron        string
	GeminiAPIKey      string
	GeminiModel       string
}

func Load() (*Config, error) {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required but not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	dealsAPIBaseURL := os.Getenv("DEALS_API_BASE_URL")
	if dealsAPIBaseURL == "" {
		dealsAPIBaseURL = "https://lego-api-blue.vercel.app"
	}

	vintedBaseURL := os.Getenv("VINTED_BASE_URL")
	if vintedBaseURL == "" {
		vintedBaseURL = "https://www.vinted.fr"
	}

	dealabsBaseURL := os.Getenv("DEALABS_BASE_URL")
	if dealabsBaseURL == "" {
		dealabsBaseURL = "https://www.dealabs.com"
	}

	dealabsFeedURL := os.Getenv("DEALABS_FEED_URL")
	if dealabsFeedURL == "" {
		dealabsFeedURL = dealabsBaseURL + "/rss/groupe/lego"
	}

	defaultSearchTerm := os.Getenv("DEFAULT_SEARCH_TERM")
	if defaultSearchTerm == "" {
		defaultSearchTerm = "42151"
	}

	pageSize := 100
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid PAGE_SIZE %q: %v", v, err)
		}
		pageSize = parsed
	}

	// Hard ceiling on pagination, independent of the upstream-reported page
	// count, so a misbehaving upstream cannot keep the fetch loop alive.
	maxPages := 50
	if v := os.Getenv("MAX_PAGES"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid MAX_PAGES %q: %v", v, err)
		}
		maxPages = parsed
	}

	browserEngine := os.Getenv("BROWSER_ENGINE")
	if browserEngine == "" {
		browserEngine = "chromedp"
	}
	if browserEngine != "chromedp" && browserEngine != "playwright" {
		return nil, fmt.Errorf("invalid BROWSER_ENGINE %q: must be chromedp or playwright", browserEngine)
	}

	sessionTimeout := 45 * time.Second
	if v := os.Getenv("SESSION_TIMEOUT"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TIMEOUT %q: %w", v, err)
		}
		sessionTimeout = parsed
	}

	requestTimeout := 30 * time.Second
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
		requestTimeout = parsed
	}

	ingestCron := os.Getenv("INGEST_CRON")

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, set-id extraction falls back to pattern matching")
	}

	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-2.0-flash"
	}

	return &Config{
		ProjectID:         projectID,
		Port:              port,
		DataDir:           dataDir,
		DealsAPIBaseURL:   dealsAPIBaseURL,
		VintedBaseURL:     vintedBaseURL,
		DealabsBaseURL:    dealabsBaseURL,
		DealabsFeedURL:    dealabsFeedURL,
		DefaultSearchTerm: defaultSearchTerm,
		PageSize:          pageSize,
		MaxPages:          maxPages,
		BrowserEngine:     browserEngine,
		SessionTimeout:    sessionTimeout,
		RequestTimeout:    requestTimeout,
		IngestCron:        ingestCron,
		GeminiAPIKey:      geminiAPIKey,
		GeminiModel:       geminiModel,
	}, nil
}
