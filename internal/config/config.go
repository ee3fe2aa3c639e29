// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kanungos/fundgrid/internal/domain"
)

// Config holds application configuration. All weights, windows and
// thresholds live here and are injected into components at construction;
// there is no process-wide mutable state.
type Config struct {
	DataDir  string // Base directory for databases and input files (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	MasterListPath string // Instrument master input (CSV)
	HoldingsPath   string // Portfolio holdings input (CSV)

	// NAV acquisition
	NavAPIBaseURL   string        // Per-instrument historical feed, instrument id appended
	BulkNavURL      string        // Bulk "latest value per instrument" feed
	FetchWorkers    int           // Bounded fetch concurrency
	FetchRetries    int           // Attempts per instrument before marking data-unavailable
	FetchBackoff    time.Duration // Base backoff between attempts
	FetchTimeout    time.Duration // Per-network-call timeout
	LookbackDays    int           // History horizon kept per instrument
	RefreshSchedule string        // Cron expression for the daily batch

	Analytics AnalyticsConfig
}

// AnalyticsConfig groups the numeric knobs of the computation engine.
type AnalyticsConfig struct {
	Windows           []domain.ReturnWindow // Trailing-return windows, in output order
	ScoreWeights      map[string]float64    // Window label -> weight (out of 100)
	RollingWindows    []string              // Window labels feeding the consistency term
	VolatilityWindow  int                   // Days of history for volatility
	VolatilityPenalty float64               // Score penalty factor per unit of volatility
	TopQuartileBonus  float64               // Score bonus for category Top Quartile
	ConsistencyScale  float64               // Multiplier on the mean rolling average
	DropAlertPercent  float64               // Deviation threshold for drop alerts (negative)
	MomentumWindows   []string              // Window labels that must all be positive
	RankWindow        string                // Window label used for peer ranking
}

// DefaultWindows is the fixed set of trailing-return windows.
func DefaultWindows() []domain.ReturnWindow {
	return []domain.ReturnWindow{
		{Label: "1D", Days: 1},
		{Label: "1W", Days: 7},
		{Label: "1M", Days: 30},
		{Label: "3M", Days: 90},
		{Label: "6M", Days: 180},
		{Label: "1Y", Days: 365},
		{Label: "3Y", Days: 1095},
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FUNDGRID_DATA_DIR", "data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("FUNDGRID_PORT", 8001),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		MasterListPath: getEnv("MASTER_LIST_PATH", filepath.Join(absDataDir, "master_list.csv")),
		HoldingsPath:   getEnv("HOLDINGS_PATH", filepath.Join(absDataDir, "my_portfolio_input.csv")),

		NavAPIBaseURL:   getEnv("NAV_API_BASE_URL", "https://api.mfapi.in/mf/"),
		BulkNavURL:      getEnv("BULK_NAV_URL", "https://www.amfiindia.com/spages/NAVAll.txt"),
		FetchWorkers:    getEnvAsInt("FETCH_WORKERS", 8),
		FetchRetries:    getEnvAsInt("FETCH_RETRIES", 3),
		FetchBackoff:    getEnvAsDuration("FETCH_BACKOFF", 500*time.Millisecond),
		FetchTimeout:    getEnvAsDuration("FETCH_TIMEOUT", 20*time.Second),
		LookbackDays:    getEnvAsInt("LOOKBACK_DAYS", 1460),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 30 8 * * *"),

		Analytics: AnalyticsConfig{
			Windows: DefaultWindows(),
			ScoreWeights: map[string]float64{
				"1M": 25,
				"3M": 25,
				"1Y": 20,
				"3Y": 20,
			},
			RollingWindows:    []string{"1Y", "3Y"},
			VolatilityWindow:  365,
			VolatilityPenalty: 80,
			TopQuartileBonus:  5,
			ConsistencyScale:  10,
			DropAlertPercent:  getEnvAsFloat("DROP_ALERT_PERCENT", -5),
			MomentumWindows:   []string{"1M", "3M", "6M"},
			RankWindow:        "1Y",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.FetchWorkers <= 0 {
		return fmt.Errorf("FETCH_WORKERS must be positive, got %d", c.FetchWorkers)
	}
	if c.Analytics.RankWindow == "" {
		return fmt.Errorf("analytics rank window must be set")
	}
	labels := make(map[string]bool, len(c.Analytics.Windows))
	for _, w := range c.Analytics.Windows {
		labels[w.Label] = true
	}
	if !labels[c.Analytics.RankWindow] {
		return fmt.Errorf("rank window %q is not a configured return window", c.Analytics.RankWindow)
	}
	for label := range c.Analytics.ScoreWeights {
		if !labels[label] {
			return fmt.Errorf("score weight window %q is not a configured return window", label)
		}
	}
	return nil
}

// WindowDays returns the lookback in days for a window label.
func (c *AnalyticsConfig) WindowDays(label string) (int, bool) {
	for _, w := range c.Windows {
		if w.Label == label {
			return w.Days, true
		}
	}
	return 0, false
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
