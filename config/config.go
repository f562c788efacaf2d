package config

import (
	"os"
	"strconv"

	"github.com/fenilmodi00/analyst-backend/models"
	"github.com/fenilmodi00/analyst-backend/services"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the environment-driven settings of the analyst backend
type Config struct {
	MarketDataURL string
	MarketDataKey string
	ScraperURL    string
	LogLevel      string
	WorkerCount   string
}

// LoadConfig reads the .env file when present and falls back to system
// environment variables.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		MarketDataURL: getEnv("MARKET_DATA_URL", "https://www.alphavantage.co"),
		MarketDataKey: getEnv("MARKET_DATA_KEY", ""),
		ScraperURL:    getEnv("SCRAPER_URL", "https://www.investing.com"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		WorkerCount:   getEnv("WORKER_COUNT", "10"),
	}
}

// GetWorkerCount returns the refresh worker pool width from the environment
// or the default of 10.
func (c *Config) GetWorkerCount() int {
	count, err := strconv.Atoi(c.WorkerCount)
	if err != nil || count <= 0 {
		logrus.Warnf("Invalid WORKER_COUNT value: %s, using default 10", c.WorkerCount)
		return 10
	}
	return count
}

// MarketDataConfiguration builds the market-data service configuration from
// the environment.
func (c *Config) MarketDataConfiguration() *services.MarketDataConfiguration {
	configuration := services.NewDefaultMarketDataConfiguration()
	configuration.BaseURL = c.MarketDataURL
	configuration.APIKey = c.MarketDataKey
	return configuration
}

// ScraperConfiguration builds the scraper service configuration from the
// environment, with the default filter rules applied.
func (c *Config) ScraperConfiguration() *services.ScraperConfiguration {
	configuration := services.NewDefaultScraperConfiguration()
	configuration.BaseURL = c.ScraperURL
	configuration.IndiceFilter = DefaultIndiceFilter()
	return configuration
}

// DefaultIndiceFilter returns the filter rule applied to major-indices rows.
// Only the tracked markets are let through; constituents carry no filter by
// default.
func DefaultIndiceFilter() models.FilterRule {
	return models.FilterRule{
		Include: map[string][]string{
			"name":    {"SmallCap 2000"},
			"country": {"France"},
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
