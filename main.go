package main

import (
	"time"

	"github.com/fenilmodi00/analyst-backend/config"
	"github.com/fenilmodi00/analyst-backend/jobs"
	"github.com/fenilmodi00/analyst-backend/services"
	"github.com/fenilmodi00/analyst-backend/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	// Initialize services
	scraperService := services.NewScraperService(cfg.ScraperConfiguration())
	marketDataService := services.NewMarketDataService(cfg.MarketDataConfiguration())

	catalog := storage.NewMemoryCatalog()
	seriesStore := storage.NewMemorySeries()

	reconcileService := services.NewReconcileService(catalog)
	refreshService := services.NewRefreshService(marketDataService, seriesStore)

	catalogJob := jobs.NewCatalogUpdateJob(
		scraperService,
		reconcileService,
		refreshService,
		cfg.GetWorkerCount(),
	)

	logrus.WithFields(logrus.Fields{
		"scraper_url":     cfg.ScraperURL,
		"market_data_url": cfg.MarketDataURL,
		"worker_count":    cfg.GetWorkerCount(),
	}).Info("Analyst backend services initialized")

	// Run immediately on startup, then once a day
	catalogJob.Run()

	dailyTicker := time.NewTicker(24 * time.Hour)
	defer dailyTicker.Stop()

	for range dailyTicker.C {
		catalogJob.Run()
	}
}
