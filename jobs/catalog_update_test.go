package jobs

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilmodi00/analyst-backend/models"
	"github.com/fenilmodi00/analyst-backend/services"
	"github.com/fenilmodi00/analyst-backend/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingSiteHandler() http.Handler {
	row := func(country, link, name string) string {
		return fmt.Sprintf(`<tr><td><span title=%q></span></td><td><a href=%q>%s</a></td></tr>`,
			country, link, name)
	}
	detail := func(heading string) string {
		return `<html><body><div class="instrumentHead"><h1>` + heading + `</h1></div></body></html>`
	}

	pages := map[string]string{
		"/indices/major-indices": `<html><body><div id="cross_rates_container"><table>` +
			`<tr><th></th><th></th></tr>` +
			row("France", "/indices/france-40", "CAC 40") +
			`</table></div></body></html>`,
		"/indices/france-40": detail("CAC 40 (FCHI)"),
		"/indices/france-40-components": `<html><body><div id="marketInnerContent"><table>` +
			`<tr><th></th><th></th></tr>` +
			row("France", "/equities/acme-corp", "Acme Corp") +
			row("France", "/equities/beta-industries", "Beta Industries") +
			`</table></div></body></html>`,
		"/equities/acme-corp":       detail("Acme Corp (ACME)"),
		"/equities/beta-industries": detail("Beta Industries (BETA)"),
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, found := pages[r.URL.Path]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, page)
	})
}

func TestCatalogUpdateJobEndToEnd(t *testing.T) {
	site := httptest.NewServer(listingSiteHandler())
	defer site.Close()

	var marketCalls int64
	market := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&marketCalls, 1)
		today := time.Now().UTC().Format("2006-01-02")
		fmt.Fprintf(w, `{"Time Series (Daily)": {%q: {"4. close": "101.0"}}}`, today)
	}))
	defer market.Close()

	scraperConfiguration := services.NewDefaultScraperConfiguration()
	scraperConfiguration.BaseURL = site.URL
	scraperConfiguration.MaxRetryAttempts = 0
	scraperService := services.NewScraperService(scraperConfiguration)

	marketConfiguration := services.NewDefaultMarketDataConfiguration()
	marketConfiguration.BaseURL = market.URL
	marketConfiguration.MinimumCallSpacing = 0
	marketDataService := services.NewMarketDataService(marketConfiguration)

	catalog := storage.NewMemoryCatalog()
	seriesStore := storage.NewMemorySeries()

	// Acme already has a resolved ticker, so it is the only refresh candidate
	acme := &models.Asset{
		ID:     uuid.New(),
		Name:   "Acme Corp",
		Kind:   models.AssetKindStock,
		Ticker: "ACME",
		Link:   "/equities/acme-corp",
	}
	require.NoError(t, catalog.CreateAsset(acme))

	job := NewCatalogUpdateJob(
		scraperService,
		services.NewReconcileService(catalog),
		services.NewRefreshService(marketDataService, seriesStore),
		2,
	)
	job.Run()

	// The index was created, linked to its own instrument and populated
	index, err := catalog.GetIndexByName("CAC 40")
	require.NoError(t, err)
	require.NotNil(t, index)
	assert.Equal(t, "/indices/france-40", index.Link)
	assert.True(t, index.HasMember("Acme Corp"))
	assert.True(t, index.HasMember("Beta Industries"))

	require.NotNil(t, index.Indice)
	assert.Equal(t, "^FCHI", index.Indice.PendingTicker())

	// Beta got its detail page resolved into a pending ticker
	beta, err := catalog.GetAssetByName("Beta Industries")
	require.NoError(t, err)
	require.NotNil(t, beta)
	assert.Equal(t, "BETA", beta.PendingTicker())
	assert.Equal(t, models.AssetKindStock, beta.Kind)

	// Only Acme was refreshed, and its series landed in the store
	assert.Equal(t, int64(1), atomic.LoadInt64(&marketCalls))

	latest, found, err := seriesStore.Latest(storage.SeriesKey(acme))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 101.0, latest.Close)
}

func TestCatalogUpdateJobSurvivesListingFailure(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer site.Close()

	scraperConfiguration := services.NewDefaultScraperConfiguration()
	scraperConfiguration.BaseURL = site.URL
	scraperConfiguration.MaxRetryAttempts = 0

	catalog := storage.NewMemoryCatalog()
	job := NewCatalogUpdateJob(
		services.NewScraperService(scraperConfiguration),
		services.NewReconcileService(catalog),
		services.NewRefreshService(nil, storage.NewMemorySeries()),
		2,
	)

	// Must not panic and must not touch the catalog
	job.Run()

	indexes, err := catalog.ListIndexes()
	require.NoError(t, err)
	assert.Empty(t, indexes)
}
