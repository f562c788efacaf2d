package services

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fenilmodi00/analyst-backend/models"
	"github.com/fenilmodi00/analyst-backend/shared"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// ScraperConfiguration holds configuration parameters for the listing scraper service
type ScraperConfiguration struct {
	BaseURL            string        // Listing website base URL
	HTTPRequestTimeout time.Duration // Maximum time to wait for HTTP responses
	MaxRetryAttempts   int           // Maximum number of retry attempts for detail pages
	IndiceFilter       models.FilterRule
	AssetFilter        models.FilterRule
}

// NewDefaultScraperConfiguration returns production-ready default configuration
func NewDefaultScraperConfiguration() *ScraperConfiguration {
	return &ScraperConfiguration{
		BaseURL:            "https://www.investing.com",
		HTTPRequestTimeout: 30 * time.Second,
		MaxRetryAttempts:   3,
	}
}

// ScraperService fetches and parses the listing website: the major-indices
// page, per-index constituent pages (following pagination), and
// per-instrument detail pages.
type ScraperService struct {
	config        *ScraperConfiguration
	utility       *UtilityService
	clientFactory *shared.HTTPClientFactory
}

// NewScraperService creates a new scraper service instance. A nil
// configuration selects the defaults.
func NewScraperService(config *ScraperConfiguration) *ScraperService {
	if config == nil {
		config = NewDefaultScraperConfiguration()
	}

	return &ScraperService{
		config:        config,
		utility:       NewUtilityService(),
		clientFactory: shared.NewHTTPClientFactory(config.HTTPRequestTimeout),
	}
}

// fullURL resolves a site-relative link against the configured base URL
func (s *ScraperService) fullURL(link string) string {
	return s.config.BaseURL + link
}

// fetchListingPage visits one listing page through a collector and returns
// its document root.
func (s *ScraperService) fetchListingPage(link string) (*goquery.Selection, error) {
	collector := colly.NewCollector()

	collector.OnRequest(func(request *colly.Request) {
		request.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
		request.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var pageRoot *goquery.Selection
	collector.OnHTML("html", func(element *colly.HTMLElement) {
		pageRoot = element.DOM
	})

	var visitError error
	collector.OnError(func(response *colly.Response, err error) {
		visitError = err
	})

	if err := collector.Visit(s.fullURL(link)); err != nil {
		return nil, fmt.Errorf("failed to fetch listing page %s: %w", link, err)
	}
	if visitError != nil {
		return nil, fmt.Errorf("failed to fetch listing page %s: %w", link, visitError)
	}
	if pageRoot == nil {
		return nil, fmt.Errorf("listing page %s returned no parsable document", link)
	}

	return pageRoot, nil
}

// parseListingRow extracts one scrape record from a listing table row:
// country from the flag span's title attribute, then the linked display name.
// Rows failing the filter rule are dropped silently, filtering is a designed
// exclusion rather than a fault.
func (s *ScraperService) parseListingRow(row *goquery.Selection, filter models.FilterRule) *models.ScrapeRecord {
	cells := row.Find("td")
	if cells.Length() < 2 {
		return nil
	}

	country, _ := cells.Eq(0).Find("span").Attr("title")
	anchor := cells.Eq(1).Find("a")
	link, _ := anchor.Attr("href")
	name := strings.ReplaceAll(anchor.Text(), ";", "")

	record := &models.ScrapeRecord{
		Name:    name,
		Link:    link,
		Country: country,
	}

	if !filter.Accepts(record) {
		return nil
	}
	return record
}

// ListIndices parses the major-indices listing page and returns the accepted
// index rows grouped by country.
func (s *ScraperService) ListIndices() (map[string][]models.ScrapeRecord, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "ScraperService",
		"method":    "ListIndices",
	})

	pageRoot, err := s.fetchListingPage("/indices/major-indices")
	if err != nil {
		return nil, err
	}

	indicesByCountry := make(map[string][]models.ScrapeRecord)
	pageRoot.Find("#cross_rates_container tr").Each(func(rowIndex int, row *goquery.Selection) {
		if rowIndex == 0 { // header row
			return
		}
		if record := s.parseListingRow(row, s.config.IndiceFilter); record != nil {
			indicesByCountry[record.Country] = append(indicesByCountry[record.Country], *record)
		}
	})

	logger.WithField("countries", len(indicesByCountry)).Info("Scraped major indices listing")
	return indicesByCountry, nil
}

// ListConstituents parses the constituent listing of one index, following
// pagination. The page count is read once from the pagination block of the
// first page; pages 2..N are then fetched iteratively with a page-index
// suffix, and page 1 is never fetched again.
func (s *ScraperService) ListConstituents(indexLink string) ([]models.ScrapeRecord, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component":  "ScraperService",
		"method":     "ListConstituents",
		"index_link": indexLink,
	})

	firstPage, err := s.fetchListingPage(indexLink + "-components")
	if err != nil {
		return nil, err
	}

	constituents := s.parseConstituentRows(firstPage)
	pageCount := firstPage.Find("#paginationWrap a.pagination").Length()

	for page := 2; page <= pageCount; page++ {
		pageRoot, err := s.fetchListingPage(fmt.Sprintf("%s-components/%d", indexLink, page))
		if err != nil {
			return nil, err
		}
		constituents = append(constituents, s.parseConstituentRows(pageRoot)...)
	}

	logger.WithFields(logrus.Fields{
		"constituents": len(constituents),
		"pages":        max(pageCount, 1),
	}).Info("Scraped index constituents")
	return constituents, nil
}

func (s *ScraperService) parseConstituentRows(pageRoot *goquery.Selection) []models.ScrapeRecord {
	var records []models.ScrapeRecord
	pageRoot.Find("#marketInnerContent tr").Each(func(rowIndex int, row *goquery.Selection) {
		if rowIndex == 0 { // header row
			return
		}
		if record := s.parseListingRow(row, s.config.AssetFilter); record != nil {
			records = append(records, *record)
		}
	})
	return records
}

// fetchDetailPage retrieves a per-instrument detail page with retries
func (s *ScraperService) fetchDetailPage(link string) (*goquery.Document, error) {
	request, err := http.NewRequest(http.MethodGet, s.fullURL(link), nil)
	if err != nil {
		return nil, err
	}
	shared.SetBrowserLikeHeaders(request, "text/html,application/xhtml+xml")

	client := s.clientFactory.Client(s.config.HTTPRequestTimeout)
	response, err := shared.ExecuteHTTPRequestWithRetry(client, request, s.config.MaxRetryAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detail page %s: %w", link, err)
	}
	defer response.Body.Close()

	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page %s: %w", link, err)
	}
	return document, nil
}

var headingSplitRegex = regexp.MustCompile(`\(|\)`)

// resolveTickerData resolves the pending ticker for an instrument, trying two
// strategies in order: the sibling-instruments table (skipping rows whose
// ticker is purely numeric, keeping the currency column of the first valid
// row), then the instrument heading, split on parentheses, falling back to
// the heading's first whitespace-delimited token.
func (s *ScraperService) resolveTickerData(document *goquery.Document) (pendingTicker, currency string) {
	siblingRows := document.Find("#DropdownSiblingsTable tr")
	if siblingRows.Length() > 0 {
		for rowIndex := 1; rowIndex < siblingRows.Length(); rowIndex++ {
			cells := siblingRows.Eq(rowIndex).Find("td")
			if cells.Length() < 4 {
				continue
			}

			candidate := strings.TrimSpace(cells.Eq(1).Find("a").Text())
			if candidate == "" || isAllDigits(candidate) {
				continue
			}

			return candidate, strings.TrimSpace(cells.Eq(3).Text())
		}
		return "", ""
	}

	heading := document.Find("div.instrumentHead h1").First().Text()
	heading = s.utility.NormalizeTextContent(heading)
	if heading == "" {
		return "", ""
	}

	tokens := headingSplitRegex.Split(heading, -1)
	if len(tokens) > 1 {
		// The parenthesized token sits second to last after the split
		return strings.TrimSpace(tokens[len(tokens)-2]), ""
	}
	return strings.Fields(heading)[0], ""
}

func isAllDigits(text string) bool {
	for _, character := range text {
		if character < '0' || character > '9' {
			return false
		}
	}
	return len(text) > 0
}

// parseOverviewFields decodes the named side table of the detail page into
// typed metadata. A literal "N/A" (case-insensitive) maps to the per-field
// default rather than failing the record.
func (s *ScraperService) parseOverviewFields(document *goquery.Document, extraData *models.AssetExtraData) error {
	overview := document.Find("div.overviewDataTable")
	if overview.Length() == 0 {
		return nil
	}

	var parseError error
	overview.Find("div").EachWithBreak(func(_ int, entry *goquery.Selection) bool {
		spans := entry.Find("span")
		if spans.Length() < 2 {
			return true
		}

		key := s.utility.NormalizeTextContent(spans.Eq(0).Text())
		value := s.utility.NormalizeTextContent(spans.Eq(1).Text())

		if err := s.applyOverviewField(extraData, key, value); err != nil {
			parseError = err
			return false
		}
		return true
	})

	return parseError
}

// applyOverviewField decodes one known overview field. Unknown keys are
// ignored. The Beta and EPS columns are deliberately absent: the listing site
// renders them with the market-cap value.
func (s *ScraperService) applyOverviewField(extraData *models.AssetExtraData, key, value string) error {
	notApplicable := s.utility.IsNotApplicable(value)

	switch key {
	case "Dividend (Yield)":
		dividend := 0.0
		if !notApplicable {
			parsed, err := s.utility.ParseFirstElement(value)
			if err != nil {
				return err
			}
			dividend = parsed
		}
		extraData.Dividend = &dividend

	case "Shares Outstanding":
		shares := int64(0)
		if !notApplicable {
			parsed, err := s.utility.ParseInt(value)
			if err != nil {
				return err
			}
			shares = parsed
		}
		extraData.Shares = &shares

	case "Market Cap":
		marketCap := int64(0)
		if !notApplicable {
			parsed, err := s.utility.ParseCapital(value)
			if err != nil {
				return err
			}
			marketCap = parsed
		}
		extraData.MarketCap = &marketCap

	case "Prev. Close":
		lastClose := 0.0
		if !notApplicable {
			parsed, err := s.utility.ParseFloat(value)
			if err != nil {
				return err
			}
			lastClose = parsed
		}
		extraData.LastClose = &lastClose
	}

	return nil
}

// FetchAssetDetails retrieves and parses one instrument detail page,
// determining the asset kind from the URL path segment and resolving the
// pending ticker and metadata fields.
func (s *ScraperService) FetchAssetDetails(link string) (*models.ScrapeRecord, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "ScraperService",
		"method":    "FetchAssetDetails",
		"link":      link,
	})

	var kind models.AssetKind
	switch {
	case strings.Contains(link, "indices"):
		kind = models.AssetKindIndice
	case strings.Contains(link, "currencies"):
		kind = models.AssetKindForex
	case strings.Contains(link, "equities"):
		kind = models.AssetKindStock
	default:
		return nil, shared.NewUnsupportedAssetKindError(link)
	}

	document, err := s.fetchDetailPage(link)
	if err != nil {
		return nil, err
	}

	extraData := &models.AssetExtraData{}

	pendingTicker, currency := s.resolveTickerData(document)
	if pendingTicker != "" {
		// Indices quote under a caret-prefixed symbol
		if kind == models.AssetKindIndice {
			pendingTicker = "^" + pendingTicker
		}
		extraData.PendingTicker = &pendingTicker
	}
	if currency != "" {
		extraData.Currency = &currency
	}

	if err := s.parseOverviewFields(document, extraData); err != nil {
		return nil, fmt.Errorf("failed to parse overview fields of %s: %w", link, err)
	}

	logger.WithFields(logrus.Fields{
		"kind":           kind,
		"pending_ticker": pendingTicker,
	}).Debug("Fetched instrument details")

	return &models.ScrapeRecord{
		Link:      link,
		Kind:      kind,
		ExtraData: extraData,
	}, nil
}
