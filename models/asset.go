package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssetKind classifies a tracked instrument by market segment
type AssetKind string

const (
	AssetKindIndice AssetKind = "I"
	AssetKindStock  AssetKind = "S"
	AssetKindForex  AssetKind = "F"
	AssetKindCrypto AssetKind = "C"
)

// assetKindNames maps the single-letter kind codes to display names
var assetKindNames = map[AssetKind]string{
	AssetKindIndice: "Indice",
	AssetKindStock:  "Stock",
	AssetKindForex:  "Forex",
	AssetKindCrypto: "Crypto-currency",
}

// Expanded returns the human-readable name of the asset kind
func (k AssetKind) Expanded() string {
	return assetKindNames[k]
}

// IsValid reports whether the kind is one of the known market segments
func (k AssetKind) IsValid() bool {
	_, ok := assetKindNames[k]
	return ok
}

// AssetExtraData holds the optional metadata fields collected from the
// instrument detail page. All fields are pointers so partially populated
// records can be distinguished from zero values.
type AssetExtraData struct {
	PendingTicker *string  `json:"pending_ticker,omitempty"`
	Currency      *string  `json:"currency,omitempty"`
	LastClose     *float64 `json:"close,omitempty"`
	Dividend      *float64 `json:"dividend,omitempty"`
	Shares        *int64   `json:"shares,omitempty"`
	MarketCap     *int64   `json:"cap,omitempty"`
}

// IsEmpty reports whether no metadata field is populated
func (e *AssetExtraData) IsEmpty() bool {
	if e == nil {
		return true
	}
	return e.PendingTicker == nil && e.Currency == nil && e.LastClose == nil &&
		e.Dividend == nil && e.Shares == nil && e.MarketCap == nil
}

// Equal compares two metadata records field by field
func (e *AssetExtraData) Equal(other *AssetExtraData) bool {
	if e.IsEmpty() && other.IsEmpty() {
		return true
	}
	if e == nil || other == nil {
		return false
	}
	return equalPtr(e.PendingTicker, other.PendingTicker) &&
		equalPtr(e.Currency, other.Currency) &&
		equalPtr(e.LastClose, other.LastClose) &&
		equalPtr(e.Dividend, other.Dividend) &&
		equalPtr(e.Shares, other.Shares) &&
		equalPtr(e.MarketCap, other.MarketCap)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Asset represents a tracked financial instrument (index, stock, forex pair)
type Asset struct {
	// Primary identification
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"` // unique within the catalog

	// Classification and identity resolution
	Kind   AssetKind `json:"kind,omitempty"`
	Ticker string    `json:"ticker,omitempty"` // empty until resolved

	// Scraping origin
	Link    string `json:"link,omitempty"`
	Country string `json:"country,omitempty"`

	// Metadata collected from the detail page
	ExtraData *AssetExtraData `json:"extra_data,omitempty"`

	// Audit fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnalysisName returns the column label used when assembling cross-asset
// series, combining the stable id with the current ticker.
func (a *Asset) AnalysisName() string {
	return fmt.Sprintf("%s:%s", a.ID, a.Ticker)
}

// PendingTicker returns the unresolved ticker candidate scraped from the
// detail page, or the empty string when none was found.
func (a *Asset) PendingTicker() string {
	if a.ExtraData == nil || a.ExtraData.PendingTicker == nil {
		return ""
	}
	return *a.ExtraData.PendingTicker
}

// LastClose returns the previous close scraped from the detail page and
// whether one was recorded.
func (a *Asset) LastClose() (float64, bool) {
	if a.ExtraData == nil || a.ExtraData.LastClose == nil {
		return 0, false
	}
	return *a.ExtraData.LastClose, true
}
