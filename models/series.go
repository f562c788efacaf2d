package models

import (
	"sort"
	"time"
)

// PricePoint is a single observation of an instrument's closing price
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is an ordered sequence of close prices, strictly ascending by
// date. The upstream API does not guarantee order, so producers must call
// Sort before handing a series on.
type PriceSeries []PricePoint

// Sort orders the series ascending by date
func (s PriceSeries) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Date.Before(s[j].Date)
	})
}

// Latest returns the most recent point of the series and whether the series
// holds any point at all.
func (s PriceSeries) Latest() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// LastClose returns the close value of the most recent point, or zero when
// the series is empty.
func (s PriceSeries) LastClose() float64 {
	point, ok := s.Latest()
	if !ok {
		return 0
	}
	return point.Close
}
