package models

// ScrapeRecord is the transient row produced for every listing-page entry or
// detail page. It is never persisted directly; the reconcile service consumes
// it immediately.
type ScrapeRecord struct {
	Name    string `json:"name"`
	Link    string `json:"link"`
	Country string `json:"country"`

	// Populated only by detail-page scrapes
	Kind      AssetKind       `json:"kind,omitempty"`
	ExtraData *AssetExtraData `json:"extra_data,omitempty"`
}

// FieldValue resolves a filter-rule field name against the record. Unknown
// field names resolve to the empty string and therefore never match.
func (r *ScrapeRecord) FieldValue(field string) string {
	switch field {
	case "name":
		return r.Name
	case "link":
		return r.Link
	case "country":
		return r.Country
	}
	return ""
}

// FilterRule holds include and exclude criteria mapping a record field name
// to a set of values. Evaluation order is the one the listing scraper has
// always used: a record matching any exclude value is rejected; otherwise a
// record matching any include value is accepted; a record is accepted
// unconditionally only when both mappings are empty.
type FilterRule struct {
	Include map[string][]string `json:"include,omitempty"`
	Exclude map[string][]string `json:"exclude,omitempty"`
}

// Accepts evaluates the rule against a scrape record
func (f FilterRule) Accepts(record *ScrapeRecord) bool {
	if matchesAny(record, f.Exclude) {
		return false
	}
	if matchesAny(record, f.Include) {
		return true
	}
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

func matchesAny(record *ScrapeRecord, criteria map[string][]string) bool {
	for field, values := range criteria {
		if len(values) == 0 {
			continue
		}
		actual := record.FieldValue(field)
		for _, value := range values {
			if actual == value {
				return true
			}
		}
	}
	return false
}
