package models

// Index represents a named market index and its set of constituent assets.
// Membership reflects the most recent successful scrape of the index's
// component list.
type Index struct {
	Name    string `json:"name"` // unique within the catalog
	Link    string `json:"link,omitempty"`
	Country string `json:"country,omitempty"`

	// Indice references the asset that represents the index value itself,
	// once it has been resolved from the index detail page.
	Indice *Asset `json:"indice,omitempty"`

	// Members is the constituent set keyed by asset name.
	Members map[string]*Asset `json:"-"`
}

// HasMember reports whether an asset with the given name belongs to the index
func (i *Index) HasMember(name string) bool {
	_, ok := i.Members[name]
	return ok
}

// AddMember inserts an asset into the constituent set
func (i *Index) AddMember(asset *Asset) {
	if i.Members == nil {
		i.Members = make(map[string]*Asset)
	}
	i.Members[asset.Name] = asset
}

// RemoveMember drops an asset from the constituent set by name
func (i *Index) RemoveMember(name string) {
	delete(i.Members, name)
}

// MemberNames returns the names of all constituents, in no particular order
func (i *Index) MemberNames() []string {
	names := make([]string, 0, len(i.Members))
	for name := range i.Members {
		names = append(names, name)
	}
	return names
}
