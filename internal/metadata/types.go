package metadata

// Catalog result kinds.
const (
	CatalogPopular = "popular"
	CatalogSearch  = "search"
	CatalogDetail  = "detail"
)

// CatalogResult is the outcome of one catalog lookup. Exactly one of
// the payload fields matches Kind; the rest stay empty.
type CatalogResult struct {
	Kind    string       `json:"kind"`
	Popular []Subject    `json:"popular,omitempty"`
	Search  []Suggestion `json:"search,omitempty"`
	Detail  *Detail      `json:"detail,omitempty"`
}

// Empty reports whether the lookup produced nothing usable.
func (r CatalogResult) Empty() bool {
	switch r.Kind {
	case CatalogPopular:
		return len(r.Popular) == 0
	case CatalogSearch:
		return len(r.Search) == 0
	case CatalogDetail:
		return r.Detail == nil
	default:
		return true
	}
}
