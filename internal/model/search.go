package model

// SearchResults groups cross-entity search hits for the console's
// search-as-you-type box.
type SearchResults struct {
	Templates    []Template    `json:"templates"`
	Environments []Environment `json:"environments"`
	Deployments  []Deployment  `json:"deployments"`
}

// Total returns the number of hits across all entity types.
func (r *SearchResults) Total() int {
	return len(r.Templates) + len(r.Environments) + len(r.Deployments)
}
