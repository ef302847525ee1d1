package models

// VnSummary is one visual novel in a search result.
type VnSummary struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Released *string `json:"released"`
	ImageURL *string `json:"image_url"`
}

// SearchResult is the payload returned by the search-vn tool.
type SearchResult struct {
	Results []VnSummary `json:"results"`
	Count   int         `json:"count"`
}

// VnDetail is the payload returned by the get-vn-details tool.
// Sequences are never nil so they serialize as [] rather than null.
type VnDetail struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Aliases     []string `json:"aliases"`
	ImageURL    *string  `json:"image_url"`
	Length      *int     `json:"length"`
	Description *string  `json:"description"`
	Rating      *float64 `json:"rating"`
	Languages   []string `json:"languages"`
	Platforms   []string `json:"platforms"`
	Tags        []string `json:"tags"`
}
