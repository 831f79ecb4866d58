package domain

// Query holds the filter state of a list screen.
type Query struct {
	Page   int
	Search string
	Status string
}

// PageResult is one page of a remote collection under the current filter.
// It is a projection, replaced in full by every fetch.
type PageResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`

	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}
