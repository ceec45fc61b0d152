package domain

// Pagination describes where a loaded page sits in the remote collection.
type Pagination struct {
	From     int `json:"from"`
	To       int `json:"to"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

// Known reports whether the API has told us how many pages exist.
func (p Pagination) Known() bool {
	return p.LastPage > 0
}

// Page is one page of records plus its pagination metadata.
type Page[T any] struct {
	Records    []T
	Pagination Pagination
}

// Record is anything the API has persisted and identified.
type Record interface {
	RecordID() ID
}
