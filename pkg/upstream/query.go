package upstream

import (
	"net/url"
)

// Listing defaults applied when the caller leaves a parameter out.
const (
	DefaultPage          = "1"
	DefaultPerPage       = "4"
	DefaultSortBy        = "title"
	DefaultSortDirection = "asc"
)

// PostsQuery holds the listing parameters. Values are passed through as
// strings; the content API owns their validation.
type PostsQuery struct {
	Page          string
	PerPage       string
	SortBy        string
	SortDirection string
	SearchPhrase  string
	CategoryID    string
}

// PostsQueryFromValues reads the listing parameters from a local request
// query and fills in defaults.
func PostsQueryFromValues(v url.Values) PostsQuery {
	return PostsQuery{
		Page:          v.Get("page"),
		PerPage:       v.Get("perPage"),
		SortBy:        v.Get("sortBy"),
		SortDirection: v.Get("sortDirection"),
		SearchPhrase:  v.Get("searchPhrase"),
		CategoryID:    v.Get("categoryId"),
	}.WithDefaults()
}

// WithDefaults returns q with empty paging and sort fields defaulted.
func (q PostsQuery) WithDefaults() PostsQuery {
	if q.Page == "" {
		q.Page = DefaultPage
	}
	if q.PerPage == "" {
		q.PerPage = DefaultPerPage
	}
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.SortDirection == "" {
		q.SortDirection = DefaultSortDirection
	}
	return q
}

// Values encodes q for the upstream call. Search and category filters are
// only sent when set.
func (q PostsQuery) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("page", q.Page)
	set("perPage", q.PerPage)
	set("sortBy", q.SortBy)
	set("sortDirection", q.SortDirection)
	set("searchPhrase", q.SearchPhrase)
	set("categoryId", q.CategoryID)
	return v
}
