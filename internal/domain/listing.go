package domain

import "fmt"

// SortField identifies the column a link listing is ordered by.
// Unrecognized values are rejected at the request-parsing boundary
// rather than falling through to a default.
type SortField int

const (
	// SortByUpdated orders by the row's last-touched timestamp.
	SortByUpdated SortField = iota
	// SortByAuthor orders by comment author, case-insensitively.
	SortByAuthor
	// SortByClicks orders by total click count.
	SortByClicks
	// SortByLikes orders by total like count.
	SortByLikes
)

// ParseSortField maps a request string to a SortField.
func ParseSortField(s string) (SortField, error) {
	switch s {
	case "", "updated":
		return SortByUpdated, nil
	case "author":
		return SortByAuthor, nil
	case "clicks":
		return SortByClicks, nil
	case "likes":
		return SortByLikes, nil
	default:
		return 0, fmt.Errorf("unknown sort field %q", s)
	}
}

// SortOrder is the listing direction.
type SortOrder int

const (
	// SortDesc is descending order, the listing default.
	SortDesc SortOrder = iota
	// SortAsc is ascending order.
	SortAsc
)

// ParseSortOrder maps a request string to a SortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "", "desc":
		return SortDesc, nil
	case "asc":
		return SortAsc, nil
	default:
		return 0, fmt.Errorf("unknown sort order %q", s)
	}
}

// ListOptions filters, sorts, and paginates a link listing.
// Page is 1-indexed. Out-of-range pages yield an empty slice, not an error.
type ListOptions struct {
	Page    int
	PerPage int
	Search  string
	Sort    SortField
	Order   SortOrder
}

// LinkPage is one page of a filtered link listing. Clicks and Likes carry
// the counter totals for the URLs on the page, keyed by extracted link.
type LinkPage struct {
	Links      []StoredLink   `json:"links"`
	Clicks     map[string]int `json:"clicks"`
	Likes      map[string]int `json:"likes"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// FishtankPage is one page of the distinct-URL browsing feed.
type FishtankPage struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	Total      int      `json:"total"`
	TotalPages int      `json:"totalPages"`
	URLs       []string `json:"urls"`
}
