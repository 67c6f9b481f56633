package models

// Feed sort orders. Popular orders by like count plus comment count
// descending; newest and oldest order by creation time.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
)

// PostFilters narrows and orders a feed listing. Search is a
// case-insensitive substring match against post content, author name and
// video title. Filters apply to the entire collection before pagination.
type PostFilters struct {
	Search string
	Sort   string
}

// FeedPage is one page of a feed listing. Total is the filtered collection
// size, not the unfiltered store size. HasMore reports whether the slice
// end index is below Total.
type FeedPage struct {
	Posts   []*Post `json:"posts"`
	Page    int     `json:"page"`
	Limit   int     `json:"limit"`
	Total   int     `json:"total"`
	HasMore bool    `json:"has_more"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}
