package flickr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// MethodSearch is the search endpoint used by the grid crawler
	MethodSearch = "flickr.photos.search"

	// MethodGetInfo is the detail endpoint used by the fetcher
	MethodGetInfo = "flickr.photos.getInfo"

	// SortDatePostedAsc orders search results oldest upload first
	SortDatePostedAsc = "date-posted-asc"

	// MaxSearchResults is the number of matches Flickr will page through for
	// a single query. Cells holding more photos than this must be split
	// before crawling.
	MaxSearchResults = 4000

	// DefaultImageBaseURL is the static host serving photo renditions
	DefaultImageBaseURL = "https://live.staticflickr.com"
)

// SearchParams are the arguments of one flickr.photos.search page
type SearchParams struct {
	BBox         string
	MinTakenDate string
	MaxTakenDate string
	Sort         string
	Page         int
}

// Values encodes the params as query arguments
func (p SearchParams) Values() url.Values {
	v := url.Values{}
	v.Set("bbox", p.BBox)
	v.Set("min_taken_date", p.MinTakenDate)
	v.Set("max_taken_date", p.MaxTakenDate)
	sort := p.Sort
	if sort == "" {
		sort = SortDatePostedAsc
	}
	v.Set("sort", sort)
	v.Set("page", strconv.Itoa(p.Page))
	return v
}

// ImageURL builds the URL of the large ("_b") rendition of a photo.
// The original-resolution asset is never requested.
func ImageURL(base, server, photoID, secret, format string) string {
	if base == "" {
		base = DefaultImageBaseURL
	}
	if format == "" {
		format = "jpg"
	}
	return fmt.Sprintf("%s/%s/%s_%s_b.%s", strings.TrimRight(base, "/"), server, photoID, secret, format)
}

// StripJSONP removes the jsonFlickrApi(...) wrapper Flickr puts around
// format=json responses. Plain JSON is returned unchanged.
func StripJSONP(body []byte) []byte {
	const prefix = "jsonFlickrApi("

	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, prefix) {
		return []byte(trimmed)
	}
	trimmed = strings.TrimPrefix(trimmed, prefix)
	trimmed = strings.TrimSuffix(trimmed, ";")
	trimmed = strings.TrimSuffix(trimmed, ")")
	return []byte(trimmed)
}
