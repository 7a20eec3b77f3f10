package flickr

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString decodes a JSON string or number. Flickr returns counts and
// timestamps as either depending on the method and API version.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// String returns the value as a Go string
func (s FlexString) String() string {
	return string(s)
}

// Int parses the value as an integer
func (s FlexString) Int() (int64, error) {
	return strconv.ParseInt(string(s), 10, 64)
}

// Float parses the value as a float, returning nil when empty or invalid.
func (s FlexString) Float() *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

// FlexInt decodes a JSON number or numeric string into an int.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (i *FlexInt) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*i = 0
		return nil
	}
	v, err := strconv.Atoi(string(s))
	if err != nil {
		return err
	}
	*i = FlexInt(v)
	return nil
}

// Content is Flickr's {"_content": "..."} wrapper.
type Content struct {
	Content FlexString `json:"_content"`
}

// BasicResponse carries the status fields present on every API response.
type BasicResponse struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the API accepted the call
func (r BasicResponse) OK() bool {
	return r.Stat == "ok"
}

// SearchResponse is the payload of flickr.photos.search
type SearchResponse struct {
	BasicResponse
	Photos SearchPage `json:"photos"`
}

// SearchPage holds one page of search results
type SearchPage struct {
	Page    FlexInt       `json:"page"`
	Pages   FlexInt       `json:"pages"`
	PerPage FlexInt       `json:"perpage"`
	Total   FlexInt       `json:"total"`
	Photo   []SearchPhoto `json:"photo"`
}

// SearchPhoto is one photo of a search page
type SearchPhoto struct {
	ID     string `json:"id"`
	Owner  string `json:"owner"`
	Secret string `json:"secret"`
	Server string `json:"server"`
	Title  string `json:"title"`
}

// InfoResponse is the payload of flickr.photos.getInfo
type InfoResponse struct {
	BasicResponse
	Photo PhotoDetail `json:"photo"`
}

// PhotoDetail holds the getInfo fields the pipeline reads. Optional blocks
// are pointers so an absent block is distinguishable from an empty one.
type PhotoDetail struct {
	ID             string     `json:"id"`
	Secret         string     `json:"secret"`
	Server         string     `json:"server"`
	OriginalSecret *string    `json:"originalsecret,omitempty"`
	OriginalFormat *string    `json:"originalformat,omitempty"`
	Title          Content    `json:"title"`
	Description    Content    `json:"description"`
	Dates          Dates      `json:"dates"`
	Views          FlexString `json:"views"`
	Comments       Content    `json:"comments"`
	Location       *Location  `json:"location,omitempty"`
	Owner          Owner      `json:"owner"`
	Tags           Tags       `json:"tags"`
}

// Dates holds the posted epoch and the taken datetime
type Dates struct {
	Posted FlexString `json:"posted"`
	Taken  string     `json:"taken"`
}

// Location is the geo block of a geotagged photo
type Location struct {
	Latitude      FlexString `json:"latitude"`
	Longitude     FlexString `json:"longitude"`
	Accuracy      FlexString `json:"accuracy"`
	Context       FlexString `json:"context"`
	Neighbourhood *Place     `json:"neighbourhood,omitempty"`
	Locality      *Place     `json:"locality,omitempty"`
	County        *Place     `json:"county,omitempty"`
	Region        *Place     `json:"region,omitempty"`
	Country       *Place     `json:"country,omitempty"`
}

// Place is a named place in the geo hierarchy
type Place struct {
	Content string `json:"_content"`
	PlaceID string `json:"place_id,omitempty"`
	WOEID   string `json:"woeid,omitempty"`
}

// Owner identifies the photo's author
type Owner struct {
	NSID     string `json:"nsid"`
	Username string `json:"username"`
	Realname string `json:"realname,omitempty"`
	Location string `json:"location,omitempty"`
}

// Tags wraps the tag list
type Tags struct {
	Tag []Tag `json:"tag"`
}

// Tag is one tag on a photo
type Tag struct {
	ID      string `json:"id"`
	Raw     string `json:"raw"`
	Content string `json:"_content"`
}

// PhotoInfo is a decoded getInfo response together with the payload as
// received, so callers can store either form.
type PhotoInfo struct {
	Photo PhotoDetail
	Raw   json.RawMessage
}

// Format returns the rendition format, defaulting to jpg.
func (p PhotoDetail) Format() string {
	if p.OriginalFormat != nil && *p.OriginalFormat != "" {
		return *p.OriginalFormat
	}
	return "jpg"
}
