// Package photo builds the entries the fetcher stores in a cell's aggregate
// document.
package photo

import (
	"encoding/json"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"flickrgrid/pkg/flickr"
)

// Metadata formats recorded on every entry
const (
	FormatRaw    = "raw"
	FormatCustom = "custom"
)

// CreatedAtLayout renders the posted time. The offset is literal; times are
// always converted to UTC first.
const CreatedAtLayout = "2006-01-02 15:04:05+00:00"

var converter = md.NewConverter("", true, nil)

// Record is the normalized entry written in custom metadata mode.
type Record struct {
	ID                 string      `json:"id"`
	Text               string      `json:"text"`
	Description        string      `json:"description"`
	DescriptionText    string      `json:"description_text"`
	CreatedAt          string      `json:"created_at"`
	CreatedAtTimestamp string      `json:"created_at_timestamp"`
	TakenAt            string      `json:"taken_at"`
	ViewsCount         string      `json:"views_count"`
	ReplyCount         string      `json:"reply_count"`
	BoxID              string      `json:"box_id"`
	LocationID         string      `json:"location_id"`
	OriginalSecret     *string     `json:"original_secret"`
	OriginalFormat     *string     `json:"original_format"`
	Geo                Geo         `json:"geo"`
	AuthorID           string      `json:"author_id"`
	Username           string      `json:"username"`
	Tags               []string    `json:"tags"`
	Attachments        Attachments `json:"attachments"`
	ImageURL           string      `json:"image_url"`
	Status             string      `json:"status"`
	ImageDownloaded    bool        `json:"image_downloaded"`
	OriginalDownloaded bool        `json:"original_downloaded"`
	MetadataFormat     string      `json:"metadata_format"`
}

// Geo is the location block. Every field is null for photos without a
// location.
type Geo struct {
	Coordinates   Point         `json:"coordinates"`
	Accuracy      *string       `json:"accuracy"`
	Context       *string       `json:"context"`
	Locality      *flickr.Place `json:"locality"`
	County        *flickr.Place `json:"county"`
	Region        *flickr.Place `json:"region"`
	Country       *flickr.Place `json:"country"`
	Neighbourhood *flickr.Place `json:"neighbourhood"`
}

// Point is a GeoJSON point, longitude first.
type Point struct {
	Type        string      `json:"type"`
	Coordinates [2]*float64 `json:"coordinates"`
}

// Attachments maps the photo id to its image URL
type Attachments struct {
	MediaKeys map[string]string `json:"media_keys"`
}

// RawRecord is the entry written in raw metadata mode. Meta holds the
// getInfo payload exactly as received.
type RawRecord struct {
	Title          string          `json:"title"`
	URL            string          `json:"url"`
	Downloaded     bool            `json:"downloaded"`
	Original       bool            `json:"original"`
	Meta           json.RawMessage `json:"meta"`
	MetadataFormat string          `json:"metadata_format"`
}

// NewRaw builds a raw-mode entry.
func NewRaw(title, imageURL string, downloaded, original bool, meta json.RawMessage) RawRecord {
	return RawRecord{
		Title:          title,
		URL:            imageURL,
		Downloaded:     downloaded,
		Original:       original,
		Meta:           meta,
		MetadataFormat: FormatRaw,
	}
}

// Build normalizes a getInfo detail into a Record.
func Build(photoID, cellID string, d flickr.PhotoDetail, imageURL string, downloaded, original bool) Record {
	rec := Record{
		ID:                 photoID,
		Text:               d.Title.Content.String(),
		Description:        d.Description.Content.String(),
		DescriptionText:    descriptionText(d.Description.Content.String()),
		CreatedAt:          createdAt(d.Dates.Posted),
		CreatedAtTimestamp: d.Dates.Posted.String(),
		TakenAt:            d.Dates.Taken,
		ViewsCount:         d.Views.String(),
		ReplyCount:         d.Comments.Content.String(),
		BoxID:              cellID,
		LocationID:         "NA",
		OriginalSecret:     d.OriginalSecret,
		Geo:                buildGeo(d.Location),
		AuthorID:           d.Owner.NSID,
		Username:           d.Owner.Username,
		Tags:               make([]string, 0, len(d.Tags.Tag)),
		Attachments:        Attachments{MediaKeys: map[string]string{photoID: imageURL}},
		ImageURL:           imageURL,
		Status:             "ok",
		ImageDownloaded:    downloaded,
		OriginalDownloaded: original,
		MetadataFormat:     FormatCustom,
	}

	if d.OriginalSecret != nil {
		format := d.Format()
		rec.OriginalFormat = &format
	}

	for _, t := range d.Tags.Tag {
		rec.Tags = append(rec.Tags, t.Content)
	}

	return rec
}

func createdAt(posted flickr.FlexString) string {
	secs, err := posted.Int()
	if err != nil {
		return ""
	}
	return time.Unix(secs, 0).UTC().Format(CreatedAtLayout)
}

func descriptionText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	text, err := converter.ConvertString(html)
	if err != nil {
		return html
	}
	return text
}

func buildGeo(loc *flickr.Location) Geo {
	geo := Geo{Coordinates: Point{Type: "Point"}}
	if loc == nil {
		return geo
	}

	geo.Coordinates.Coordinates = [2]*float64{loc.Longitude.Float(), loc.Latitude.Float()}
	geo.Accuracy = optional(loc.Accuracy)
	geo.Context = optional(loc.Context)
	geo.Locality = loc.Locality
	geo.County = loc.County
	geo.Region = loc.Region
	geo.Country = loc.Country
	geo.Neighbourhood = loc.Neighbourhood
	return geo
}

func optional(s flickr.FlexString) *string {
	if s == "" {
		return nil
	}
	v := s.String()
	return &v
}
