package flickr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		format string
		want   string
	}{
		{"default host", "", "jpg", "https://live.staticflickr.com/65535/p1_abc_b.jpg"},
		{"custom host trailing slash", "http://127.0.0.1:9000/", "png", "http://127.0.0.1:9000/65535/p1_abc_b.png"},
		{"empty format falls back", DefaultImageBaseURL, "", "https://live.staticflickr.com/65535/p1_abc_b.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageURL(tt.base, "65535", "p1", "abc", tt.format))
		})
	}
}

func TestStripJSONP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`jsonFlickrApi({"stat":"ok"})`, `{"stat":"ok"}`},
		{"jsonFlickrApi({\"stat\":\"ok\"});\n", `{"stat":"ok"}`},
		{`{"stat":"ok"}`, `{"stat":"ok"}`},
		{"  {\"stat\":\"fail\"}\n", `{"stat":"fail"}`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(StripJSONP([]byte(tt.in))))
	}
}

func TestSearchParamsDefaultSort(t *testing.T) {
	v := SearchParams{BBox: "1,2,3,4", Page: 7}.Values()
	assert.Equal(t, SortDatePostedAsc, v.Get("sort"))
	assert.Equal(t, "7", v.Get("page"))
	assert.Equal(t, "1,2,3,4", v.Get("bbox"))
}

func TestFlexTypes(t *testing.T) {
	var doc struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
		D FlexInt    `json:"d"`
		E FlexInt    `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":12.5,"c":null,"d":"9","e":4}`), &doc))

	assert.Equal(t, FlexString("x"), doc.A)
	assert.Equal(t, FlexString("12.5"), doc.B)
	assert.Equal(t, FlexString(""), doc.C)
	assert.Equal(t, FlexInt(9), doc.D)
	assert.Equal(t, FlexInt(4), doc.E)

	require.NotNil(t, doc.B.Float())
	assert.Equal(t, 12.5, *doc.B.Float())
	assert.Nil(t, doc.C.Float())
	assert.Nil(t, doc.A.Float())

	n, err := FlexString("1700000000").Int()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), n)
}

func TestFormatDefault(t *testing.T) {
	assert.Equal(t, "jpg", PhotoDetail{}.Format())
	png := "png"
	assert.Equal(t, "png", PhotoDetail{OriginalFormat: &png}.Format())
}
