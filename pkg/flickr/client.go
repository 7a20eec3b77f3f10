package flickr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	mflickr "gopkg.in/masci/flickr.v3"

	"flickrgrid/pkg/config"
	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/logger"
)

// Client is a Flickr REST API client exposing the two calls the pipeline
// needs. Each call is a single HTTP round trip with no retries.
type Client struct {
	apiKey     string
	apiSecret  string
	endpoint   string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a new Flickr API client
func NewClient(cfg config.FlickrConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = mflickr.API_ENDPOINT
	}

	return &Client{
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		endpoint:  endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(h *http.Client) {
	c.httpClient = h
}

// methodURL assembles the request URL for method with the given arguments.
func (c *Client) methodURL(method string, args url.Values) string {
	fc := mflickr.NewFlickrClient(c.apiKey, c.apiSecret)
	fc.Init()
	fc.EndpointUrl = c.endpoint
	fc.Args.Set("method", method)
	fc.Args.Set("api_key", fc.ApiKey)
	fc.Args.Set("format", "json")
	for key, vals := range args {
		for _, v := range vals {
			fc.Args.Add(key, v)
		}
	}
	return fc.GetUrl()
}

// call performs one API request and returns the unwrapped JSON body after
// checking the response stat.
func (c *Client) call(ctx context.Context, method string, args url.Values) ([]byte, error) {
	reqURL := c.methodURL(method, args)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, ferrors.Transport(method, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.logger.DebugWithFields("sending API request", map[string]interface{}{
		"method": method,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ferrors.Transport(method, 0, err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("API request completed", map[string]interface{}{
		"method":   method,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, ferrors.Transport(method, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ferrors.Transport(method, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	payload := StripJSONP(body)

	var basic BasicResponse
	if err := json.Unmarshal(payload, &basic); err != nil {
		preview := string(payload)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.WarnWithFields("failed to parse API response", map[string]interface{}{
			"method":       method,
			"body_preview": preview,
		})
		return nil, ferrors.Protocol(method, "failed to parse JSON: %v", err)
	}
	if !basic.OK() {
		msg := basic.Message
		if msg == "" {
			msg = "Unknown error"
		}
		e := ferrors.Protocol(method, "Flickr API error: %s", msg)
		e.Code = basic.Code
		return nil, e
	}

	return payload, nil
}

// Search fetches one page of flickr.photos.search results
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	payload, err := c.call(ctx, MethodSearch, params.Values())
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, ferrors.Protocol(MethodSearch, "failed to decode search page: %v", err)
	}
	return &resp, nil
}

// GetInfo fetches flickr.photos.getInfo for photoID. The returned PhotoInfo
// keeps the payload exactly as received alongside the decoded detail.
func (c *Client) GetInfo(ctx context.Context, photoID string) (*PhotoInfo, error) {
	args := url.Values{}
	args.Set("photo_id", photoID)

	payload, err := c.call(ctx, MethodGetInfo, args)
	if err != nil {
		return nil, err
	}

	var resp InfoResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, ferrors.Protocol(MethodGetInfo, "failed to decode photo %s: %v", photoID, err)
	}
	if resp.Photo.Server == "" || resp.Photo.Secret == "" {
		return nil, ferrors.Protocol(MethodGetInfo, "photo %s: response has no server or secret", photoID)
	}

	return &PhotoInfo{
		Photo: resp.Photo,
		Raw:   json.RawMessage(payload),
	}, nil
}
