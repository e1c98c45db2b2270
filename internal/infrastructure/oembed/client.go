// Package oembed fetches embed markup from provider oembed endpoints.
package oembed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/embedworks/vidembed/internal/domain/model"
	"github.com/embedworks/vidembed/internal/match"
)

// maxBodySize caps how much of a provider response is read. Real oembed
// documents are a few KB.
const maxBodySize = 1 << 20

// ClientConfig holds configuration for the oembed client.
type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:   10 * time.Second,
		UserAgent: "vidembed/1.0",
	}
}

// FetchRequest carries everything needed to resolve one video against its
// provider's oembed endpoint.
type FetchRequest struct {
	Provider match.Provider
	VideoURL string
	VideoID  string
	Owner    model.OwnerRef
}

// intish tolerates numeric oembed fields arriving as JSON numbers,
// floats or quoted numbers. Unparseable values decode to zero instead of
// failing the whole document.
type intish int

func (n *intish) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = intish(f)
	return nil
}

// response mirrors the oembed JSON document.
type response struct {
	Type            string `json:"type"`
	Version         string `json:"version"`
	Title           string `json:"title"`
	AuthorName      string `json:"author_name"`
	AuthorURL       string `json:"author_url"`
	ProviderName    string `json:"provider_name"`
	ProviderURL     string `json:"provider_url"`
	HTML            string `json:"html"`
	Width           intish `json:"width"`
	Height          intish `json:"height"`
	ThumbnailURL    string `json:"thumbnail_url"`
	ThumbnailWidth  intish `json:"thumbnail_width"`
	ThumbnailHeight intish `json:"thumbnail_height"`
}

// Client resolves videos against provider oembed endpoints. A lookup
// makes exactly one HTTP request; retrying alternate URL shapes is the
// caller's decision.
type Client struct {
	httpClient *http.Client
	config     ClientConfig
	settings   model.Settings
}

// NewClient creates a new oembed client.
func NewClient(cfg ClientConfig, settings model.Settings) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		settings:   settings.Normalize(),
	}
}

// Fetch resolves one video. Transport failures, non-200 statuses and
// malformed bodies all come back as a failure record rather than an
// error: a dead video is a cacheable outcome, not a fault of the engine.
// The returned record is never nil.
func (c *Client) Fetch(ctx context.Context, req FetchRequest) *model.EmbedRecord {
	endpoint := c.endpointURL(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return c.failed(req, 0)
	}
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Warn("oembed request failed",
			"provider", req.Provider.Name,
			"video_id", req.VideoID,
			"error", err,
		)
		return c.failed(req, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.failed(req, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return c.failed(req, 0)
	}

	var doc response
	if err := json.Unmarshal(body, &doc); err != nil || doc.HTML == "" {
		// A 200 without usable embed markup is still a failed lookup;
		// the status records that a response was obtained.
		return c.failed(req, resp.StatusCode)
	}

	rec := &model.EmbedRecord{
		VideoID:         req.VideoID,
		VideoURL:        req.VideoURL,
		Valid:           true,
		EmbedHTML:       doc.HTML,
		HTTPStatus:      http.StatusOK,
		Title:           doc.Title,
		AuthorName:      doc.AuthorName,
		AuthorURL:       doc.AuthorURL,
		ProviderName:    doc.ProviderName,
		ProviderURL:     doc.ProviderURL,
		Type:            doc.Type,
		Version:         doc.Version,
		Width:           int(doc.Width),
		Height:          int(doc.Height),
		ThumbnailURL:    doc.ThumbnailURL,
		ThumbnailWidth:  int(doc.ThumbnailWidth),
		ThumbnailHeight: int(doc.ThumbnailHeight),
		Owner:           req.Owner,
	}

	if c.settings.PrivacyEnhanced {
		rec.EmbedHTML = strings.ReplaceAll(rec.EmbedHTML,
			"youtube.com/", "youtube-nocookie.com/")
		rec.EmbedHTML = strings.ReplaceAll(rec.EmbedHTML,
			"?app_id=", "?dnt=1&app_id=")
	}

	return rec
}

// endpointURL expands the provider endpoint template and appends the
// configured size cap. Templates that already constrain the width keep
// their own constraint.
func (c *Client) endpointURL(req FetchRequest) string {
	endpoint := strings.ReplaceAll(req.Provider.Endpoint, "{url}", url.QueryEscape(req.VideoURL))
	endpoint = strings.ReplaceAll(endpoint, "{id}", url.QueryEscape(req.VideoID))

	if strings.Contains(req.Provider.Endpoint, "maxwidth") {
		return endpoint
	}
	if w, h, ok := c.settings.MaxResolution.Size(); ok {
		endpoint += fmt.Sprintf("&maxwidth=%d&maxheight=%d", w, h)
	}
	return endpoint
}

func (c *Client) failed(req FetchRequest, status int) *model.EmbedRecord {
	rec := model.NewFailedEmbed(req.VideoID, req.VideoURL, status)
	rec.Owner = req.Owner
	return rec
}
