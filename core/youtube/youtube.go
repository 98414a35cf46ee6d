// Package youtube resolves video identifiers to display metadata via the
// YouTube Data API v3. The API is the external collaborator the song catalog
// depends on; nothing here touches playback.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const defaultAPIBase = "https://www.googleapis.com/youtube/v3"

// VideoMeta is the metadata resolved for one video.
type VideoMeta struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Artist    string `json:"artist"` // Channel title; the closest thing the API has to an artist.
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration"` // Seconds, decimal string.
}

// MetadataLookup resolves a video id to display metadata.
type MetadataLookup interface {
	Lookup(ctx context.Context, videoID string) (*VideoMeta, error)
}

// Client talks to the YouTube Data API v3.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Data API client. baseURL and httpClient may be empty
// to use the real endpoint and http.DefaultClient.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type videosResponse struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				High    *thumbnail `json:"high"`
				Medium  *thumbnail `json:"medium"`
				Default *thumbnail `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"` // ISO 8601, e.g. PT3M12S.
		} `json:"contentDetails"`
	} `json:"items"`
}

type thumbnail struct {
	URL string `json:"url"`
}

// Lookup fetches snippet and duration for the given video id. A video the
// API doesn't know is an error; quota and transport failures surface with
// the underlying reason.
func (c *Client) Lookup(ctx context.Context, videoID string) (*VideoMeta, error) {
	endpoint := fmt.Sprintf("%s/videos?part=%s&id=%s&key=%s",
		c.baseURL,
		url.QueryEscape("snippet,contentDetails"),
		url.QueryEscape(videoID),
		url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read youtube api response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed videosResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode youtube api response: %w", err)
	}

	if len(parsed.Items) == 0 {
		return nil, fmt.Errorf("video not found: %s", videoID)
	}

	item := parsed.Items[0]
	meta := &VideoMeta{
		VideoID: videoID,
		Title:   item.Snippet.Title,
		Artist:  item.Snippet.ChannelTitle,
	}

	// Prefer the high-resolution thumbnail, like the web UI does.
	switch {
	case item.Snippet.Thumbnails.High != nil:
		meta.Thumbnail = item.Snippet.Thumbnails.High.URL
	case item.Snippet.Thumbnails.Medium != nil:
		meta.Thumbnail = item.Snippet.Thumbnails.Medium.URL
	case item.Snippet.Thumbnails.Default != nil:
		meta.Thumbnail = item.Snippet.Thumbnails.Default.URL
	}

	if secs, ok := parseISODuration(item.ContentDetails.Duration); ok {
		meta.Duration = strconv.Itoa(secs)
	}

	return meta, nil
}

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISODuration converts the API's ISO 8601 duration (PT#H#M#S) to
// whole seconds.
func parseISODuration(iso string) (int, bool) {
	m := isoDurationPattern.FindStringSubmatch(iso)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	min, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	s, _ := strconv.Atoi(zeroIfEmpty(m[3]))
	return h*3600 + min*60 + s, true
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
