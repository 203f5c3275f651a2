package books

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
)

const defaultBaseURL = "https://www.googleapis.com/books/v1"

// Volume is the normalized bibliographic record returned by the lookup
// service for a single match.
type Volume struct {
	ID                string
	Title             string
	Authors           []string
	Categories        []string
	Description       string
	ISBN              string
	Snippet           string
	PreviewURL        string
	Embeddable        bool
	Viewability       string
	FullViewAvailable bool
}

type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Authors             []string `json:"authors"`
		Categories          []string `json:"categories"`
		Description         string   `json:"description"`
		PreviewLink         string   `json:"previewLink"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
	} `json:"volumeInfo"`
	AccessInfo struct {
		Viewability string `json:"viewability"`
		Embeddable  bool   `json:"embeddable"`
	} `json:"accessInfo"`
	SearchInfo struct {
		TextSnippet string `json:"textSnippet"`
	} `json:"searchInfo"`
}

type pageTextResponse struct {
	Content string `json:"content"`
}

// Lookup is the bibliographic lookup contract consumed by the Resolver.
type Lookup interface {
	LookupISBN(ctx context.Context, isbn string) (*Volume, error)
	Search(ctx context.Context, query string) (*Volume, error)
}

// Client queries the Google Books volumes API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LookupISBN performs an exact ISBN query and returns the top match.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*Volume, error) {
	return c.query(ctx, "isbn:"+isbn)
}

// Search performs a free-text query and returns the top-ranked match.
func (c *Client) Search(ctx context.Context, query string) (*Volume, error) {
	return c.query(ctx, query)
}

func (c *Client) query(ctx context.Context, q string) (*Volume, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("maxResults", "5")
	if c.APIKey != "" {
		params.Set("key", c.APIKey)
	}
	apiURL := c.BaseURL + "/volumes?" + params.Encode()

	var parsed volumesResponse
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}

			resp, err := c.HTTPClient.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&parsed)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	if len(parsed.Items) == 0 {
		return nil, fmt.Errorf("no volumes matched %q", q)
	}

	return toVolume(parsed.Items[0]), nil
}

// PageText requests the text content of a single preview page. Not every
// volume is served by this endpoint; callers treat errors as a miss.
func (c *Client) PageText(ctx context.Context, volumeID string, page int) (string, error) {
	params := url.Values{}
	if c.APIKey != "" {
		params.Set("key", c.APIKey)
	}
	apiURL := c.BaseURL + "/volumes/" + url.PathEscape(volumeID) +
		"/pages/" + strconv.Itoa(page) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed pageTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return parsed.Content, nil
}

func toVolume(item volumeItem) *Volume {
	v := &Volume{
		ID:                item.ID,
		Title:             item.VolumeInfo.Title,
		Authors:           item.VolumeInfo.Authors,
		Categories:        item.VolumeInfo.Categories,
		Description:       item.VolumeInfo.Description,
		Snippet:           item.SearchInfo.TextSnippet,
		PreviewURL:        item.VolumeInfo.PreviewLink,
		Embeddable:        item.AccessInfo.Embeddable,
		Viewability:       item.AccessInfo.Viewability,
		FullViewAvailable: item.AccessInfo.Viewability == "ALL_PAGES",
	}
	for _, id := range item.VolumeInfo.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			v.ISBN = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && v.ISBN == "" {
			v.ISBN = id.Identifier
		}
	}
	return v
}
