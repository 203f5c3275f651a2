package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultOpenLibraryURL = "https://openlibrary.org"
	defaultArchiveURL     = "https://archive.org"

	// Full transcripts can run to megabytes; cap reads defensively.
	maxTranscriptBytes = 16 << 20
)

// Client resolves an ISBN to an Internet Archive identifier via Open
// Library and fetches the archive's plain-text transcript.
type Client struct {
	OpenLibraryURL string
	ArchiveURL     string
	HTTPClient     *http.Client
}

func NewClient() *Client {
	return &Client{
		OpenLibraryURL: defaultOpenLibraryURL,
		ArchiveURL:     defaultArchiveURL,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type editionResponse struct {
	OCAID string `json:"ocaid"`
	Title string `json:"title"`
}

// ResolveIdentifier looks up the edition record for an ISBN and returns its
// archive identifier. An edition without one returns an error; callers
// treat that as a cascade miss.
func (c *Client) ResolveIdentifier(ctx context.Context, isbn string) (string, error) {
	apiURL := fmt.Sprintf("%s/isbn/%s.json", c.OpenLibraryURL, isbn)

	var parsed editionResponse
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
		retry.Attempts(2),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}

	if parsed.OCAID == "" {
		return "", fmt.Errorf("edition %s has no archive identifier", isbn)
	}
	return parsed.OCAID, nil
}

// FetchFullText downloads the plain-text transcript for an archive item.
func (c *Client) FetchFullText(ctx context.Context, identifier string) (string, error) {
	apiURL := fmt.Sprintf("%s/download/%s/%s_djvu.txt", c.ArchiveURL, identifier, identifier)

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

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTranscriptBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return string(data), nil
}
