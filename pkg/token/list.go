package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultListURL is the Jupiter verified token list.
const DefaultListURL = "https://tokens.jup.ag/tokens?tags=verified"

// ListEntry is one token in the remote token list.
type ListEntry struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// ListClient fetches the remote token list used as the registry's last-resort
// lookup.
type ListClient struct {
	url  string
	http *http.Client
}

// NewListClient creates a token list client. An empty url selects the default
// Jupiter list.
func NewListClient(url string) *ListClient {
	if url == "" {
		url = DefaultListURL
	}
	return &ListClient{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup searches the remote list for a token whose symbol or name matches
// query. Exact symbol matches win over name matches.
func (c *ListClient) Lookup(ctx context.Context, query string) (*ListEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create token list request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list returned status %d", resp.StatusCode)
	}

	var entries []ListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode token list: %w", err)
	}

	query = strings.ToUpper(strings.TrimSpace(query))

	for i := range entries {
		if strings.ToUpper(entries[i].Symbol) == query {
			return &entries[i], nil
		}
	}
	for i := range entries {
		if strings.EqualFold(entries[i].Name, query) {
			return &entries[i], nil
		}
	}

	return nil, fmt.Errorf("token %q not found in remote list", query)
}
