// Package steamweb talks to the public Steam store API to resolve game
// names and search the catalog. Failures here are never fatal to an
// install; a game without a resolvable name is recorded with a fallback
// name instead.
package steamweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	storeSearchURL = "https://store.steampowered.com/api/storesearch"
	appDetailsURL  = "https://store.steampowered.com/api/appdetails"
)

// Result is one catalog search hit.
type Result struct {
	AppID string
	Name  string
	Type  string
}

// Client queries the Steam store API.
type Client struct {
	http       *http.Client
	searchURL  string
	detailsURL string
}

func New() *Client {
	return &Client{
		http:       &http.Client{Timeout: 10 * time.Second},
		searchURL:  storeSearchURL,
		detailsURL: appDetailsURL,
	}
}

// GameName resolves the display name for an AppID via the appdetails
// endpoint.
func (c *Client) GameName(ctx context.Context, appID string) (string, error) {
	q := url.Values{}
	q.Set("appids", appID)
	q.Set("l", "english")

	var payload map[string]struct {
		Success bool `json:"success"`
		Data    struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.detailsURL, q, &payload); err != nil {
		return "", err
	}
	entry, ok := payload[appID]
	if !ok || !entry.Success || entry.Data.Name == "" {
		return "", fmt.Errorf("no details for AppID %s", appID)
	}
	return entry.Data.Name, nil
}

// Search returns up to max catalog hits for a free-text query.
func (c *Client) Search(ctx context.Context, term string, max int) ([]Result, error) {
	items, err := c.storeSearch(ctx, term)
	if err != nil {
		return nil, err
	}
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	results := make([]Result, 0, len(items))
	for _, it := range items {
		name := it.Name
		if name == "" {
			name = "Unknown"
		}
		typ := it.Type
		if typ == "" {
			typ = "game"
		}
		results = append(results, Result{
			AppID: strconv.FormatInt(it.ID, 10),
			Name:  name,
			Type:  typ,
		})
	}
	return results, nil
}

// FindAppID searches for a game by name and returns the AppID of the
// exact case-insensitive match, or the first hit when there is none.
func (c *Client) FindAppID(ctx context.Context, name string) (string, error) {
	items, err := c.storeSearch(ctx, name)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", fmt.Errorf("no results for %q", name)
	}
	for _, it := range items {
		if strings.EqualFold(it.Name, name) {
			return strconv.FormatInt(it.ID, 10), nil
		}
	}
	return strconv.FormatInt(items[0].ID, 10), nil
}

type searchItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (c *Client) storeSearch(ctx context.Context, term string) ([]searchItem, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("cc", "us")
	q.Set("l", "en")

	var payload struct {
		Items []searchItem `json:"items"`
	}
	if err := c.getJSON(ctx, c.searchURL, q, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (c *Client) getJSON(ctx context.Context, base string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("store returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode store response: %w", err)
	}
	return nil
}
