package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const maxPages = 1000

// Fetcher loads the names of every active person from the roster source.
type Fetcher interface {
	FetchActive(ctx context.Context) ([]string, error)
}

type Entry struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type listResponse struct {
	Items         []Entry `json:"items"`
	Data          []Entry `json:"data"`
	NextPageToken string  `json:"next_page_token"`
}

// Client pages through an HTTP roster endpoint.
type Client struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	pageSize  int
	http      *http.Client
}

func NewClient(baseURL string, apiKey string, pageSize int) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("roster api url is empty")
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiKeyHdr: "X-API-Key",
		pageSize:  pageSize,
		http:      &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (c *Client) getPage(ctx context.Context, pageToken string) (listResponse, error) {
	params := url.Values{}
	params.Set("page_size", strconv.Itoa(c.pageSize))
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return listResponse{}, err
	}
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHdr, c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return listResponse{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return listResponse{}, fmt.Errorf("roster api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return listResponse{}, fmt.Errorf("roster api returned malformed json: %w", err)
	}
	return parsed, nil
}

// FetchActive walks every page and returns the active names, deduplicated and
// sorted with Spanish collation.
func (c *Client) FetchActive(ctx context.Context) ([]string, error) {
	var entries []Entry
	token := ""
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, &utils.UpstreamError{Service: "roster", Err: errors.New("too many pages")}
		}
		resp, err := c.getPage(ctx, token)
		if err != nil {
			return nil, &utils.UpstreamError{Service: "roster", Err: err}
		}
		entries = append(entries, resp.Items...)
		entries = append(entries, resp.Data...)
		if resp.NextPageToken == "" || resp.NextPageToken == token {
			break
		}
		token = resp.NextPageToken
	}
	return ActiveNames(entries), nil
}

// ActiveNames keeps active entries with a non-blank name, drops duplicates and
// sorts the rest in Spanish order.
func ActiveNames(entries []Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := strings.Join(strings.Fields(e.Name), " ")
		if !e.Active || name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	// a Collator is not safe for concurrent use
	collate.New(language.Spanish, collate.IgnoreCase).SortStrings(names)
	return names
}
