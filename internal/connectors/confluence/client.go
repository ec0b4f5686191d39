package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// PageLimit is the batch size for content listings. The server may
	// clamp it lower when body expansions are requested.
	PageLimit = 50

	// RequestsPerSecond throttles API calls well below Atlassian's limits.
	RequestsPerSecond = 5
)

// Expand parameter values for content requests.
const (
	// expandFull loads everything a document needs.
	expandFull = "body.storage,version,ancestors"

	// expandVersion is the light listing used for change detection.
	expandVersion = "version"
)

// Page is a Confluence content item in the REST API shape.
type Page struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	Title     string     `json:"title"`
	Ancestors []Ancestor `json:"ancestors"`
	Version   Version    `json:"version"`
	Body      Body       `json:"body"`
	Links     Links      `json:"_links"`
}

// Ancestor is one entry in a page's ancestor chain, ordered root first.
type Ancestor struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Version carries a page's revision number and authorship.
type Version struct {
	Number int       `json:"number"`
	When   time.Time `json:"when"`
	By     Author    `json:"by"`
}

// Author identifies who made a page version.
type Author struct {
	DisplayName string `json:"displayName"`
}

// Body holds a page's content representations.
type Body struct {
	Storage Storage `json:"storage"`
}

// Storage is the editable storage-format representation of a page body.
type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// Links holds the web links attached to a page.
type Links struct {
	WebUI string `json:"webui"`
}

// PageList is one batch of a paginated content listing.
type PageList struct {
	Results []Page `json:"results"`
	Start   int    `json:"start"`
	Limit   int    `json:"limit"`
	Size    int    `json:"size"`
}

// Client wraps the Confluence REST API with basic auth, retries, and
// proactive rate limiting.
type Client struct {
	baseURL  string
	username string
	token    string
	http     *retryablehttp.Client
	limiter  *rate.Limiter
}

// NewClient creates a Confluence API client for the given site.
// Cloud sites authenticate with the account email as username and an
// API token as password.
func NewClient(baseURL, username, token string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.HTTPClient.Timeout = DefaultTimeout
	retryClient.Logger = nil
	retryClient.CheckRetry = checkRetry

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		token:    token,
		http:     retryClient,
		limiter:  rate.NewLimiter(rate.Limit(RequestsPerSecond), 1),
	}
}

// checkRetry retries transient failures but returns rate limit
// responses to the caller, where they end the running sync.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// ListSpacePages fetches one batch of a space's page listing.
func (c *Client) ListSpacePages(ctx context.Context, spaceKey, expand string, start, limit int) (*PageList, error) {
	query := url.Values{}
	query.Set("spaceKey", spaceKey)
	query.Set("type", "page")
	query.Set("status", "current")
	query.Set("expand", expand)
	query.Set("start", strconv.Itoa(start))
	query.Set("limit", strconv.Itoa(limit))

	var list PageList
	if err := c.get(ctx, "/rest/api/content", query, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetPage fetches a single page by id.
func (c *Client) GetPage(ctx context.Context, id, expand string) (*Page, error) {
	query := url.Values{}
	query.Set("expand", expand)

	var page Page
	if err := c.get(ctx, "/rest/api/content/"+id, query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CurrentUser verifies the credentials by fetching the calling user.
func (c *Client) CurrentUser(ctx context.Context) error {
	var user struct {
		DisplayName string `json:"displayName"`
	}
	return c.get(ctx, "/rest/api/user/current", nil, &user)
}

// get performs an authenticated GET against a REST path and decodes the
// JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, path)
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp, reqURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// apiError builds an APIError from a non-OK response, preferring the
// message field Confluence puts in its JSON error bodies.
func apiError(resp *http.Response, reqURL string) *APIError {
	var payload struct {
		Message string `json:"message"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		payload.Message = http.StatusText(resp.StatusCode)
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    payload.Message,
		URL:        reqURL,
	}
}
