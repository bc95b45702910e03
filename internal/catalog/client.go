package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gamedeck/internal/domain"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 500 * time.Millisecond
	maxBodySize       = 8 << 20
)

// Config holds the catalog API location and transport settings
type Config struct {
	BaseURL   string // e.g. https://host/mobile_game/public/api
	Source    string // catalog source slug, e.g. html5games
	ClientID  string // sent as X-Client-ID when set
	UserAgent string
	Timeout   time.Duration
	Retries   int // retries on 5xx responses
}

// Client implements domain.CatalogClient over the REST API
type Client struct {
	baseURL    string
	source     string
	clientID   string
	userAgent  string
	retries    int
	retryDelay time.Duration
	httpClient *http.Client
	cache      domain.CategoryCache
	logger     *slog.Logger
}

// NewClient creates a catalog API client. cache may be nil.
func NewClient(cfg Config, cache domain.CategoryCache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = defaultRetries
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "gamedeck"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		source:     strings.Trim(cfg.Source, "/"),
		clientID:   cfg.ClientID,
		userAgent:  userAgent,
		retries:    retries,
		retryDelay: defaultRetryDelay,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:  cache,
		logger: logger,
	}
}

// doRequest performs a GET against the catalog API and returns the JSON body.
// 5xx responses are retried with exponential backoff.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, &domain.NetworkError{URL: reqURL, Err: ctx.Err()}
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &domain.NetworkError{URL: reqURL, Err: ctx.Err()}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if c.clientID != "" {
			req.Header.Set("X-Client-ID", c.clientID)
		}

		c.logger.Debug("catalog request", "url", reqURL, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &domain.NetworkError{URL: reqURL, Err: ctx.Err()}
			}
			c.logger.Error("catalog request failed", "url", reqURL, "error", err)
			return nil, &domain.NetworkError{URL: reqURL, Err: err}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()
		if err != nil {
			return nil, &domain.NetworkError{URL: reqURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
		}

		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			lastErr = &domain.NetworkError{URL: reqURL, StatusCode: resp.StatusCode}
			c.logger.Warn("catalog server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", c.retries,
				"url", reqURL,
			)
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, &domain.NetworkError{URL: reqURL, StatusCode: resp.StatusCode, Err: errNotFound}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			c.logger.Error("catalog request error", "status", resp.StatusCode, "url", reqURL)
			return nil, &domain.NetworkError{URL: reqURL, StatusCode: resp.StatusCode}
		}

		if !json.Valid(body) {
			c.logger.Error("catalog response is not json", "url", reqURL, "size", len(body))
			return nil, &domain.NetworkError{URL: reqURL, StatusCode: resp.StatusCode, Err: errNotJSON}
		}

		return body, nil
	}

	c.logger.Error("catalog request failed after retries", "error", lastErr, "url", reqURL)
	return nil, lastErr
}

var (
	errNotFound = errors.New("not found")
	errNotJSON  = errors.New("response is not json")
)

// pagePath returns the endpoint path and base query for a filter
func (c *Client) pagePath(filter domain.Filter) (string, url.Values, error) {
	query := url.Values{}
	switch filter.Kind {
	case domain.FilterCategory:
		if filter.CategoryID.IsZero() {
			return "", nil, errors.New("category filter without id")
		}
		return "/category/" + url.PathEscape(filter.CategoryID.String()), query, nil
	case domain.FilterSearch:
		if filter.Query == "" {
			return "", nil, domain.ErrQueryTooShort
		}
		query.Set("search", filter.Query)
		return "/games/search/" + url.PathEscape(c.source), query, nil
	default:
		return "/games/" + url.PathEscape(c.source), query, nil
	}
}

// FetchPage returns one page of the collection selected by filter.
// Unrecognized bodies are logged and returned as an empty last page.
func (c *Client) FetchPage(ctx context.Context, filter domain.Filter, page int) (domain.Page, error) {
	if page < 1 {
		page = 1
	}
	path, query, err := c.pagePath(filter)
	if err != nil {
		return domain.Page{}, err
	}
	query.Set("page", strconv.Itoa(page))

	body, err := c.doRequest(ctx, path, query)
	if err != nil {
		return domain.Page{}, err
	}

	result, skipped, err := MapPage(body, page)
	if err != nil {
		c.logger.Warn("unrecognized page response", "filter", filter.String(), "page", page, "error", err)
		return result, nil
	}
	if skipped > 0 {
		c.logger.Warn("dropped unreadable list entries", "filter", filter.String(), "page", page, "count", skipped)
	}

	c.logger.Debug("fetched page", "filter", filter.String(), "page", page, "lastPage", result.LastPage, "items", len(result.Items))
	return result, nil
}

// GetCategories returns the category list. When the API fails the cached
// list is used, and when there is no cache the built-in defaults.
func (c *Client) GetCategories(ctx context.Context) ([]domain.Item, error) {
	cats, err := c.fetchCategories(ctx)
	if err == nil && len(cats) > 0 {
		if c.cache != nil {
			if err := c.cache.SaveCategories(cats); err != nil {
				c.logger.Warn("failed to cache categories", "error", err)
			}
		}
		return cats, nil
	}

	if ctx.Err() != nil {
		return nil, &domain.NetworkError{URL: c.baseURL, Err: ctx.Err()}
	}
	c.logger.Warn("using fallback categories", "error", err)

	if c.cache != nil {
		if cached, ok := c.cache.GetCategories(); ok && len(cached) > 0 {
			return cached, nil
		}
	}
	return DefaultCategories(), nil
}

func (c *Client) fetchCategories(ctx context.Context) ([]domain.Item, error) {
	body, err := c.doRequest(ctx, "/categories/"+url.PathEscape(c.source), nil)
	if err != nil {
		return nil, err
	}
	return MapCategories(body)
}

// GetGame returns the detail record of a game
func (c *Client) GetGame(ctx context.Context, id domain.ItemID) (*domain.Item, error) {
	if id.IsZero() {
		return nil, domain.ErrGameNotFound
	}
	body, err := c.doRequest(ctx, "/game/"+url.PathEscape(id.String()), nil)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("game %s: %w", id, domain.ErrGameNotFound)
		}
		return nil, err
	}

	game, err := MapGame(body, id)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", id, err)
	}
	return game, nil
}
