// Package monant retrieves articles and source reliability annotations from the Monant platform.
package monant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/ports"
)

const (
	defaultPageSize       = 200
	defaultPause          = 2500 * time.Millisecond
	reliabilityAnnotation = "Source reliability (binary)"
	annotationPageSize    = 100
)

// ErrUnauthorized is returned when the platform rejects the credentials.
var ErrUnauthorized = errors.New("monant: unauthorized")

// Config holds the platform address, credentials and paging behaviour.
type Config struct {
	APIHost  string
	Username string
	Password string
	PageSize int
	// Pause is the minimum delay between two article pages.
	Pause time.Duration
}

// Page is one page of the article listing.
type Page struct {
	Articles   []domain.RawArticle `json:"articles"`
	Pagination struct {
		HasNext bool `json:"has_next"`
	} `json:"pagination"`
}

// Client talks to the platform API. The access token is obtained lazily and cached per client.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	mu    sync.Mutex
	token string
}

var _ ports.ArticleSource = (*Client)(nil)

// NewClient creates a client; a nil httpClient gets a 30 second timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Pause < 0 {
		cfg.Pause = defaultPause
	}
	cfg.APIHost = strings.TrimSuffix(cfg.APIHost, "/")

	limit := rate.Inf
	if cfg.Pause > 0 {
		limit = rate.Every(cfg.Pause)
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// FetchAll walks the article listing ordered by extraction time and hands every page to fn until
// the platform reports no next page.
func (c *Client) FetchAll(ctx context.Context, fn func([]domain.RawArticle) error) error {
	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for page %d: %w", page, err)
		}

		c.debug("fetch articles page", "page", page, "size", c.cfg.PageSize)
		p, err := c.Articles(ctx, page, c.cfg.PageSize)
		if err != nil {
			return err
		}
		if err := fn(p.Articles); err != nil {
			return fmt.Errorf("handle page %d: %w", page, err)
		}
		if !p.Pagination.HasNext {
			c.debug("article listing done", "pages", page)
			return nil
		}
	}
}

// Articles fetches a single page of the listing.
func (c *Client) Articles(ctx context.Context, page, size int) (Page, error) {
	query := url.Values{}
	query.Set("order_by", "extracted_at")
	query.Set("order_type", "asc")
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	var p Page
	if err := c.get(ctx, "/v1/articles", query, &p); err != nil {
		return Page{}, fmt.Errorf("articles page %d: %w", page, err)
	}
	return p, nil
}

// SourceAnnotations fetches the binary source reliability annotations.
func (c *Client) SourceAnnotations(ctx context.Context) ([]domain.Annotation, error) {
	query := url.Values{}
	query.Set("annotation_type", reliabilityAnnotation)
	query.Set("size", strconv.Itoa(annotationPageSize))

	var resp struct {
		Annotations []domain.Annotation `json:"entity_annotations"`
	}
	if err := c.get(ctx, "/v1/entity-annotations", query, &resp); err != nil {
		return nil, fmt.Errorf("entity annotations: %w", err)
	}
	return resp.Annotations, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	for attempt := 0; ; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIHost+path+"?"+query.Encode(), nil)
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Authorization", "JWT "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}

		// an expired token gets one fresh login
		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			_ = resp.Body.Close()
			c.resetToken(token)
			continue
		}

		return decode(resp, v)
	}
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIHost+"/auth", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("authorize: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_ = resp.Body.Close()
		return "", fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
	}

	var auth struct {
		AccessToken string `json:"access_token"`
	}
	if err := decode(resp, &auth); err != nil {
		return "", fmt.Errorf("authorize: %w", err)
	}
	if auth.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUnauthorized)
	}

	c.debug("authorized", "host", c.cfg.APIHost)
	c.token = auth.AccessToken
	return c.token, nil
}

func (c *Client) resetToken(stale string) {
	c.mu.Lock()
	if c.token == stale {
		c.token = ""
	}
	c.mu.Unlock()
}

func decode(resp *http.Response, v any) error {
	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
