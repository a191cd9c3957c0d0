package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
)

const (
	defaultTimeout             = 10 * time.Second
	errorBodyReadLimit   int64 = 1024
	successBodyReadLimit int64 = 8 << 20

	filterPath     = "products/filter"
	filterOnePath  = "products/filter-one"
	colorsPath     = "colors/"
	materialsPath  = "materials/"
	categoriesPath = "categories/level-2/"
)

var errBaseURLRequired = errors.New("product service base url is required")

// Catalog is the product service surface the browse layer depends on.
type Catalog interface {
	FilterProducts(ctx context.Context, params filters.QueryParameters) ([]Product, error)
	ProductByShortName(ctx context.Context, shortName string) (*Product, error)
	Colors(ctx context.Context) ([]Color, error)
	Materials(ctx context.Context) ([]Material, error)
	Categories(ctx context.Context) ([]Category, error)
}

// Client talks to the product microservice over REST.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *Breaker
}

var _ Catalog = (*Client)(nil)

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithBreaker routes every call through the circuit breaker.
func WithBreaker(b *Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// NewClient builds a product service client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// FilterProducts runs GET {base}/products/filter with the serialized snapshot. A missing or
// null data array yields an empty slice.
func (c *Client) FilterProducts(ctx context.Context, params filters.QueryParameters) ([]Product, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product service client not configured")
	}
	body, err := c.get(ctx, filterPath, params.Encode())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "filter products request failed")
	}
	products, err := decodeList[Product](body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode filter products response")
	}
	return products, nil
}

// ProductByShortName runs GET {base}/products/filter-one?short_name=.
func (c *Client) ProductByShortName(ctx context.Context, shortName string) (*Product, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product service client not configured")
	}
	trimmed := strings.TrimSpace(shortName)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "short name is required")
	}

	query := url.Values{"short_name": {trimmed}}
	body, err := c.get(ctx, filterOnePath, query.Encode())
	if err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product detail request failed")
	}
	product, err := decodeOne[Product](body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product detail response")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (c *Client) Colors(ctx context.Context) ([]Color, error) {
	return fetchList[Color](ctx, c, colorsPath, "colors")
}

func (c *Client) Materials(ctx context.Context) ([]Material, error) {
	return fetchList[Material](ctx, c, materialsPath, "materials")
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return fetchList[Category](ctx, c, categoriesPath, "categories")
}

func fetchList[T any](ctx context.Context, c *Client, path, what string) ([]T, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product service client not configured")
	}
	body, err := c.get(ctx, path, "")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, what+" request failed")
	}
	items, err := decodeList[T](body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+what+" response")
	}
	return items, nil
}

// get performs one GET through the breaker and returns the raw success body. Failures are
// classified as ErrNetwork or *StatusError.
func (c *Client) get(ctx context.Context, path, rawQuery string) ([]byte, error) {
	target := c.buildURL(path, rawQuery)
	return call(c.breaker, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, successBodyReadLimit))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
		}
		return body, nil
	})
}

func (c *Client) buildURL(path, rawQuery string) string {
	target := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

// decodeList accepts both {"data": [...]} and a bare array.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	items := []T{}
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrDecode)
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	} else {
		var envelope struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		items = envelope.Data
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// decodeOne accepts both {"data": {...}} and a bare object.
func decodeOne[T any](body []byte) (*T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	payload := trimmed
	if len(envelope.Data) > 0 {
		if bytes.Equal(bytes.TrimSpace(envelope.Data), []byte("null")) {
			return nil, nil
		}
		payload = envelope.Data
	}
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &out, nil
}
