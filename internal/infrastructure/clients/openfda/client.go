package openfda

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/drugevents/internal/domain/entities"
	"github.com/zatekoja/drugevents/internal/domain/providers"
	"github.com/zatekoja/drugevents/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/drugevents/pkg/errors"
)

const (
	eventPath = "/drug/event.json"
	labelPath = "/drug/label.json"
)

// Client talks to the openFDA drug endpoints
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
}

// Option customises a Client
type Option func(*Client)

// WithAPIKey sends the key with every request
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// WithHTTPClient replaces the default transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

type searchResponse[T any] struct {
	Meta struct {
		Results struct {
			Skip  int `json:"skip"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"results"`
	} `json:"meta"`
	Results []T `json:"results"`
}

// NewClient creates a client for baseURL (e.g. https://api.fda.gov)
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "drugevents-etl/1.0",
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ providers.EventSource = (*Client)(nil)
	_ providers.LabelSource = (*Client)(nil)
)

// SearchEvents fetches one page of adverse-event reports received within the query range
func (c *Client) SearchEvents(ctx context.Context, query providers.EventQuery) ([]entities.AdverseEventReport, error) {
	params := url.Values{}
	params.Set("search", query.Range.Query())
	params.Set("limit", strconv.Itoa(query.Limit))
	if query.Skip > 0 {
		params.Set("skip", strconv.Itoa(query.Skip))
	}

	out := &searchResponse[entities.AdverseEventReport]{}
	if err := c.getJSON(ctx, "event", eventPath, params, out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// SearchLabel returns the first label whose openfda.brand_name matches brandName
func (c *Client) SearchLabel(ctx context.Context, brandName string) (*entities.DrugLabel, error) {
	name := strings.TrimSpace(brandName)
	if name == "" {
		return nil, apperrors.NewValidationError("brand name is required")
	}

	params := url.Values{}
	params.Set("search", fmt.Sprintf(`openfda.brand_name:"%s"`, strings.ReplaceAll(name, `"`, "")))
	params.Set("limit", "1")

	out := &searchResponse[entities.DrugLabel]{}
	if err := c.getJSON(ctx, "label", labelPath, params, out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no label found for %s", name))
	}
	return &out.Results[0], nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, out interface{}) error {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	fullURL := c.baseURL + path + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to build openfda request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordAPICall(endpoint, 0)
		return apperrors.NewExternalError("openfda request failed", err)
	}
	defer resp.Body.Close()
	observability.RecordAPICall(endpoint, resp.StatusCode)

	// openFDA answers a search without matches with 404 NOT_FOUND.
	if resp.StatusCode == http.StatusNotFound {
		return &apperrors.AppError{
			Type:       apperrors.ErrorTypeNotFound,
			Message:    "openfda search returned no matches",
			StatusCode: resp.StatusCode,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewStatusError("openfda", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewExternalError("failed to decode openfda response", err)
	}
	return nil
}
