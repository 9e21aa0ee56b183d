package hds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

// Connection is an authenticated handle on one account.
type Connection struct {
	http     *resty.Client
	endpoint string
	base     string
	token    string
}

// Endpoint returns the api endpoint including the token.
func (c *Connection) Endpoint() string { return c.endpoint }

// Base returns the api endpoint without credentials.
func (c *Connection) Base() string { return c.base }

func (c *Connection) Token() string { return c.token }

// Username guesses the account name from the first host label, which is how
// platforms lay out their api endpoints. AccessInfo returns the authoritative one.
func (c *Connection) Username() string {
	u, err := url.Parse(c.base)
	if err != nil {
		return ""
	}
	host, _, _ := strings.Cut(u.Hostname(), ".")
	return host
}

func (c *Connection) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.token)
}

// AccessInfo validates the connection. An invalid or expired token yields
// models.ErrAuthentication.
func (c *Connection) AccessInfo(ctx context.Context) (*models.AccessInfo, error) {
	start := time.Now()
	resp, err := c.request(ctx).Get(c.base + "access-info")
	observe("access-info", start, resp, err)
	if err != nil {
		return nil, fmt.Errorf("get access info: %w", err)
	}
	if resp.IsError() {
		apiErr := newAPIError(resp)
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %w", models.ErrAuthentication, apiErr)
		}
		return nil, fmt.Errorf("get access info: %w", apiErr)
	}

	var info models.AccessInfo
	if err := json.Unmarshal(resp.Body(), &info); err != nil {
		return nil, fmt.Errorf("decode access info: %w", err)
	}
	if info.Username == "" {
		info.Username = gjson.GetBytes(resp.Body(), "user.username").String()
	}
	return &info, nil
}

// Call is one entry of a batch request.
type Call struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

type batchResponse struct {
	Results []json.RawMessage `json:"results"`
}

// Batch posts calls to the api root and returns one raw result per call. A call
// answered with an error object yields an *APIError at its position in errs.
func (c *Connection) Batch(ctx context.Context, calls []Call) (results []json.RawMessage, errs []error, err error) {
	var out batchResponse
	start := time.Now()
	resp, err := c.request(ctx).
		SetBody(calls).
		SetResult(&out).
		Post(c.base)
	observe("batch", start, resp, err)
	if err != nil {
		return nil, nil, fmt.Errorf("batch call: %w", err)
	}
	if resp.IsError() {
		apiErr := newAPIError(resp)
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden {
			return nil, nil, fmt.Errorf("%w: %w", models.ErrAuthentication, apiErr)
		}
		return nil, nil, fmt.Errorf("batch call: %w", apiErr)
	}
	if len(out.Results) != len(calls) {
		return nil, nil, fmt.Errorf("batch call: got %d results for %d calls", len(out.Results), len(calls))
	}

	errs = make([]error, len(calls))
	for i, r := range out.Results {
		if e := gjson.GetBytes(r, "error"); e.Exists() {
			errs[i] = &APIError{
				ID:      e.Get("id").String(),
				Message: e.Get("message").String(),
			}
		}
	}
	return out.Results, errs, nil
}

// call runs a single method through the batch endpoint and decodes its result.
func (c *Connection) call(ctx context.Context, method string, params any, out any) error {
	results, errs, err := c.Batch(ctx, []Call{{Method: method, Params: params}})
	if err != nil {
		return err
	}
	if errs[0] != nil {
		return fmt.Errorf("%s: %w", method, errs[0])
	}
	if err := json.Unmarshal(results[0], out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

func (c *Connection) GetAccesses(ctx context.Context) ([]models.Access, error) {
	var out struct {
		Accesses []models.Access `json:"accesses"`
	}
	if err := c.call(ctx, "accesses.get", map[string]any{}, &out); err != nil {
		return nil, err
	}
	return out.Accesses, nil
}

// EventsQuery are the events.get parameters in use.
type EventsQuery struct {
	Streams          []string `json:"streams,omitempty"`
	Types            []string `json:"types,omitempty"`
	FromTime         *float64 `json:"fromTime,omitempty"`
	ToTime           *float64 `json:"toTime,omitempty"`
	ModifiedSince    *float64 `json:"modifiedSince,omitempty"`
	IncludeDeletions bool     `json:"includeDeletions,omitempty"`
	Limit            int      `json:"limit,omitempty"`
}

// EventsResult carries events as raw payloads so the caller can validate them.
type EventsResult struct {
	Events    []json.RawMessage      `json:"events"`
	Deletions []models.EventDeletion `json:"eventDeletions"`
}

func (c *Connection) GetEvents(ctx context.Context, q EventsQuery) (*EventsResult, error) {
	var out EventsResult
	if err := c.call(ctx, "events.get", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Connection) CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error) {
	var out struct {
		Event models.Event `json:"event"`
	}
	if err := c.call(ctx, "events.create", in, &out); err != nil {
		return nil, err
	}
	return &out.Event, nil
}
