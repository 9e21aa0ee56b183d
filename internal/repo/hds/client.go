// Package hds talks to an HDS (Pryv) platform: service info, login, account
// creation and the authenticated batch API.
package hds

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
	"github.com/nguyentranbao-ct/hds-chat/pkg/util"
)

var requestDuration = util.MustHistogramVec(
	"hds_request_duration_seconds",
	"Latency of calls to the HDS platform",
	"call", "status",
)

type Options struct {
	ServiceInfoURL string
	AppID          string
	Origin         string
	Language       string
	Timeout        time.Duration
	RetryCount     int
}

type Client struct {
	http *resty.Client
	opts Options

	mu          sync.Mutex
	serviceInfo *models.ServiceInfo
}

func NewClient(opts Options) *Client {
	c := util.NewRestyClient(util.RestyOptions{
		RetryCount: opts.RetryCount,
		Timeout:    opts.Timeout,
		UserAgent:  "hds-chat/" + opts.AppID,
	})
	c.SetHeader("Accept", "application/json")
	if opts.Origin != "" {
		c.SetHeader("Origin", opts.Origin)
	}
	return &Client{http: c, opts: opts}
}

func (c *Client) AppID() string {
	return c.opts.AppID
}

func observe(call string, start time.Time, resp *resty.Response, err error) {
	status := "error"
	if err == nil && resp != nil {
		status = fmt.Sprint(resp.StatusCode())
	}
	requestDuration.WithLabelValues(call, status).Observe(time.Since(start).Seconds())
}

// ServiceInfo fetches the platform description once and caches it.
func (c *Client) ServiceInfo(ctx context.Context) (*models.ServiceInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.serviceInfo != nil {
		return c.serviceInfo, nil
	}

	var info models.ServiceInfo
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&info).
		Get(c.opts.ServiceInfoURL)
	observe("service.info", start, resp, err)
	if err != nil {
		return nil, fmt.Errorf("get service info: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get service info: %w", newAPIError(resp))
	}
	if info.API == "" {
		return nil, fmt.Errorf("%w: service info has no api template", models.ErrConfiguration)
	}
	c.serviceInfo = &info
	return c.serviceInfo, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	AppID    string `json:"appId"`
}

type loginResponse struct {
	Token       string `json:"token"`
	APIEndpoint string `json:"apiEndpoint"`
}

// Login exchanges credentials for a personal access and returns a connection.
func (c *Client) Login(ctx context.Context, username, password string) (*Connection, error) {
	info, err := c.ServiceInfo(ctx)
	if err != nil {
		return nil, err
	}
	base, err := BuildAPIEndpoint(info.API, username, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrConfiguration, err)
	}

	var out loginResponse
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Username: username, Password: password, AppID: c.opts.AppID}).
		SetResult(&out).
		Post(base + "auth/login")
	observe("auth.login", start, resp, err)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.IsError() {
		apiErr := newAPIError(resp)
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden || apiErr.Status == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %w", models.ErrAuthentication, apiErr)
		}
		return nil, fmt.Errorf("login: %w", apiErr)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: login response has no token", models.ErrAuthentication)
	}

	endpoint := out.APIEndpoint
	if endpoint == "" {
		if endpoint, err = BuildAPIEndpoint(info.API, username, out.Token); err != nil {
			return nil, err
		}
	}
	log.Debugw(ctx, "hds login succeeded", "username", username)
	return c.Open(endpoint)
}

// RegistrationHost resolves the core server accepting new accounts.
func (c *Client) RegistrationHost(ctx context.Context) (string, error) {
	info, err := c.ServiceInfo(ctx)
	if err != nil {
		return "", err
	}
	if info.Register == "" {
		return "", fmt.Errorf("%w: service info has no register url", models.ErrConfiguration)
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		Get(withSlash(info.Register) + "hostings")
	observe("register.hostings", start, resp, err)
	if err != nil {
		return "", fmt.Errorf("get hostings: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("get hostings: %w", newAPIError(resp))
	}

	core, ok := findAvailableCore(resp.Body())
	if !ok {
		return "", fmt.Errorf("%w: no available hosting", models.ErrConfiguration)
	}
	return withSlash(core), nil
}

type createUserRequest struct {
	AppID           string `json:"appId"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	Email           string `json:"email"`
	InvitationToken string `json:"invitationtoken"`
	LanguageCode    string `json:"languageCode"`
	Referer         string `json:"referer"`
}

type createUserResponse struct {
	Username    string `json:"username"`
	APIEndpoint string `json:"apiEndpoint"`
}

// Register creates an account on a discovered hosting and returns a connection
// for it.
func (c *Client) Register(ctx context.Context, email, username, password string) (*Connection, error) {
	host, err := c.RegistrationHost(ctx)
	if err != nil {
		return nil, err
	}

	lang := c.opts.Language
	if lang == "" {
		lang = "en"
	}
	var out createUserResponse
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createUserRequest{
			AppID:           c.opts.AppID,
			Username:        username,
			Password:        password,
			Email:           email,
			InvitationToken: "enjoy",
			LanguageCode:    lang,
			Referer:         "none",
		}).
		SetResult(&out).
		Post(host + "users")
	observe("users.create", start, resp, err)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %w", models.ErrRegistration, newAPIError(resp))
	}
	if out.APIEndpoint == "" {
		return nil, fmt.Errorf("%w: cannot find apiEndpoint in response", models.ErrRegistration)
	}
	log.Infow(ctx, "hds account created", "username", username, "host", host)
	return c.Open(out.APIEndpoint)
}

// Open builds a connection from an existing api endpoint without contacting the
// platform. Use Connection.AccessInfo to validate it.
func (c *Client) Open(endpoint string) (*Connection, error) {
	base, token, err := ParseAPIEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("%w: api endpoint carries no token", models.ErrAuthentication)
	}
	return &Connection{
		http:     c.http,
		endpoint: endpoint,
		base:     base,
		token:    token,
	}, nil
}

func withSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
