package autarco

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/imroc/req/v3"
	"github.com/rs/zerolog"
)

const (
	Version               = "1.0.0"
	DefaultBaseURL        = "https://my.autarco.com/api/site/"
	DefaultRequestTimeout = 15 * time.Second
)

const (
	AcceptHeader    = "Accept"
	UserAgentHeader = "User-Agent"
	ContentTypeJSON = "application/json"
)

type AutarcoClient struct {
	reqClient      *req.Client
	ownsReqClient  bool
	mu             sync.Mutex
	username       string
	password       string
	url            string
	userAgent      string
	requestTimeout time.Duration
	logger         zerolog.Logger
}

type Option func(*AutarcoClient)

// WithHTTPClient makes the client borrow an existing session. A borrowed
// session is never closed by AutarcoClient.Close.
func WithHTTPClient(client *req.Client) Option {
	return func(c *AutarcoClient) {
		c.reqClient = client
		c.ownsReqClient = false
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *AutarcoClient) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *AutarcoClient) {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		c.url = baseURL
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *AutarcoClient) {
		c.logger = logger
	}
}

func NewAutarcoClient(username, password string, opts ...Option) *AutarcoClient {
	c := &AutarcoClient{
		url:            DefaultBaseURL,
		username:       username,
		password:       password,
		userAgent:      "GoAutarco/" + Version,
		requestTimeout: DefaultRequestTimeout,
		logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// session returns the request client, creating and owning one on first use.
func (c *AutarcoClient) session() *req.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reqClient == nil {
		c.reqClient = req.C().
			SetTimeout(c.requestTimeout).
			SetCommonRetryCount(0)
		c.ownsReqClient = true
	}

	return c.reqClient
}

// Close releases the session if this client created it.
func (c *AutarcoClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reqClient != nil && c.ownsReqClient {
		c.reqClient.GetClient().CloseIdleConnections()
		c.reqClient = nil
		c.ownsReqClient = false
	}
}

func (c *AutarcoClient) resolve(path string) (string, error) {
	base, err := url.Parse(c.url)
	if err != nil {
		return "", err
	}
	// "./" keeps a colon in the first segment from reading as a scheme.
	ref, err := url.Parse("./" + path)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// Request performs one call against the API and returns the raw body text.
// path is relative to the base URL, without a leading slash.
func (c *AutarcoClient) Request(ctx context.Context, path, method string, params map[string]string) (string, error) {
	if method == "" {
		method = http.MethodGet
	}

	url, err := c.resolve(path)
	if err != nil {
		return "", &ConnectionError{Message: "invalid request path for the Autarco API", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	c.logger.Debug().
		Str("method", method).
		Str("url", url).
		Any("query", params).
		Msg("AutarcoClient::Request() - requesting")

	r := c.session().R().
		SetContext(ctx).
		SetBasicAuth(c.username, c.password).
		SetHeader(AcceptHeader, ContentTypeJSON).
		SetHeader(UserAgentHeader, c.userAgent)
	if len(params) > 0 {
		r.SetQueryParams(params)
	}

	resp, err := r.Send(method, url)
	if err != nil {
		if isTimeout(ctx, err) {
			c.logger.Error().Err(err).Str("url", url).Dur("timeout", c.requestTimeout).Msg("AutarcoClient::Request() - timeout")
			return "", &ConnectionTimeoutError{Message: "timeout occurred while connecting to the Autarco API", Err: err}
		}

		c.logger.Error().Err(err).Str("url", url).Msg("AutarcoClient::Request() - transport failure")
		return "", &ConnectionError{Message: "error occurred while communicating with the Autarco API", Err: err}
	}

	status := resp.GetStatusCode()
	if status == http.StatusUnauthorized {
		c.logger.Error().Str("url", url).Int("status_code", status).Msg("AutarcoClient::Request() - authentication failed")
		return "", &AuthenticationError{Message: "authentication to the Autarco API failed"}
	}

	if status < 200 || status >= 300 {
		c.logger.Error().
			Str("url", url).
			Int("status_code", status).
			Str("raw", resp.String()).
			Msg("AutarcoClient::Request() - unexpected status")
		return "", &ConnectionError{Message: "error occurred while communicating with the Autarco API", StatusCode: status}
	}

	text, err := resp.ToString()
	if err != nil {
		return "", &ConnectionError{Message: "error occurred while reading the Autarco API response", StatusCode: status, Err: err}
	}

	contentType := resp.GetContentType()
	if !strings.Contains(contentType, ContentTypeJSON) {
		c.logger.Error().
			Str("url", url).
			Int("status_code", status).
			Str("content_type", contentType).
			Str("raw", text).
			Msg("AutarcoClient::Request() - unexpected content type")
		return "", &GenericError{Message: "unexpected response from the Autarco API", ContentType: contentType, Body: text}
	}

	c.logger.Debug().Str("url", url).Int("status_code", status).Msg("AutarcoClient::Request() - success")
	return text, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *AutarcoClient) get(ctx context.Context, path string, params map[string]string) (string, error) {
	return c.Request(ctx, path, http.MethodGet, params)
}

func sitePath(publicKey string, parts ...string) string {
	return url.PathEscape(publicKey) + "/" + strings.Join(parts, "/")
}

// ListAccountSites returns every site of the account. Each site's public key
// is the input of all per-site calls.
func (c *AutarcoClient) ListAccountSites(ctx context.Context) ([]AccountSite, error) {
	text, err := c.get(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	return DecodeAccountSites(text)
}

func (c *AutarcoClient) GetInverters(ctx context.Context, publicKey string) (Inverters, error) {
	text, err := c.get(ctx, sitePath(publicKey, "power"), nil)
	if err != nil {
		return Inverters{}, err
	}
	return DecodeInverters(text)
}

func (c *AutarcoClient) GetSite(ctx context.Context, publicKey string) (*Site, error) {
	text, err := c.get(ctx, sitePath(publicKey), nil)
	if err != nil {
		return nil, err
	}
	return DecodeSite(text)
}

// combinedKPIs fetches the power and energy KPIs of a site and merges them.
func (c *AutarcoClient) combinedKPIs(ctx context.Context, publicKey string) (map[string]any, error) {
	power, err := c.get(ctx, sitePath(publicKey, "kpis", "power"), nil)
	if err != nil {
		return nil, err
	}

	energy, err := c.get(ctx, sitePath(publicKey, "kpis", "energy"), nil)
	if err != nil {
		return nil, err
	}

	return MergeKPIs(power, energy)
}

func (c *AutarcoClient) GetSolar(ctx context.Context, publicKey string) (*Solar, error) {
	data, err := c.combinedKPIs(ctx, publicKey)
	if err != nil {
		return nil, err
	}
	return DecodeSolar(data)
}

func (c *AutarcoClient) GetBattery(ctx context.Context, publicKey string) (*Battery, error) {
	data, err := c.combinedKPIs(ctx, publicKey)
	if err != nil {
		return nil, err
	}
	return DecodeBattery(data)
}

// GetPowerStatistics defaults to QueryRangeDay when rng is empty.
func (c *AutarcoClient) GetPowerStatistics(ctx context.Context, publicKey string, rng QueryRange) (*Stats, error) {
	if rng == "" {
		rng = QueryRangeDay
	}

	text, err := c.get(ctx, sitePath(publicKey, "power"), map[string]string{"r": rng.String()})
	if err != nil {
		return nil, err
	}

	resp, err := DecodePowerResponse(text)
	if err != nil {
		return nil, err
	}
	return &resp.Stats, nil
}

// GetEnergyStatistics defaults to QueryRangeMonth when rng is empty.
func (c *AutarcoClient) GetEnergyStatistics(ctx context.Context, publicKey string, rng QueryRange) (*Stats, error) {
	if rng == "" {
		rng = QueryRangeMonth
	}

	text, err := c.get(ctx, sitePath(publicKey, "energy"), map[string]string{"r": rng.String()})
	if err != nil {
		return nil, err
	}

	resp, err := DecodeEnergyResponse(text)
	if err != nil {
		return nil, err
	}
	return &resp.Stats, nil
}
