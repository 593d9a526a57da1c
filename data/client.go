package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jrsteele09/rdp-proxy/internal/config"
	rdperrors "github.com/jrsteele09/rdp-proxy/internal/errors"
	"github.com/jrsteele09/rdp-proxy/oauth2"
	xoauth2 "golang.org/x/oauth2"
)

const (
	opESG       = "esg"
	opNews      = "news"
	opSymbology = "symbology"
)

// Client issues the read requests against the platform data services. Every call
// takes the bearer token explicitly so the caller decides which session it uses.
type Client struct {
	esgURL       string
	newsURL      string
	symbologyURL string
	httpClient   *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient builds the endpoint URLs below baseURL from the configured service
// versions and ESG view.
func NewClient(baseURL string, cfg config.RDPConfig, opts ...ClientOption) (*Client, error) {
	esgURL, err := url.JoinPath(baseURL, "data", "environmental-social-governance", cfg.GetESGVersion(), "views", cfg.GetESGView())
	if err != nil {
		return nil, fmt.Errorf("[data NewClient] invalid base url: %w", err)
	}
	newsURL, err := url.JoinPath(baseURL, "data", "news", cfg.GetNewsVersion(), "headlines")
	if err != nil {
		return nil, fmt.Errorf("[data NewClient] invalid base url: %w", err)
	}
	symbologyURL, err := url.JoinPath(baseURL, "discovery", "symbology", cfg.GetSymbologyVersion(), "lookup")
	if err != nil {
		return nil, fmt.Errorf("[data NewClient] invalid base url: %w", err)
	}

	c := &Client{
		esgURL:       esgURL,
		newsURL:      newsURL,
		symbologyURL: symbologyURL,
		httpClient:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchESG returns the ESG view for the instrument.
func (c *Client) FetchESG(ctx context.Context, symbol, accessToken string) (any, error) {
	if err := validate(symbol, accessToken); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, opESG, http.MethodGet, withQuery(c.esgURL, "universe", symbol), nil, accessToken)
	if err != nil {
		return nil, err
	}
	return decode(opESG, body)
}

// FetchNewsHeadlines returns the latest headlines matching the instrument.
func (c *Client) FetchNewsHeadlines(ctx context.Context, symbol, accessToken string) (any, error) {
	if err := validate(symbol, accessToken); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, opNews, http.MethodGet, withQuery(c.newsURL, "query", symbol), nil, accessToken)
	if err != nil {
		return nil, err
	}
	return decode(opNews, body)
}

// LookupSymbology maps the RIC symbol to the identifiers selected by target.
func (c *Client) LookupSymbology(ctx context.Context, symbol string, target Target, accessToken string) (*SymbologyResponse, error) {
	if err := validate(symbol, accessToken); err != nil {
		return nil, err
	}
	req, err := NewSymbologyRequest(symbol, target)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", opSymbology, err)
	}

	body, err := c.do(ctx, opSymbology, http.MethodPost, c.symbologyURL, payload, accessToken)
	if err != nil {
		return nil, err
	}
	var resp SymbologyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: failed to parse response: %w", opSymbology, err)
	}
	return &resp, nil
}

func validate(symbol, accessToken string) error {
	if accessToken == "" {
		return rdperrors.ErrNoAccessToken
	}
	if symbol == "" {
		return rdperrors.ErrMissingSymbol
	}
	return nil
}

func withQuery(endpoint, key, value string) string {
	return endpoint + "?" + url.Values{key: []string{value}}.Encode()
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, payload []byte, accessToken string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	(&xoauth2.Token{AccessToken: accessToken, TokenType: oauth2.TokenTypeBearer}).SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to send request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &rdperrors.RequestError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func decode(op string, body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%s: failed to parse response: %w", op, err)
	}
	return v, nil
}
