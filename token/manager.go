package token

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/rdp-proxy/internal/config"
	rdperrors "github.com/jrsteele09/rdp-proxy/internal/errors"
	"github.com/jrsteele09/rdp-proxy/internal/utils"
	"github.com/jrsteele09/rdp-proxy/oauth2"
	"github.com/jrsteele09/rdp-proxy/oauthmodel"
	"github.com/jrsteele09/rdp-proxy/token/refresh"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	xoauth2 "golang.org/x/oauth2"
)

const (
	opLogin   = "login"
	opRefresh = "refresh"
	opRevoke  = "revoke"

	defaultRefreshTimeout = 30 * time.Second
)

// Manager owns the OAuth2 session with the platform: it acquires tokens with the
// password grant, renews them silently on a timer with the refresh grant and revokes
// them on logout.
//
// Login, Refresh and Revoke are serialized: one runs at a time and each sees the
// state left by the previous one. A silent refresh that lands after a revoke finds
// no session and does nothing.
type Manager struct {
	tokenURL       string
	revokeURL      string
	scope          string
	httpClient     *http.Client
	scheduler      refresh.Scheduler
	refreshTimeout time.Duration
	nowFunc        func() time.Time

	onRefresh      func(State)
	onRefreshError func(error)

	opMu sync.Mutex // held for the whole of login, refresh and revoke

	mu       sync.RWMutex
	state    State
	status   Status
	username string
	clientID string
}

var _ xoauth2.TokenSource = (*Manager)(nil)

type ManagerOption func(*Manager)

func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithRefreshTimeout bounds each timer driven refresh.
func WithRefreshTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.refreshTimeout = d
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// OnRefresh is called after every successful silent refresh.
func OnRefresh(fn func(State)) ManagerOption {
	return func(m *Manager) {
		m.onRefresh = fn
	}
}

// OnRefreshError is called when a silent refresh fails. The stale token stays in
// place and no further refresh is scheduled; the user has to log in again.
func OnRefreshError(fn func(error)) ManagerOption {
	return func(m *Manager) {
		m.onRefreshError = fn
	}
}

// NewManager creates a Manager that talks to the auth service below baseURL,
// normally the proxy.
func NewManager(baseURL string, cfg config.RDPConfig, opts ...ManagerOption) (*Manager, error) {
	tokenURL, err := url.JoinPath(baseURL, "auth", "oauth2", cfg.GetAuthVersion(), "token")
	if err != nil {
		return nil, errors.Wrap(err, "token.NewManager invalid base url")
	}
	revokeURL, err := url.JoinPath(baseURL, "auth", "oauth2", cfg.GetAuthVersion(), "revoke")
	if err != nil {
		return nil, errors.Wrap(err, "token.NewManager invalid base url")
	}

	m := &Manager{
		tokenURL:       tokenURL,
		revokeURL:      revokeURL,
		scope:          cfg.GetScope(),
		httpClient:     http.DefaultClient,
		refreshTimeout: defaultRefreshTimeout,
		nowFunc:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Login signs in with the password grant, or with the refresh grant when a refresh
// token is still held, and arms the silent refresh timer. All three credential
// fields are required and are checked before anything is sent.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	if !creds.complete() {
		return rdperrors.ErrMissingCredentials
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	held := m.state.RefreshToken
	m.mu.RUnlock()

	req := oauthmodel.NewTokenRequest(creds.Username, creds.Password, creds.ClientID, held, m.scope)
	resp, err := m.grant(ctx, opLogin, req)
	if err != nil {
		return err
	}
	state := m.commit(creds.Username, creds.ClientID, resp)
	log.Info().Str("grant_type", string(req.GrantType)).Time("expires_at", state.Expiry()).Msg("Authentication granted")
	return nil
}

// Refresh renews the session with the stored refresh token. It is driven by the
// refresh timer. On failure nothing is cleared: the current, possibly expired, access
// token remains available until the next login or revoke.
func (m *Manager) Refresh(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.state.RefreshToken == "" {
		m.mu.Unlock()
		return rdperrors.ErrNotAuthenticated
	}
	m.status = Refreshing
	req := oauthmodel.NewTokenRequest(m.username, "", m.clientID, m.state.RefreshToken, "")
	username, clientID := m.username, m.clientID
	m.mu.Unlock()

	resp, err := m.grant(ctx, opRefresh, req)
	if err != nil {
		m.mu.Lock()
		m.status = Authenticated
		m.mu.Unlock()
		return err
	}
	state := m.commit(username, clientID, resp)
	log.Info().Time("expires_at", state.Expiry()).Msg("Token refreshed")
	return nil
}

// Revoke logs out: the access token is revoked upstream, then the local state is
// cleared and the refresh timer cancelled. A failed revoke changes nothing.
func (m *Manager) Revoke(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	req := oauthmodel.RevokeRequest{Token: m.state.AccessToken, ClientID: m.clientID}
	m.mu.RUnlock()
	if req.Token == "" {
		return rdperrors.ErrNoAccessToken
	}

	if _, err := m.postForm(ctx, opRevoke, m.revokeURL, req.Form(), req.Authorization()); err != nil {
		return err
	}

	m.scheduler.Cancel()
	m.mu.Lock()
	m.state = State{}
	m.status = Revoked
	m.username, m.clientID = "", ""
	m.mu.Unlock()
	log.Info().Msg("Logout user success")
	return nil
}

// CurrentAccessToken returns the access token and false when there is none.
func (m *Manager) CurrentAccessToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.AccessToken, m.state.AccessToken != ""
}

// Token implements oauth2.TokenSource.
func (m *Manager) Token() (*xoauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.AccessToken == "" {
		return nil, rdperrors.ErrNoAccessToken
	}
	return &xoauth2.Token{
		AccessToken:  m.state.AccessToken,
		TokenType:    oauth2.TokenTypeBearer,
		RefreshToken: m.state.RefreshToken,
		Expiry:       m.state.Expiry(),
	}, nil
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Snapshot returns a copy of the current token state.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// NextRefresh reports when the silent refresh fires, if one is armed.
func (m *Manager) NextRefresh() (time.Time, bool) {
	return m.scheduler.Deadline()
}

// Close cancels the refresh timer without revoking the session.
func (m *Manager) Close() {
	m.scheduler.Cancel()
}

func (m *Manager) commit(username, clientID string, resp *oauth2.TokenResponse) State {
	state := State{
		AccessToken:  utils.Value(resp.AccessToken),
		RefreshToken: utils.Value(resp.RefreshToken),
		ExpiresIn:    resp.ExpiresIn.Duration(),
		IssuedAt:     m.nowFunc(),
	}

	m.mu.Lock()
	m.state = state
	m.status = Authenticated
	m.username, m.clientID = username, clientID
	m.mu.Unlock()

	m.armRefresh(state)
	return state
}

func (m *Manager) armRefresh(state State) {
	if state.ExpiresIn <= 0 {
		m.scheduler.Cancel()
		log.Warn().Msg("Token response has no expires_in, silent refresh disabled")
		return
	}
	delay := refresh.Delay(state.ExpiresIn)
	m.scheduler.Arm(delay, m.scheduledRefresh)
	log.Debug().Dur("next_refresh", delay).Msg("Refresh timer armed")
}

func (m *Manager) scheduledRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), m.refreshTimeout)
	defer cancel()

	err := m.Refresh(ctx)
	if errors.Is(err, rdperrors.ErrNotAuthenticated) {
		log.Debug().Msg("Silent refresh skipped, no session")
		return
	}
	if err != nil {
		log.Err(err).Msg("Silent token refresh failed")
		if m.onRefreshError != nil {
			m.onRefreshError(err)
		}
		return
	}
	if m.onRefresh != nil {
		m.onRefresh(m.Snapshot())
	}
}

func (m *Manager) grant(ctx context.Context, op string, req oauthmodel.TokenRequest) (*oauth2.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := m.postForm(ctx, op, m.tokenURL, req.Form(), "")
	if err != nil {
		return nil, err
	}

	var resp oauth2.TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrapf(err, "Manager.%s parse token response", op)
	}
	if utils.Value(resp.AccessToken) == "" {
		return nil, errors.Errorf("Manager.%s token response has no access_token", op)
	}
	return &resp, nil
}

func (m *Manager) postForm(ctx context.Context, op, endpoint string, form url.Values, authorization string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrapf(err, "Manager.%s NewRequest", op)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "Manager.%s Do", op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "Manager.%s ReadAll", op)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &rdperrors.AuthError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
