package oauthmodel

import (
	"net/url"
	"strconv"

	rdperrors "github.com/jrsteele09/rdp-proxy/internal/errors"
	"github.com/jrsteele09/rdp-proxy/oauth2"
)

// Form field names understood by the platform token endpoint.
const (
	FieldUsername                   = "username"
	FieldPassword                   = "password"
	FieldClientID                   = "client_id"
	FieldGrantType                  = "grant_type"
	FieldScope                      = "scope"
	FieldRefreshToken               = "refresh_token"
	FieldTakeExclusiveSignOnControl = "takeExclusiveSignOnControl"
	FieldToken                      = "token"
)

// TakeExclusiveSignOnControl is always requested so that signing in here
// invalidates any other session held with the same credentials.
const TakeExclusiveSignOnControl = true

// TokenRequest holds parameters for a grant sent to the /token endpoint.
// It is sent form-encoded (application/x-www-form-urlencoded).
type TokenRequest struct {
	// GrantType is PasswordGrant when no refresh token is held, RefreshTokenGrant otherwise.
	GrantType oauth2.GrantType

	// Username is the platform machine ID or user name.
	// Required: Yes (for both grant types)
	Username string

	// ClientID is the application key.
	// Required: Yes (for both grant types)
	ClientID string

	// Password is sent only with the password grant.
	// Security: Never log or expose this value
	Password string

	// Scope is sent only with the password grant.
	// Example: "trapi"
	Scope string

	// RefreshToken is sent only with the refresh grant.
	RefreshToken string
}

// NewTokenRequest picks the grant type from the refresh token held by the caller:
// a zero-length refresh token means there is no prior session and the password
// grant is used, anything else selects the refresh grant. Fields that do not belong
// to the selected grant are dropped.
func NewTokenRequest(username, password, clientID, refreshToken, scope string) TokenRequest {
	if len(refreshToken) == 0 {
		return TokenRequest{
			GrantType: oauth2.PasswordGrant,
			Username:  username,
			ClientID:  clientID,
			Password:  password,
			Scope:     scope,
		}
	}
	return TokenRequest{
		GrantType:    oauth2.RefreshTokenGrant,
		Username:     username,
		ClientID:     clientID,
		RefreshToken: refreshToken,
	}
}

// Validate reports ErrMissingCredentials when a field required by the grant is empty.
func (r TokenRequest) Validate() error {
	if r.Username == "" || r.ClientID == "" {
		return rdperrors.ErrMissingCredentials
	}
	switch r.GrantType {
	case oauth2.PasswordGrant:
		if r.Password == "" {
			return rdperrors.ErrMissingCredentials
		}
	case oauth2.RefreshTokenGrant:
		if r.RefreshToken == "" {
			return rdperrors.ErrNotAuthenticated
		}
	}
	return nil
}

// Form encodes the request body.
func (r TokenRequest) Form() url.Values {
	form := url.Values{}
	form.Set(FieldUsername, r.Username)
	form.Set(FieldClientID, r.ClientID)
	form.Set(FieldGrantType, string(r.GrantType))
	form.Set(FieldTakeExclusiveSignOnControl, strconv.FormatBool(TakeExclusiveSignOnControl))
	if r.GrantType == oauth2.PasswordGrant {
		form.Set(FieldPassword, r.Password)
		form.Set(FieldScope, r.Scope)
	} else {
		form.Set(FieldRefreshToken, r.RefreshToken)
	}
	return form
}
