package oauth2

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TokenResponse represents the response from the platform token endpoint.
// Both the password grant and the refresh grant answer with this shape.
type TokenResponse struct {
	// AccessToken is presented as "Authorization: Bearer <access_token>" on data requests.
	// Lifespan: short-lived, see ExpiresIn
	AccessToken *string `json:"access_token,omitempty"`

	// RefreshToken is sent back with grant_type=refresh_token to renew the session.
	// Rotates on each use, so the previous value must be discarded.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// TokenType is "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: "600" (the platform sends it as a string) or 600
	ExpiresIn Seconds `json:"expires_in,omitempty"`

	// Scope is the granted scope, e.g. "trapi".
	Scope string `json:"scope,omitempty"`
}

// Seconds is a lifetime in whole seconds that decodes from a JSON number or a
// JSON string holding a number.
type Seconds int64

func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*s = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid expires_in %q: %w", raw, err)
	}
	*s = Seconds(v)
	return nil
}

func (s Seconds) Duration() time.Duration {
	return time.Duration(s) * time.Second
}
