package oauthmodel

import (
	"encoding/base64"
	"net/url"
)

// RevokeRequest is the body and client authentication for the /revoke endpoint.
type RevokeRequest struct {
	// Token is the access token being revoked.
	Token string

	// ClientID authenticates the call as "Basic base64(client_id:)", the
	// application key with an empty secret.
	ClientID string
}

func (r RevokeRequest) Form() url.Values {
	form := url.Values{}
	form.Set(FieldToken, r.Token)
	return form
}

// Authorization returns the Authorization header value.
func (r RevokeRequest) Authorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(r.ClientID+":"))
}
