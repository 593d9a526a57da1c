package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of access token claims shown to the user. The platform
// signs its tokens with keys the client never sees, so nothing here is verified
// and it must only be used for display.
type Claims struct {
	Subject   string
	Audience  []string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ErrNotJWT is returned for opaque access tokens.
var ErrNotJWT = errors.New("access token is not a JWT")

// Inspect decodes the claims of rawToken without verifying the signature.
func Inspect(rawToken string) (*Claims, error) {
	if strings.Count(rawToken, ".") != 2 {
		return nil, ErrNotJWT
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, err
	}
	mapClaims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	claims := &Claims{}
	claims.Subject, _ = mapClaims.GetSubject()
	claims.Audience, _ = mapClaims.GetAudience()
	if iat, _ := mapClaims.GetIssuedAt(); iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, _ := mapClaims.GetExpirationTime(); exp != nil {
		claims.ExpiresAt = exp.Time
	}
	claims.Scopes = scopes(mapClaims["scope"])
	return claims, nil
}

// scope is either a space separated string or a list, depending on the issuer.
func scopes(v any) []string {
	switch s := v.(type) {
	case string:
		return strings.Fields(s)
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
