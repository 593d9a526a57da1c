package token

import "time"

// Credentials are supplied by the user once per login. Only Username and ClientID
// are kept afterwards; the refresh grant and revoke need them, the password is not
// needed again.
type Credentials struct {
	Username string
	Password string
	// ClientID is the application key.
	ClientID string
}

func (c Credentials) complete() bool {
	return c.Username != "" && c.Password != "" && c.ClientID != ""
}

// State is the credential state issued by the platform. It is replaced wholesale on
// every successful grant and zeroed on revoke.
type State struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	IssuedAt     time.Time
}

// Expiry is the declared end of life of the access token, or the zero time when
// the platform did not declare one.
func (s State) Expiry() time.Time {
	if s.ExpiresIn <= 0 {
		return time.Time{}
	}
	return s.IssuedAt.Add(s.ExpiresIn)
}

func (s State) IsZero() bool {
	return s.AccessToken == "" && s.RefreshToken == ""
}

type Status int

const (
	Unauthenticated Status = iota
	Authenticated
	Refreshing
	Revoked
)

func (s Status) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	case Revoked:
		return "revoked"
	default:
		return "unknown"
	}
}
