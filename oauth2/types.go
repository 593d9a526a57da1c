package oauth2

// GrantType represents the OAuth 2.0 grant type sent to the token endpoint.
// Determines what credentials the request body carries.
type GrantType string

const (
	// PasswordGrant exchanges the user's username and password for tokens.
	// Used in: first login, whenever no refresh token is held
	// Token request includes: username, password, client_id, scope
	// Returns: access_token, refresh_token, expires_in
	PasswordGrant GrantType = "password"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	// Used in: silent renewal before the access token expires
	// Token request includes: username, client_id, refresh_token
	// Returns: new access_token and a rotated refresh_token
	RefreshTokenGrant GrantType = "refresh_token"
)

// TokenTypeBearer is the only token type the platform issues.
const TokenTypeBearer = "Bearer"
