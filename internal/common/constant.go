package common

// Metadata keys and header names used to carry tokens between client and server.
const (
	// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
	AccessTokenHeaderName = "access_token"
	// RefreshTokenHeaderName is the gRPC metadata key carrying the refresh token.
	RefreshTokenHeaderName = "refresh_token"

	// AccessTokenCookie and RefreshTokenCookie are the signed HTTP cookie names.
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	// ReissuedAccessTokenHeader carries an access token minted by the guard.
	ReissuedAccessTokenHeader = "X-Access-Token"
	// RefreshTokenHTTPHeader lets non-browser clients present a refresh token.
	RefreshTokenHTTPHeader = "X-Refresh-Token"
)

// Provenance placeholders recorded when the transport supplies no value.
const (
	DefaultIP        = "127.0.0.1"
	DefaultUserAgent = "unknown"
)
