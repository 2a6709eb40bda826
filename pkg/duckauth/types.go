package duckauth

// TokenPair is the access and refresh token issued together by the auth
// service. It is always replaced as a whole.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (p TokenPair) valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// DeviceInfo identifies the installation signing in. The server uses it for
// session tracking.
type DeviceInfo struct {
	DeviceType string `json:"deviceType"`
	DeviceID   string `json:"deviceId"`
	Model      string `json:"model"`
	OS         string `json:"os"`
}

// Auth service endpoints.
const (
	AuthorizePath = "/auth/authorize"
	RefreshPath   = "/auth/token/refresh"
	RevokePath    = "/auth/token/revoke"
)

// AuthorizeRequest is the body of POST /auth/authorize.
type AuthorizeRequest struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Device   DeviceInfo `json:"device"`
}

// RefreshTokenRequest is the body of the refresh and revoke endpoints.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ErrorResponse is the JSON error body returned by the auth service.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
