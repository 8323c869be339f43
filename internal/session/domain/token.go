package domain

// SessionPair is what issuance and rotation return: a short-lived access
// token and a long-lived refresh token. It is never persisted server-side;
// the client holds both and the tokens carry their own state.
type SessionPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until access expiry
}
