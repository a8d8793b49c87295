package models

import "time"

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceID   string `json:"device_id,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
}

// TokenResponse is the token envelope issued by login.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LoginResponse bundles the authenticated user with its token pair.
type LoginResponse struct {
	User   User          `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

// RefreshRequest is the payload of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse is the result of a token refresh. RefreshToken is empty
// when the backend chose not to rotate the refresh token; the client keeps
// the previous one in that case.
type RefreshResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LogoutRequest is the payload of POST /auth/logout.
type LogoutRequest struct {
	AllDevices bool `json:"all_devices"`
}

// PasswordChangeRequest is the payload of POST /users/me/password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ErrorBody is the backend's error envelope.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Credentials is the persisted client-side session record. Absence of the
// record means an unauthenticated first visit.
type Credentials struct {
	User            *User  `json:"user"`
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// Empty reports whether the record carries no session at all.
func (c Credentials) Empty() bool {
	return c.User == nil && c.AccessToken == "" && c.RefreshToken == "" && !c.IsAuthenticated
}
