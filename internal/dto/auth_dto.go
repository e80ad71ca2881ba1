// FILE: internal/dto/auth_dto.go
package dto

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	IdToken string `json:"idToken" validate:"required"`
}

// LoginResponse is the 2xx body of POST /api/v1/auth/login.
type LoginResponse struct {
	Token string                 `json:"token" validate:"required"`
	User  map[string]interface{} `json:"user" validate:"required"`
}

// WhoAmIResponse is what `docview whoami --json` prints.
type WhoAmIResponse struct {
	Authenticated bool                   `json:"authenticated"`
	Subject       string                 `json:"subject"`
	User          map[string]interface{} `json:"user"`
	ExpiresAt     string                 `json:"expires_at,omitempty"`
}
