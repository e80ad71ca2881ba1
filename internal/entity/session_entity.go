package entity

import "time"

// IdentityAssertion is what the identity provider hands over after a
// successful sign-in or silent refresh.
type IdentityAssertion struct {
	IdToken      string
	RefreshToken string
	Expiry       time.Time
}

// ProviderProfile is the display profile carried inside the provider's id token.
type ProviderProfile struct {
	Subject string `json:"sub"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// User is the backend's user object. Its fields are opaque to the client
// apart from "id".
type User map[string]interface{}

// Id returns the user's "id" field as a string, or "" when missing.
func (u User) Id() string {
	if u == nil {
		return ""
	}
	if v, ok := u["id"].(string); ok {
		return v
	}
	return ""
}

// Clone returns a shallow copy so records never share a map.
func (u User) Clone() User {
	if u == nil {
		return nil
	}
	out := make(User, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}

// SessionRecord is the application session. BackendToken == "" means the
// backend exchange has not succeeded yet: the user is signed in with the
// provider but unauthenticated for API purposes.
type SessionRecord struct {
	IdToken      string          `json:"id_token"`
	BackendToken string          `json:"backend_token,omitempty"`
	User         User            `json:"user,omitempty"`
	Profile      ProviderProfile `json:"profile"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Expiry       time.Time       `json:"expiry"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (r SessionRecord) HasBackendToken() bool {
	return r.BackendToken != ""
}

// Clone deep-copies the mutable parts of the record.
func (r SessionRecord) Clone() SessionRecord {
	r.User = r.User.Clone()
	return r
}

// Session is the projection handed to the display layer.
type Session struct {
	IdToken      string                 `json:"idToken"`
	BackendToken string                 `json:"backendToken,omitempty"`
	User         map[string]interface{} `json:"user"`
}
