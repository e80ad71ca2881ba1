package mapper

import (
	"fmt"
	"time"

	"ai-docview/internal/entity"

	"github.com/golang-jwt/jwt/v5"
)

type SessionMapper struct {
	parser *jwt.Parser
}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{parser: jwt.NewParser()}
}

// ProfileFromIdToken reads the display profile and expiry out of a provider
// id token. The signature is not checked here: the provider handed the
// token to us directly and the backend verifies it again on login.
func (m *SessionMapper) ProfileFromIdToken(idToken string) (entity.ProviderProfile, time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := m.parser.ParseUnverified(idToken, claims); err != nil {
		return entity.ProviderProfile{}, time.Time{}, fmt.Errorf("parse id token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return entity.ProviderProfile{}, time.Time{}, fmt.Errorf("id token has no subject")
	}

	profile := entity.ProviderProfile{
		Subject: sub,
		Name:    stringClaim(claims, "name"),
		Email:   stringClaim(claims, "email"),
		Picture: stringClaim(claims, "picture"),
	}

	var expiry time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiry = exp.Time
	}
	return profile, expiry, nil
}

// ProjectSession builds the session the display layer sees. Backend user
// fields are laid over the provider's display profile; without a backend
// user the provider subject stands in as the user id.
func (m *SessionMapper) ProjectSession(r *entity.SessionRecord) entity.Session {
	if r == nil {
		return entity.Session{User: map[string]interface{}{}}
	}

	user := map[string]interface{}{}
	if r.Profile.Name != "" {
		user["name"] = r.Profile.Name
	}
	if r.Profile.Email != "" {
		user["email"] = r.Profile.Email
	}
	if r.Profile.Picture != "" {
		user["image"] = r.Profile.Picture
	}

	if r.User != nil {
		for k, v := range r.User {
			user[k] = v
		}
	} else {
		user["id"] = r.Profile.Subject
	}

	return entity.Session{
		IdToken:      r.IdToken,
		BackendToken: r.BackendToken,
		User:         user,
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
