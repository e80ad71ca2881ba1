// FILE: internal/service/identity_service.go
package service

import (
	"context"
	"errors"
	"time"

	"ai-docview/internal/apperror"
	"ai-docview/internal/dto"
	"ai-docview/internal/entity"
	"ai-docview/internal/mapper"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/session"
)

const identityModule = "IdentityBridge"

var (
	errSuperseded     = errors.New("session superseded during exchange")
	errSessionCleared = errors.New("session cleared during exchange")
)

// BackendAuthenticator is the login half of the document service contract.
type BackendAuthenticator interface {
	Login(ctx context.Context, idToken string) (*dto.LoginResponse, error)
}

// ExchangeResult reports how a sign-in or refresh ended. Failure is
// informational: the session is still usable with the provider identity.
type ExchangeResult struct {
	Session       entity.SessionRecord
	Authenticated bool
	Failure       error
}

type IIdentityService interface {
	SignIn(ctx context.Context, assertion entity.IdentityAssertion) ExchangeResult
	Refresh(ctx context.Context, assertion entity.IdentityAssertion) ExchangeResult
	ProjectSession(record *entity.SessionRecord) entity.Session
	CurrentSession() (entity.Session, bool)
	SignOut(ctx context.Context) error
}

type identityService struct {
	backend  BackendAuthenticator
	sessions *session.Context
	mapper   *mapper.SessionMapper
	logger   logger.ILogger
}

func NewIdentityService(backend BackendAuthenticator, sessions *session.Context, log logger.ILogger) IIdentityService {
	return &identityService{
		backend:  backend,
		sessions: sessions,
		mapper:   mapper.NewSessionMapper(),
		logger:   log,
	}
}

// SignIn starts a new session from a fresh provider assertion and exchanges
// it for a backend token. It never fails from the caller's point of view.
func (s *identityService) SignIn(ctx context.Context, assertion entity.IdentityAssertion) ExchangeResult {
	profile, expiry := s.readAssertion(assertion)

	s.sessions.Replace(ctx, entity.SessionRecord{
		IdToken:      assertion.IdToken,
		Profile:      profile,
		RefreshToken: assertion.RefreshToken,
		Expiry:       expiry,
	})
	s.logger.Info(identityModule, "Provider sign-in recorded", map[string]interface{}{"subject": profile.Subject})

	return s.exchange(ctx, assertion.IdToken, profile.Subject)
}

// Refresh updates the session in place after a silent provider refresh and
// repeats the exchange. A failed exchange keeps the previous backend token.
func (s *identityService) Refresh(ctx context.Context, assertion entity.IdentityAssertion) ExchangeResult {
	profile, expiry := s.readAssertion(assertion)

	_, ok := s.sessions.Update(ctx, func(r entity.SessionRecord) entity.SessionRecord {
		r.IdToken = assertion.IdToken
		r.Expiry = expiry
		if assertion.RefreshToken != "" {
			r.RefreshToken = assertion.RefreshToken
		}
		if profile.Subject != "" {
			r.Profile = profile
		}
		return r
	})
	if !ok {
		s.logger.Warn(identityModule, "Refresh without a session, treating as sign-in", nil)
		return s.SignIn(ctx, assertion)
	}

	return s.exchange(ctx, assertion.IdToken, profile.Subject)
}

func (s *identityService) exchange(ctx context.Context, idToken, subject string) ExchangeResult {
	res, err := s.backend.Login(ctx, idToken)
	if err != nil {
		s.logExchangeFailure(subject, err)
		current := s.sessions.Current()
		result := ExchangeResult{Failure: &apperror.ExchangeFailure{Subject: subject, Cause: err}}
		if current != nil {
			result.Session = *current
			result.Authenticated = current.HasBackendToken()
		}
		return result
	}

	superseded := false
	updated, ok := s.sessions.UpdateIf(ctx, func(r entity.SessionRecord) (entity.SessionRecord, bool) {
		if r.IdToken != idToken {
			superseded = true
			return r, false
		}
		r.BackendToken = res.Token
		// The backend user replaces whatever was there; it is authoritative.
		r.User = entity.User(res.User).Clone()
		return r, true
	})
	if superseded {
		s.logger.Warn(identityModule, "Newer sign-in replaced the session during exchange, token dropped", map[string]interface{}{"subject": subject})
		return ExchangeResult{Failure: &apperror.ExchangeFailure{Subject: subject, Cause: errSuperseded}}
	}
	if !ok {
		s.logger.Warn(identityModule, "Session cleared during exchange, token dropped", map[string]interface{}{"subject": subject})
		return ExchangeResult{Failure: &apperror.ExchangeFailure{Subject: subject, Cause: errSessionCleared}}
	}

	s.logger.Info(identityModule, "Backend login succeeded", map[string]interface{}{
		"subject": subject,
		"user_id": updated.User.Id(),
	})
	return ExchangeResult{Session: updated, Authenticated: updated.HasBackendToken()}
}

func (s *identityService) logExchangeFailure(subject string, err error) {
	var statusErr *apperror.StatusError
	if errors.As(err, &statusErr) {
		s.logger.Error(identityModule, "Backend login failed", map[string]interface{}{
			"subject": subject,
			"status":  statusErr.StatusCode,
			"body":    statusErr.Body,
		})
		return
	}
	s.logger.Error(identityModule, "Backend login error", map[string]interface{}{
		"subject": subject,
		"error":   err.Error(),
	})
}

// readAssertion decodes the display profile. An explicit assertion expiry
// wins over the token's exp claim.
func (s *identityService) readAssertion(assertion entity.IdentityAssertion) (entity.ProviderProfile, time.Time) {
	profile, expiry, err := s.mapper.ProfileFromIdToken(assertion.IdToken)
	if err != nil {
		s.logger.Warn(identityModule, "Id token carries no readable profile", map[string]interface{}{"error": err.Error()})
	}
	if !assertion.Expiry.IsZero() {
		expiry = assertion.Expiry
	}
	return profile, expiry
}

func (s *identityService) ProjectSession(record *entity.SessionRecord) entity.Session {
	return s.mapper.ProjectSession(record)
}

func (s *identityService) CurrentSession() (entity.Session, bool) {
	record := s.sessions.Current()
	if record == nil {
		return entity.Session{}, false
	}
	return s.mapper.ProjectSession(record), true
}

func (s *identityService) SignOut(ctx context.Context) error {
	s.logger.Info(identityModule, "Signing out", nil)
	return s.sessions.Clear(ctx)
}
