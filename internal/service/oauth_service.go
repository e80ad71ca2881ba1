// FILE: internal/service/oauth_service.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-docview/internal/config"
	"ai-docview/internal/entity"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/session"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const oauthModule = "OAuth"

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrInvalidState        = errors.New("oauth state mismatch")
	ErrNoIdToken           = errors.New("provider response carries no id_token")
	ErrNoRefreshToken      = errors.New("session has no refresh token")
)

// OAuthProvider is the part of *oauth2.Config the sign-in flow uses.
type OAuthProvider interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
	TokenSource(ctx context.Context, t *oauth2.Token) oauth2.TokenSource
}

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider, state, code string) (ExchangeResult, error)
	Refresh(ctx context.Context) (ExchangeResult, error)
}

type oauthService struct {
	googleConf OAuthProvider
	identity   IIdentityService
	sessions   *session.Context
	logger     logger.ILogger

	// states holds the state values handed out by GetLoginURL until their
	// callback arrives.
	mu     sync.Mutex
	states map[string]time.Time
}

func NewOAuthService(cfg config.GoogleConfig, identity IIdentityService, sessions *session.Context, log logger.ILogger) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
	return NewOAuthServiceWithProvider(conf, identity, sessions, log)
}

func NewOAuthServiceWithProvider(provider OAuthProvider, identity IIdentityService, sessions *session.Context, log logger.ILogger) IOAuthService {
	return &oauthService{
		googleConf: provider,
		identity:   identity,
		sessions:   sessions,
		logger:     log,
		states:     make(map[string]time.Time),
	}
}

// GetLoginURL asks for offline access with a forced consent prompt so the
// provider always hands back a refresh token.
func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != "google" {
		s.logger.Warn(oauthModule, "Unsupported provider", map[string]interface{}{"provider": provider})
		return "", ErrUnsupportedProvider
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	s.states[state] = time.Now()
	s.mu.Unlock()

	url := s.googleConf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	s.logger.Debug(oauthModule, "Generated login URL", nil)
	return url, nil
}

// HandleCallback trades the authorization code for provider tokens and
// hands the id token to the identity bridge.
func (s *oauthService) HandleCallback(ctx context.Context, provider, state, code string) (ExchangeResult, error) {
	if provider != "google" {
		return ExchangeResult{}, ErrUnsupportedProvider
	}
	if !s.consumeState(state) {
		s.logger.Warn(oauthModule, "Callback with unknown state", nil)
		return ExchangeResult{}, ErrInvalidState
	}

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		s.logger.Error(oauthModule, "Code exchange failed", map[string]interface{}{"error": err.Error()})
		return ExchangeResult{}, fmt.Errorf("code exchange failed: %w", err)
	}

	assertion, err := assertionFromToken(token)
	if err != nil {
		return ExchangeResult{}, err
	}

	s.logger.Info(oauthModule, "Provider sign-in completed", nil)
	return s.identity.SignIn(ctx, assertion), nil
}

// Refresh renews the provider id token with the stored refresh token and
// repeats the backend exchange.
func (s *oauthService) Refresh(ctx context.Context) (ExchangeResult, error) {
	current := s.sessions.Current()
	if current == nil || current.RefreshToken == "" {
		return ExchangeResult{}, ErrNoRefreshToken
	}

	// An expired access token forces the source to hit the token endpoint.
	stale := &oauth2.Token{
		RefreshToken: current.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}
	token, err := s.googleConf.TokenSource(ctx, stale).Token()
	if err != nil {
		s.logger.Error(oauthModule, "Provider refresh failed", map[string]interface{}{"error": err.Error()})
		return ExchangeResult{}, fmt.Errorf("provider refresh failed: %w", err)
	}

	assertion, err := assertionFromToken(token)
	if err != nil {
		return ExchangeResult{}, err
	}
	return s.identity.Refresh(ctx, assertion), nil
}

func (s *oauthService) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[state]; !ok || state == "" {
		return false
	}
	delete(s.states, state)
	return true
}

func assertionFromToken(token *oauth2.Token) (entity.IdentityAssertion, error) {
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return entity.IdentityAssertion{}, ErrNoIdToken
	}
	return entity.IdentityAssertion{
		IdToken:      idToken,
		RefreshToken: token.RefreshToken,
	}, nil
}
