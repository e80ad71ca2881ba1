// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-docview/internal/dto"
	"ai-docview/internal/entity"
	"ai-docview/internal/mapper"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/pkg/serverutils"
	"ai-docview/internal/repository/contract"

	"github.com/google/uuid"
)

// AccessTokenTTL is how long a mock service token stays valid.
const AccessTokenTTL = 7 * 24 * time.Hour

var ErrInvalidGoogleToken = errors.New("Invalid Google token")

// IAuthService is the mock document service's login endpoint logic.
type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	users         contract.UserRepository
	sessionMapper *mapper.SessionMapper
	userMapper    *mapper.UserMapper
	jwtSecret     string
	clock         clock.Clock
	logger        logger.ILogger
}

func NewAuthService(users contract.UserRepository, jwtSecret string, clk clock.Clock, log logger.ILogger) IAuthService {
	return &authService{
		users:         users,
		sessionMapper: mapper.NewSessionMapper(),
		userMapper:    mapper.NewUserMapper(),
		jwtSecret:     jwtSecret,
		clock:         clk,
		logger:        log,
	}
}

// Login accepts a provider id token, finds or creates the account for its
// subject and issues a service token. Signatures are not checked: this
// service stands in for the real one in local runs and tests.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	profile, expiry, err := s.sessionMapper.ProfileFromIdToken(req.IdToken)
	if err != nil {
		s.logger.Warn("Auth", "Rejected unreadable id token", map[string]interface{}{"error": err.Error()})
		return nil, ErrInvalidGoogleToken
	}
	now := s.clock.Now()
	if profile.Email == "" || (!expiry.IsZero() && expiry.Before(now)) {
		return nil, ErrInvalidGoogleToken
	}

	account, err := s.users.FindBySubject(ctx, profile.Subject)
	if err != nil {
		return nil, err
	}

	if account == nil {
		account = &entity.Account{
			Id:            uuid.NewString(),
			GoogleSubject: profile.Subject,
			Email:         profile.Email,
			FullName:      profile.Name,
			AvatarURL:     profile.Picture,
			CreatedAt:     now,
			LastLoginAt:   now,
		}
		if err := s.users.Create(ctx, account); err != nil {
			return nil, err
		}
		s.logger.Info("Auth", "Account created", map[string]interface{}{"user_id": account.Id})
	} else {
		account.Email = profile.Email
		account.FullName = profile.Name
		account.AvatarURL = profile.Picture
		account.LastLoginAt = now
		if err := s.users.Update(ctx, account); err != nil {
			return nil, err
		}
	}

	token, err := serverutils.IssueToken(s.jwtSecret, account.Id, account.Email, now, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &dto.LoginResponse{
		Token: token,
		User:  s.userMapper.ToUser(account),
	}, nil
}
