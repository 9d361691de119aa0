package auth

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/crypto/bcrypt"

	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/permission"
	"github.com/msallam/hotel-management/internal/user"
)

// UserStore is the slice of the user repository authentication needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	Update(ctx context.Context, u *user.User) error
}

type Service struct {
	users    UserStore
	tokens   TokenGenerator
	resolver *permission.Resolver
	logger   *slog.Logger
}

func NewService(users UserStore, tokens TokenGenerator, resolver *permission.Resolver, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		resolver: resolver,
		logger:   logger,
	}
}

// Authenticate checks the credentials and returns tokens together with the
// account's effective permission keys. Credential failures are deliberately
// indistinguishable from unknown accounts.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*LoginResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, errors.NewStoreError("failed to look up user", err)
	}
	if u == nil {
		return nil, errors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, errors.ErrUserInactive
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u.LastLoginAt = &now
	if err := s.users.Update(ctx, u); err != nil {
		s.logger.Warn("failed to record last login", "user_id", u.ID, "error", err)
	}

	keys, err := s.allowedKeys(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user authenticated", "user_id", u.ID)
	return &LoginResponse{
		Tokens: tokens,
		User: SessionUser{
			ID:      u.ID,
			Email:   u.Email,
			Name:    u.Name,
			GroupID: u.GroupID,
		},
		Permissions: keys,
	}, nil
}

// RefreshTokens exchanges a valid refresh token for a fresh pair. The account
// must still exist and be active.
func (s *Service) RefreshTokens(ctx context.Context, dto RefreshTokenDTO) (*AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.tokens.ValidateRefreshToken(dto.RefreshToken)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.NewStoreError("failed to look up user", err)
	}
	if u == nil {
		return nil, errors.ErrInvalidToken
	}
	if !u.IsActive {
		return nil, errors.ErrUserInactive
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// ValidateAccessToken verifies the token signature and expiry and returns the
// claims for the request pipeline.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

func (s *Service) issueTokens(u *user.User) (AuthTokens, error) {
	accessToken, err := s.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to sign access token", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(u.ID, u.Email)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to sign refresh token", err)
	}

	tokens := AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if gen, ok := s.tokens.(*JWTTokenGenerator); ok {
		tokens.ExpiresIn = int64(gen.AccessTokenTTL.Seconds())
	}
	return tokens, nil
}

func (s *Service) allowedKeys(ctx context.Context, userID string) ([]string, error) {
	set, err := s.resolver.EffectiveSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(set))
	for k, ep := range set {
		if ep.IsAllowed {
			keys = append(keys, k.String())
		}
	}
	sort.Strings(keys)
	return keys, nil
}
