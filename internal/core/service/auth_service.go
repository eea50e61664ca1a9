package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/ports"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/pkg/metrics"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenTTLs configures the lifetime of issued tokens.
type TokenTTLs struct {
	Access  time.Duration
	Refresh time.Duration
}

// AuthService implements registration, login and token refresh.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	codec  ports.TokenCodec
	ttl    TokenTTLs
	logger zerolog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, codec ports.TokenCodec, ttl TokenTTLs, logger zerolog.Logger) *AuthService {
	if ttl.Access <= 0 {
		ttl.Access = DefaultAccessTTL
	}
	if ttl.Refresh <= 0 {
		ttl.Refresh = DefaultRefreshTTL
	}
	return &AuthService{repo: repo, hasher: hasher, codec: codec, ttl: ttl, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, creds domain.Credentials) (*domain.TokenPair, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, domain.ErrMissingCredentials
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Email:        creds.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.AuthRequestsTotal.WithLabelValues("register", "conflict").Inc()
		}
		return nil, err
	}

	pair, err := s.issuePair(strconv.FormatInt(user.ID, 10), user.Role)
	if err != nil {
		return nil, err
	}

	metrics.AuthRequestsTotal.WithLabelValues("register", "ok").Inc()
	s.logger.Info().Int64("user_id", user.ID).Msg("user registered")
	return pair, nil
}

// Login returns domain.ErrInvalidCredentials both for an unknown email and for
// a wrong password.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.TokenPair, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, domain.ErrMissingCredentials
	}

	user, err := s.repo.FindByEmail(ctx, creds.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		// Pay for one hash comparison so unknown emails take as long as
		// known ones.
		s.hasher.Verify(creds.Password, s.dummyHash())
		metrics.AuthRequestsTotal.WithLabelValues("login", "rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(creds.Password, user.PasswordHash) {
		metrics.AuthRequestsTotal.WithLabelValues("login", "rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issuePair(strconv.FormatInt(user.ID, 10), user.Role)
	if err != nil {
		return nil, err
	}

	metrics.AuthRequestsTotal.WithLabelValues("login", "ok").Inc()
	return pair, nil
}

// Refresh mints a new pair from a refresh token. The presented token stays
// usable until it expires.
func (s *AuthService) Refresh(_ context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		metrics.AuthRequestsTotal.WithLabelValues("refresh", "rejected").Inc()
		return nil, domain.ErrInvalidToken
	}

	claims, err := s.codec.DecodeKind(refreshToken, domain.TokenRefresh)
	if err != nil {
		metrics.AuthRequestsTotal.WithLabelValues("refresh", "rejected").Inc()
		s.logger.Debug().Err(err).Msg("refresh token rejected")
		return nil, domain.ErrInvalidToken
	}

	pair, err := s.issuePair(claims.Subject, claims.Role)
	if err != nil {
		return nil, err
	}

	metrics.AuthRequestsTotal.WithLabelValues("refresh", "ok").Inc()
	return pair, nil
}

func (s *AuthService) issuePair(subject, role string) (*domain.TokenPair, error) {
	access, err := s.codec.Encode(subject, role, domain.TokenAccess, s.ttl.Access)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Encode(subject, role, domain.TokenRefresh, s.ttl.Refresh)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) dummyHash() string {
	s.dummyOnce.Do(func() {
		d, err := s.hasher.Hash("not-a-real-password")
		if err != nil {
			s.logger.Warn().Err(err).Msg("could not prepare dummy digest")
			return
		}
		s.dummyDigest = d
	})
	return s.dummyDigest
}
