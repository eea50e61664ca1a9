package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/infrastructure/security"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	nextID  int64
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = r.nextID
	r.users[copy.Email] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// countingHasher records how often Verify runs.
type countingHasher struct {
	*security.BcryptHasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(plaintext, digest string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.BcryptHasher.Verify(plaintext, digest)
}

func newTestCodec(t *testing.T) *security.JWTCodec {
	t.Helper()
	codec, err := security.NewJWTCodec("secret", "HS256")
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	return codec
}

func newAuthSvc(t *testing.T, repo *stubUserRepo) (*AuthService, *security.JWTCodec) {
	t.Helper()
	codec := newTestCodec(t)
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	return NewAuthService(repo, hasher, codec, TokenTTLs{}, zerolog.Nop()), codec
}

func creds(email, password string) domain.Credentials {
	return domain.Credentials{Email: email, Password: password}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newAuthSvc(t, repo)

	pair, err := svc.Register(context.Background(), creds("alice@example.com", "pass123"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	stored := repo.users["alice@example.com"]
	if stored == nil {
		t.Fatalf("expected user to be stored")
	}
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if stored.Role != domain.RoleUser {
		t.Fatalf("unexpected role: %s", stored.Role)
	}

	access, err := codec.DecodeKind(pair.AccessToken, domain.TokenAccess)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if access.Subject != strconv.FormatInt(stored.ID, 10) || access.Role != domain.RoleUser {
		t.Fatalf("unexpected access claims: %+v", access)
	}
	if got := access.ExpiresAt.Sub(access.IssuedAt); got != DefaultAccessTTL {
		t.Fatalf("access ttl = %v, want %v", got, DefaultAccessTTL)
	}

	refresh, err := codec.DecodeKind(pair.RefreshToken, domain.TokenRefresh)
	if err != nil {
		t.Fatalf("refresh token: %v", err)
	}
	if got := refresh.ExpiresAt.Sub(refresh.IssuedAt); got != DefaultRefreshTTL {
		t.Fatalf("refresh ttl = %v, want %v", got, DefaultRefreshTTL)
	}
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	svc, _ := newAuthSvc(t, newStubUserRepo())

	if _, err := svc.Register(context.Background(), creds("", "pass")); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := svc.Register(context.Background(), creds("bob@example.com", "")); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestAuthService_Register_PasswordTooLong(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newAuthSvc(t, repo)

	_, err := svc.Register(context.Background(), creds("long@example.com", strings.Repeat("x", 73)))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("expected no user stored, got %d", len(repo.users))
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newAuthSvc(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, creds("bob@example.com", "first")); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, creds("bob@example.com", "second")); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	if _, err := svc.Login(ctx, creds("bob@example.com", "first")); err != nil {
		t.Fatalf("first registration must still log in: %v", err)
	}
	if _, err := svc.Login(ctx, creds("bob@example.com", "second")); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("second password must not be accepted, got %v", err)
	}
}

func TestAuthService_Register_EmailIsCaseSensitive(t *testing.T) {
	svc, _ := newAuthSvc(t, newStubUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, creds("Bob@example.com", "pw")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, creds("bob@example.com", "pw")); err != nil {
		t.Fatalf("differently cased email should register: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_RegisterThenLogin_SameSubject(t *testing.T) {
	svc, codec := newAuthSvc(t, newStubUserRepo())
	ctx := context.Background()

	regPair, err := svc.Register(ctx, creds("carol@example.com", "s3cret"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	loginPair, err := svc.Login(ctx, creds("carol@example.com", "s3cret"))
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	a, _ := codec.Decode(regPair.AccessToken)
	b, _ := codec.Decode(loginPair.AccessToken)
	if a.Subject == "" || a.Subject != b.Subject {
		t.Fatalf("subjects differ: register=%q login=%q", a.Subject, b.Subject)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newAuthSvc(t, newStubUserRepo())
	ctx := context.Background()

	_, _ = svc.Register(ctx, creds("dave@example.com", "goodpass"))

	_, wrongPass := svc.Login(ctx, creds("dave@example.com", "badpass"))
	_, unknown := svc.Login(ctx, creds("ghost@example.com", "goodpass"))

	if wrongPass != domain.ErrInvalidCredentials || unknown != domain.ErrInvalidCredentials {
		t.Fatalf("expected identical ErrInvalidCredentials, got %v and %v", wrongPass, unknown)
	}
}

func TestAuthService_Login_UnknownEmailStillVerifies(t *testing.T) {
	repo := newStubUserRepo()
	hasher := &countingHasher{BcryptHasher: security.NewBcryptHasher(bcrypt.MinCost)}
	svc := NewAuthService(repo, hasher, newTestCodec(t), TokenTTLs{}, zerolog.Nop())

	if _, err := svc.Login(context.Background(), creds("ghost@example.com", "pw")); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if hasher.verifies != 1 {
		t.Fatalf("expected one hash comparison for unknown email, got %d", hasher.verifies)
	}
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	svc, _ := newAuthSvc(t, newStubUserRepo())

	if _, err := svc.Login(context.Background(), creds("", "")); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestAuthService_Login_ReflectsStoredRole(t *testing.T) {
	repo := newStubUserRepo()
	svc, codec := newAuthSvc(t, repo)
	ctx := context.Background()

	if err := EnsureAdmin(ctx, repo, security.NewBcryptHasher(bcrypt.MinCost), "admin@example.com", "admin123", zerolog.Nop()); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	pair, err := svc.Login(ctx, creds("admin@example.com", "admin123"))
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := codec.DecodeKind(pair.AccessToken, domain.TokenAccess)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.Role != domain.RoleAdmin {
		t.Fatalf("expected role %s, got %s", domain.RoleAdmin, claims.Role)
	}
}

func TestAuthService_Login_StoreFailurePropagates(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("connection reset")
	svc, _ := newAuthSvc(t, repo)

	_, err := svc.Login(context.Background(), creds("a@x.com", "pw"))
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestAuthService_Refresh_Success(t *testing.T) {
	svc, codec := newAuthSvc(t, newStubUserRepo())
	ctx := context.Background()

	pair, err := svc.Register(ctx, creds("erin@example.com", "pw"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	orig, _ := codec.Decode(pair.RefreshToken)
	access, err := codec.DecodeKind(fresh.AccessToken, domain.TokenAccess)
	if err != nil {
		t.Fatalf("new access token: %v", err)
	}
	if access.Subject != orig.Subject || access.Role != orig.Role {
		t.Fatalf("refresh changed identity: %+v vs %+v", access, orig)
	}
	if _, err := codec.DecodeKind(fresh.RefreshToken, domain.TokenRefresh); err != nil {
		t.Fatalf("new refresh token: %v", err)
	}
}

func TestAuthService_Refresh_TokenIsReusable(t *testing.T) {
	svc, _ := newAuthSvc(t, newStubUserRepo())
	ctx := context.Background()

	pair, _ := svc.Register(ctx, creds("frank@example.com", "pw"))
	for i := 0; i < 2; i++ {
		if _, err := svc.Refresh(ctx, pair.RefreshToken); err != nil {
			t.Fatalf("refresh #%d: %v", i+1, err)
		}
	}
}

func TestAuthService_Refresh_Rejections(t *testing.T) {
	svc, codec := newAuthSvc(t, newStubUserRepo())
	ctx := context.Background()

	pair, _ := svc.Register(ctx, creds("gina@example.com", "pw"))
	expired, err := codec.Encode("1", domain.RoleUser, domain.TokenRefresh, -time.Minute)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	cases := map[string]string{
		"access token":  pair.AccessToken,
		"expired token": expired,
		"garbage":       "not-a-token",
		"empty":         "",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Refresh(ctx, tok); !errors.Is(err, domain.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Seed
// ---------------------------------------------------------------------------

func TestEnsureAdmin_Idempotent(t *testing.T) {
	repo := newStubUserRepo()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := EnsureAdmin(ctx, repo, hasher, "admin@example.com", "admin123", zerolog.Nop()); err != nil {
			t.Fatalf("EnsureAdmin #%d: %v", i+1, err)
		}
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected one user, got %d", len(repo.users))
	}
	if repo.users["admin@example.com"].Role != domain.RoleAdmin {
		t.Fatalf("expected admin role")
	}
}

func TestEnsureAdmin_LeavesExistingUserAlone(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newAuthSvc(t, repo)
	ctx := context.Background()

	_, _ = svc.Register(ctx, creds("admin@example.com", "mine"))
	if err := EnsureAdmin(ctx, repo, security.NewBcryptHasher(bcrypt.MinCost), "admin@example.com", "admin123", zerolog.Nop()); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if repo.users["admin@example.com"].Role != domain.RoleUser {
		t.Fatalf("existing user must not be promoted")
	}
}

func TestEnsureAdmin_SkipsWithoutCredentials(t *testing.T) {
	repo := newStubUserRepo()
	if err := EnsureAdmin(context.Background(), repo, security.NewBcryptHasher(bcrypt.MinCost), "", "", zerolog.Nop()); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("expected no users, got %d", len(repo.users))
	}
}

func TestEnsureAdmin_PasswordTooLong(t *testing.T) {
	repo := newStubUserRepo()
	err := EnsureAdmin(context.Background(), repo, security.NewBcryptHasher(bcrypt.MinCost), "admin@example.com", strings.Repeat("x", 73), zerolog.Nop())
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("expected no users, got %d", len(repo.users))
	}
}
