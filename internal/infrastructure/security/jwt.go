package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

// JWTCodec encodes and decodes HMAC-signed JWTs. Secret and algorithm are fixed
// at construction; nothing about them can be influenced by a token.
type JWTCodec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

type tokenClaims struct {
	Role string           `json:"role"`
	Type domain.TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// NewJWTCodec accepts HS256, HS384 or HS512.
func NewJWTCodec(secret, alg string) (*JWTCodec, error) {
	if secret == "" {
		return nil, errors.New("jwt: empty signing secret")
	}

	var method *jwt.SigningMethodHMAC
	switch alg {
	case "", jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("jwt: unsupported signing algorithm %q", alg)
	}

	return &JWTCodec{secret: []byte(secret), method: method, now: time.Now}, nil
}

func (c *JWTCodec) Encode(subject, role string, kind domain.TokenKind, ttl time.Duration) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("jwt: unknown token kind %q", kind)
	}

	now := c.now()
	claims := tokenClaims{
		Role: role,
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature before looking at any claim. It returns
// domain.ErrTokenExpired only for correctly signed tokens past their expiry;
// everything else is domain.ErrTokenInvalid.
func (c *JWTCodec) Decode(token string) (domain.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Claims{}, domain.ErrTokenExpired
		}
		return domain.Claims{}, domain.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return domain.Claims{}, domain.ErrTokenInvalid
	}
	if claims.Subject == "" || !claims.Type.Valid() || claims.IssuedAt == nil {
		return domain.Claims{}, domain.ErrTokenInvalid
	}

	return domain.Claims{
		Subject:   claims.Subject,
		Role:      claims.Role,
		Kind:      claims.Type,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// DecodeKind is Decode plus a check that the token was issued for kind.
func (c *JWTCodec) DecodeKind(token string, kind domain.TokenKind) (domain.Claims, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return domain.Claims{}, err
	}
	if claims.Kind != kind {
		return domain.Claims{}, domain.ErrTokenWrongKind
	}
	return claims, nil
}
