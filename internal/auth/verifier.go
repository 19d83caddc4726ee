package auth

import (
	"errors"
	"time"

	"github.com/dermalens/dermalens/internal/clock"
	"github.com/dermalens/dermalens/internal/config"
	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	defaultTokenTTL = 30 * 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrMissingToken = errors.New("missing_token")
)

// Identity is the authenticated principal carried in a bearer token.
type Identity struct {
	UserID snowflake.ID
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Verifier signs and verifies HS256 bearer tokens.
type Verifier struct {
	secret []byte
	clock  clock.Clock
}

func NewVerifier(cfg config.Config, clk clock.Clock) *Verifier {
	return &Verifier{
		secret: []byte(cfg.AuthJWTSecret),
		clock:  clk,
	}
}

// Sign issues a token for the identity. Used by the seed bootstrap and by
// tests.
func (v *Verifier) Sign(identity Identity) (string, error) {
	if identity.UserID == 0 {
		return "", ErrInvalidToken
	}
	role := identity.Role
	if role == "" {
		role = RoleUser
	}
	now := v.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  identity.UserID.String(),
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(defaultTokenTTL).Unix(),
	})
	return token.SignedString(v.secret)
}

// Verify parses and validates a bearer token and returns its identity.
func (v *Verifier) Verify(raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.clock.Now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	userID, err := snowflake.ParseString(sub)
	if err != nil || userID == 0 {
		return nil, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleUser
	}

	return &Identity{UserID: userID, Role: role}, nil
}
