package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenWrongRoom = errors.New("token issued for another session")
)

const tokenIssuer = "textchat-relay"

// SessionClaims is what a relay token carries. Data ends up as Connection.Data.
type SessionClaims struct {
	Room string `json:"room"`
	Data string `json:"data,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and checks HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token for room. A zero ttl uses the service default.
func (s *TokenService) Issue(room domain.RoomName, data string, ttl time.Duration) (string, error) {
	if room == "" {
		return "", fmt.Errorf("%w: empty room", ErrTokenInvalid)
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := s.now()
	claims := &SessionClaims{
		Room: string(room),
		Data: data,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, expiry and that the token belongs to room.
func (s *TokenService) Verify(token string, room domain.RoomName) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Join(ErrTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Room != string(room) {
		return nil, ErrTokenWrongRoom
	}
	return claims, nil
}
