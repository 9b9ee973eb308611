package backend

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// SessionClaims is the payload of the token handed out on sign-in.
type SessionClaims struct {
	jwt.RegisteredClaims
	Data map[string]any `json:"dat,omitempty"`
}

// TokenMinter signs HS256 session tokens.
type TokenMinter struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenMinter returns a minter signing with key. A zero ttl means 24h.
func NewTokenMinter(key []byte, issuer string, ttl time.Duration) *TokenMinter {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenMinter{
		key:    key,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Mint issues a token for user.
func (m *TokenMinter) Mint(user *User) (string, time.Time, error) {
	if len(m.key) == 0 {
		return "", time.Time{}, goerrors.New("signing key is required", goerrors.CategoryBadInput)
	}

	if user == nil {
		return "", time.Time{}, goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Data: map[string]any{
			"username": user.Username,
			"email":    user.Email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "sign session token")
	}

	return signed, expiresAt, nil
}
