package client

import (
	"errors"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidSessionToken is returned when a sign-in token fails verification.
var ErrInvalidSessionToken = goerrors.New("invalid session token", goerrors.CategoryAuth).
	WithTextCode("SESSION_TOKEN_INVALID")

// Session holds the attributes carried by the token issued on sign-in.
type Session struct {
	UserID         string         `json:"user_id,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

// TokenVerifier validates a session token and extracts its claims.
type TokenVerifier interface {
	Verify(token string) (*Session, error)
}

// TokenVerifierFunc adapts a function into a TokenVerifier.
type TokenVerifierFunc func(token string) (*Session, error)

// Verify satisfies the TokenVerifier interface.
func (f TokenVerifierFunc) Verify(token string) (*Session, error) {
	if f == nil {
		return nil, ErrInvalidSessionToken
	}
	return f(token)
}

type jwtVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewHMACVerifier verifies HS256/384/512 tokens signed with key.
func NewHMACVerifier(key []byte, opts ...jwt.ParserOption) TokenVerifier {
	opts = append([]jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}, opts...)
	return &jwtVerifier{
		keyfunc: func(*jwt.Token) (any, error) { return key, nil },
		parser:  jwt.NewParser(opts...),
	}
}

// NewGivenKeyVerifier verifies tokens whose kid header matches one of keys.
// alg pins the signing method for every key.
func NewGivenKeyVerifier(keys map[string][]byte, alg string, opts ...jwt.ParserOption) TokenVerifier {
	given := make(map[string]keyfunc.GivenKey, len(keys))
	for kid, key := range keys {
		given[kid] = keyfunc.NewGivenCustom(key, keyfunc.GivenKeyOptions{
			Algorithm: alg,
		})
	}

	return &jwtVerifier{
		keyfunc: keyfunc.NewGiven(given).Keyfunc,
		parser:  jwt.NewParser(opts...),
	}
}

// NewJWKSVerifier verifies tokens against a remote JWKS. The returned
// function stops the background refresh.
func NewJWKSVerifier(jwksURL string, refresh time.Duration, opts ...jwt.ParserOption) (TokenVerifier, func(), error) {
	if refresh <= 0 {
		refresh = time.Hour
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   refresh,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, func() {}, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load JWKS")
	}

	v := &jwtVerifier{
		keyfunc: jwks.Keyfunc,
		parser:  jwt.NewParser(opts...),
	}
	return v, jwks.EndBackground, nil
}

// NewUnverifiedDecoder only decodes claims. Use it when the token is opaque
// to this process and verified elsewhere.
func NewUnverifiedDecoder() TokenVerifier {
	parser := jwt.NewParser()
	return TokenVerifierFunc(func(token string) (*Session, error) {
		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			return nil, normalizeTokenError(err)
		}
		return sessionFromClaims(claims)
	})
}

func (v *jwtVerifier) Verify(token string) (*Session, error) {
	claims := jwt.MapClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, v.keyfunc)
	if err != nil {
		return nil, normalizeTokenError(err)
	}
	if !parsed.Valid {
		return nil, normalizeTokenError(errors.New("token is not valid"))
	}
	return sessionFromClaims(claims)
}

func normalizeTokenError(err error) error {
	clone := ErrInvalidSessionToken.Clone()
	if clone == nil {
		return err
	}

	clone.Source = err
	meta := map[string]any{"cause": err.Error()}
	if errors.Is(err, jwt.ErrTokenExpired) {
		meta["expired"] = true
	}
	return clone.WithMetadata(meta)
}

func sessionFromClaims(claims jwt.MapClaims) (*Session, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, normalizeTokenError(err)
	}

	aud, err := claims.GetAudience()
	if err != nil {
		return nil, normalizeTokenError(err)
	}

	iss, err := claims.GetIssuer()
	if err != nil {
		return nil, normalizeTokenError(err)
	}

	session := &Session{
		UserID:   sub,
		Audience: aud,
		Issuer:   iss,
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		session.IssuedAt = &t
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		session.ExpirationDate = &t
	}

	if dat, ok := claims["dat"].(map[string]any); ok {
		session.Data = dat
	}

	return session, nil
}
