package backend

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMinterMint(t *testing.T) {
	key := []byte("test-key")
	minter := NewTokenMinter(key, "go-signup", time.Hour)
	now := time.Now().Truncate(time.Second)
	minter.now = func() time.Time { return now }

	user := &User{ID: uuid.New(), Username: "alice", Email: "a@example.com"}

	token, expiresAt, err := minter.Mint(user)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "go-signup", claims.Issuer)
	assert.Equal(t, "alice", claims.Data["username"])
	assert.Equal(t, "a@example.com", claims.Data["email"])
}

func TestTokenMinterRequiresKeyAndUser(t *testing.T) {
	_, _, err := NewTokenMinter(nil, "", 0).Mint(&User{})
	assert.Error(t, err)

	_, _, err = NewTokenMinter([]byte("k"), "", 0).Mint(nil)
	assert.Error(t, err)
}
