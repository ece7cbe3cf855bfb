package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidator(t *testing.T) {
	v, err := NewJWTValidator("s3cret", "focuslink")
	require.NoError(t, err)

	valid, err := NewJWTGenerator("s3cret", "focuslink", time.Hour).GenerateToken("alice", "alice@example.com")
	require.NoError(t, err)
	expired, err := NewJWTGenerator("s3cret", "focuslink", -time.Hour).GenerateToken("alice", "")
	require.NoError(t, err)
	wrongKey, err := NewJWTGenerator("other", "focuslink", time.Hour).GenerateToken("alice", "")
	require.NoError(t, err)
	wrongIssuer, err := NewJWTGenerator("s3cret", "someone-else", time.Hour).GenerateToken("alice", "")
	require.NoError(t, err)
	noSubject, err := NewJWTGenerator("s3cret", "focuslink", time.Hour).GenerateToken("", "")
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "valid with bearer prefix", token: "Bearer " + valid},
		{name: "valid bare", token: valid},
		{name: "empty", token: "  ", wantErr: ErrMissingToken},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
		{name: "wrong key", token: wrongKey, wantErr: ErrInvalidSignature},
		{name: "wrong issuer", token: wrongIssuer, wantErr: ErrInvalidClaims},
		{name: "no subject", token: noSubject, wantErr: ErrInvalidClaims},
		{name: "alg none", token: none, wantErr: ErrInvalidToken},
		{name: "garbage", token: "not.a.jwt", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.ValidateToken(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", claims.Subject)
			assert.Equal(t, "alice@example.com", claims.Email)
		})
	}
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator("", "")
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "alice"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.UserID)
}

func TestKeyedLimiter(t *testing.T) {
	l := NewKeyedLimiter(1, 2)

	assert.True(t, l.Allow("alice"))
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"), "burst exhausted")
	assert.True(t, l.Allow("bob"), "keys are independent")
	assert.Equal(t, time.Second, l.RetryAfter())
}

func TestKeyedLimiter_Cleanup(t *testing.T) {
	l := NewKeyedLimiter(10, 10)
	l.Allow("alice")
	l.Allow("bob")
	require.Equal(t, 2, l.Len())

	l.idleTTL = 0
	time.Sleep(time.Millisecond)
	l.Cleanup()

	assert.Equal(t, 0, l.Len())
}
