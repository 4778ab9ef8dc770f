package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestValidator(t *testing.T) {
	v, err := NewValidator(secret, "mesh")
	require.NoError(t, err)

	valid, err := Sign(secret, "mesh", "user-1", time.Hour)
	require.NoError(t, err)
	expired, err := Sign(secret, "mesh", "user-1", -time.Hour)
	require.NoError(t, err)
	otherKey, err := Sign("other", "mesh", "user-1", time.Hour)
	require.NoError(t, err)
	otherIssuer, err := Sign(secret, "someone", "user-1", time.Hour)
	require.NoError(t, err)
	noSubject, err := Sign(secret, "mesh", "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid", valid, nil},
		{"bearer prefix", "Bearer " + valid, nil},
		{"missing", "  ", ErrMissingToken},
		{"expired", expired, ErrExpiredToken},
		{"wrong key", otherKey, ErrInvalidSignature},
		{"wrong issuer", otherIssuer, ErrInvalidClaims},
		{"no subject", noSubject, ErrInvalidClaims},
		{"garbage", "abc.def.ghi", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.Validate(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.Subject)
		})
	}
}

func TestValidator_RejectsOtherAlgorithms(t *testing.T) {
	v, err := NewValidator(secret, "")
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u"},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewValidator_NeedsSecret(t *testing.T) {
	_, err := NewValidator("", "")
	assert.Error(t, err)
}

func TestClaimsContext(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}
	ctx := WithClaims(context.Background(), c)

	got, ok := ClaimsFrom(ctx)
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = ClaimsFrom(context.Background())
	assert.False(t, ok)
}
