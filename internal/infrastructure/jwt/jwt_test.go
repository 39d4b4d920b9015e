package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate_Success(t *testing.T) {
	s := New("super-secret")
	userID := "6a1f0c0e-0000-4000-8000-000000000001"

	tok, err := s.GenerateJWT(userID, "alice", "alice@example.com", time.Hour)
	require.NoError(t, err, "GenerateJWT should not error")
	require.NotEmpty(t, tok, "token must not be empty")

	claims, err := s.ValidateToken(tok)
	require.NoError(t, err, "ValidateToken should not error for fresh token")
	require.NotNil(t, claims)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, userID, claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.Time.After(time.Now().Add(-1*time.Second)))
}

func TestValidateToken_Table(t *testing.T) {
	type fields struct {
		secret string
	}
	type want struct {
		ok    bool
		err   string
		check func(t *testing.T, c *Claims)
	}

	makeToken := func(secret string, exp time.Duration) string {
		s := New(secret)
		tok, err := s.GenerateJWT("user-42", "bob_the_builder", "bob@example.com", exp)
		require.NoError(t, err)
		return tok
	}

	noneToken := func() string {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-42"})
		str, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		return str
	}

	tests := []struct {
		name   string
		fields fields
		token  string
		want   want
	}{
		{
			name:   "valid token",
			fields: fields{secret: "k1"},
			token:  makeToken("k1", 5*time.Minute),
			want: want{
				ok: true,
				check: func(t *testing.T, c *Claims) {
					assert.Equal(t, "user-42", c.UserID)
					assert.Equal(t, "bob_the_builder", c.Username)
					require.NotNil(t, c.ExpiresAt)
				},
			},
		},
		{
			name:   "invalid secret (signature mismatch)",
			fields: fields{secret: "k2"},
			token:  makeToken("k1", 5*time.Minute),
			want:   want{err: "invalid token"},
		},
		{
			name:   "expired token",
			fields: fields{secret: "k1"},
			token:  makeToken("k1", -1*time.Minute),
			want:   want{err: "invalid token"},
		},
		{
			name:   "alg none is rejected",
			fields: fields{secret: "k1"},
			token:  noneToken(),
			want:   want{err: "invalid token"},
		},
		{
			name:   "malformed token string",
			fields: fields{secret: "k1"},
			token:  "not-a-jwt",
			want:   want{err: "invalid token"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.fields.secret)

			claims, err := s.ValidateToken(tt.token)
			if tt.want.ok {
				require.NoError(t, err)
				require.NotNil(t, claims)
				if tt.want.check != nil {
					tt.want.check(t, claims)
				}
			} else {
				require.Error(t, err)
				assert.EqualError(t, err, tt.want.err)
				assert.Nil(t, claims)
			}
		})
	}
}

func TestValidateToken_MissingUserID(t *testing.T) {
	s := New("k1")
	tok, err := s.GenerateJWT("", "ghost", "ghost@example.com", time.Minute)
	require.NoError(t, err)

	claims, err := s.ValidateToken(tok)
	assert.EqualError(t, err, "invalid claims")
	assert.Nil(t, claims)
}
