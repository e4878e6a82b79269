package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("Abcdef1!")
	require.NoError(t, err)

	assert.NotEqual(t, "Abcdef1!", hash)
	assert.True(t, h.Verify("Abcdef1!", hash))
	assert.False(t, h.Verify("Abcdef1?", hash))
}

func TestPasswordHasher_SaltedPerCall(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same-password", a))
	assert.True(t, h.Verify("same-password", b))
}

func TestPasswordHasher_MalformedHashIsMismatch(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("anything", ""))
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewPasswordHasher(12).cost)
}

func TestCheckPasswordPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"valid", "Abcdef1!", nil},
		{"valid with space", "Abc def1!", nil},
		{"too short", "Ab1!", ErrPasswordTooShort},
		{"too long", "Aa1!" + strings.Repeat("x", 61), ErrPasswordTooLong},
		{"exactly 64", "Aa1!" + strings.Repeat("x", 60), nil},
		{"64 runes over 72 bytes", "Aa1!" + strings.Repeat("é", 60), ErrPasswordTooLarge},
		{"exactly 72 bytes", "Aa1!" + strings.Repeat("é", 34), nil},
		{"no uppercase", "abcdef1!", ErrPasswordTooWeak},
		{"no lowercase", "ABCDEF1!", ErrPasswordTooWeak},
		{"no digit", "Abcdefg!", ErrPasswordTooWeak},
		{"no special", "Abcdefg1", ErrPasswordTooWeak},
		{"underscore is not special", "Abcdef1_", ErrPasswordTooWeak},
		{"whitespace is not special", "Abcdef1 ", ErrPasswordTooWeak},
		{"non-ascii letter counts as special", "Abcdef1é", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPasswordPolicy(tt.password)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func newTestManager(now time.Time) *TokenManager {
	m := NewTokenManager("test-secret", time.Hour)
	m.now = func() time.Time { return now }
	return m
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	t.Parallel()

	now := time.Now().Truncate(time.Second)
	m := newTestManager(now)

	tok, exp, err := m.Issue("user-1", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
}

func TestTokenManager_DefaultTTL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultSessionTTL, NewTokenManager("s", 0).TTL())
	assert.Equal(t, 7*24*time.Hour, DefaultSessionTTL)
}

func TestTokenManager_VerifyFailures(t *testing.T) {
	t.Parallel()

	now := time.Now()
	m := newTestManager(now)
	tok, _, err := m.Issue("user-1", "a@x.com")
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := m.Verify("")
		assert.ErrorIs(t, err, ErrTokenMissing)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := m.Verify("not.a.jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other-secret", time.Hour)
		_, err := other.Verify(tok)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		later := newTestManager(now.Add(2 * time.Hour))
		_, err := later.Verify(tok)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("alg none rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			UserID:           "user-1",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Verify(s)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("no expiry", func(t *testing.T) {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1"}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = m.Verify(s)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("no user id", func(t *testing.T) {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = m.Verify(s)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestIsAuthenticated(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok, _, err := newTestManager(now).Issue("user-1", "a@x.com")
	require.NoError(t, err)

	assert.True(t, IsAuthenticated(tok, now))
	assert.False(t, IsAuthenticated(tok, now.Add(2*time.Hour)))
	assert.False(t, IsAuthenticated("", now))
	assert.False(t, IsAuthenticated("garbage", now))
}

func TestNewResetToken(t *testing.T) {
	t.Parallel()

	a, err := NewResetToken()
	require.NoError(t, err)
	b, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, a, 2*ResetTokenBytes)
	assert.Regexp(t, "^[0-9a-f]+$", a)
	assert.NotEqual(t, a, b)
}

func TestSession(t *testing.T) {
	t.Parallel()

	t.Run("absent is anonymous", func(t *testing.T) {
		s := SessionFrom(context.Background())
		assert.True(t, s.IsAnonymous())
		assert.ErrorIs(t, s.Reason(), ErrTokenMissing)
		_, ok := s.Identity()
		assert.False(t, ok)
	})

	t.Run("anonymous keeps reason", func(t *testing.T) {
		ctx := WithSession(context.Background(), Anonymous(ErrTokenExpired))
		s := SessionFrom(ctx)
		assert.True(t, s.IsAnonymous())
		assert.ErrorIs(t, s.Reason(), ErrTokenExpired)
	})

	t.Run("authenticated from claims", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		claims := &Claims{
			UserID:           "user-1",
			Email:            "a@x.com",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		}
		s := SessionFrom(WithSession(context.Background(), SessionFromClaims(claims)))

		id, ok := s.Identity()
		require.True(t, ok)
		assert.False(t, s.IsAnonymous())
		assert.NoError(t, s.Reason())
		assert.Equal(t, Identity{UserID: "user-1", Email: "a@x.com", ExpiresAt: exp}, id)
	})
}
