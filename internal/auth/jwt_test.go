package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-0123456789"

func TestJWTManager_GenerateValidate(t *testing.T) {
	m := NewJWTManager(secret, time.Hour)

	token, err := m.Generate("owner-1")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.OwnerID)
	assert.Equal(t, "owner-1", claims.Subject)
}

func TestJWTManager_GenerateRequiresOwner(t *testing.T) {
	_, err := NewJWTManager(secret, time.Hour).Generate("  ")
	assert.Error(t, err)
}

func TestJWTManager_Validate_Errors(t *testing.T) {
	m := NewJWTManager(secret, time.Hour)
	good, err := m.Generate("owner-1")
	require.NoError(t, err)

	expired := NewJWTManager(secret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Generate("owner-1")
	require.NoError(t, err)

	otherKey, err := NewJWTManager("another-secret-0123456", time.Hour).Generate("owner-1")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{OwnerID: "owner-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"tampered", good + "x", ErrInvalidToken},
		{"expired", old, ErrInvalidToken},
		{"wrong key", otherKey, ErrInvalidToken},
		{"alg none", unsigned, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Validate(tt.token)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc ": "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, BearerToken(r), "header %q", header)
	}
}

func TestMiddleware(t *testing.T) {
	m := NewJWTManager(secret, time.Hour)
	token, err := m.Generate("owner-42")
	require.NoError(t, err)

	var gotOwner string
	var gotErr error
	h := m.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner = OwnerFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/bills", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-42", gotOwner)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bills", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.ErrorIs(t, gotErr, ErrMissingToken)
}
