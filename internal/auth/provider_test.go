package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatime/portal/internal/apiclient"
	"github.com/curatime/portal/internal/notify"
	"github.com/curatime/portal/internal/session"
)

func signToken(t *testing.T, userID any, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id":    userID,
		"token_type": "access",
		"exp":        expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("api-secret"))
	require.NoError(t, err)
	return token
}

// mockLoginServer serves the three login endpoints for a single known account.
func mockLoginServer(t *testing.T, access string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
			return
		}

		switch r.URL.Path {
		case "/doctor/login/":
			json.NewEncoder(w).Encode(map[string]any{
				"access":     access,
				"refresh":    "refresh-token",
				"doctor_id":  7,
				"first_name": "Amina",
				"last_name":  "Benali",
				"email":      body.Email,
			})
		case "/login/":
			json.NewEncoder(w).Encode(map[string]any{
				"access":     access,
				"refresh":    "refresh-token",
				"user_id":    42,
				"user_role":  "client",
				"first_name": "Karim",
				"last_name":  "Haddad",
				"email":      body.Email,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin_Doctor(t *testing.T) {
	ctx := context.Background()
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	access := signToken(t, 42, expires)
	srv := mockLoginServer(t, access)

	store := session.NewMemoryStore(map[string]string{
		session.KeyToken:       "stale-legacy",
		session.KeyAccessToken: "older-legacy",
	})
	provider := NewProvider(apiclient.New(srv.URL), store, zerolog.Nop())

	identity, err := provider.Login(ctx, LoginRequest{Role: "doctor", Email: "amina@example.com", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, "42", identity.UserID)
	assert.Equal(t, "doctor", identity.Role)
	assert.Equal(t, "7", identity.DoctorID)
	assert.Equal(t, "Amina", identity.FirstName)
	assert.Equal(t, "amina@example.com", identity.Email)
	assert.True(t, identity.ExpiresAt.Equal(expires))
	assert.Equal(t, "/doctor/dashboard", identity.HomeRoute())

	token, err := store.Get(ctx, session.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, access, token)

	for _, legacy := range []string{session.KeyToken, session.KeyAccessToken} {
		_, err := store.Get(ctx, legacy)
		assert.ErrorIs(t, err, session.ErrNotFound, legacy)
	}

	refresh, err := store.Get(ctx, session.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", refresh)

	assert.True(t, provider.Authenticated(ctx))
}

func TestLogin_WrongPasswordKeepsSession(t *testing.T) {
	ctx := context.Background()
	srv := mockLoginServer(t, "unused")
	collector := &notify.Collector{}
	store := session.NewMemoryStore(map[string]string{session.KeyAuthToken: "existing"})
	provider := NewProvider(apiclient.New(srv.URL, apiclient.WithNotifier(collector)), store, zerolog.Nop())

	_, err := provider.Login(ctx, LoginRequest{Role: "client", Email: "karim@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apiclient.ErrUnauthenticated))

	require.Len(t, collector.Items(), 1)
	assert.Equal(t, "Invalid credentials", collector.Items()[0].Message)

	token, _ := store.Get(ctx, session.KeyAuthToken)
	assert.Equal(t, "existing", token)
}

func TestLogin_Validation(t *testing.T) {
	provider := NewProvider(apiclient.New("http://127.0.0.1:1"), session.NewMemoryStore(nil), zerolog.Nop())

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{name: "unknown role", req: LoginRequest{Role: "nurse", Email: "a@example.com", Password: "x"}},
		{name: "bad email", req: LoginRequest{Role: "client", Email: "not-an-email", Password: "x"}},
		{name: "missing password", req: LoginRequest{Role: "admin", Email: "a@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.Login(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidLogin)
		})
	}
}

func TestCurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		provider := NewProvider(apiclient.New(""), session.NewMemoryStore(nil), zerolog.Nop())
		_, err := provider.Current(ctx)
		assert.ErrorIs(t, err, ErrNotAuthenticated)
		assert.False(t, provider.Authenticated(ctx))
	})

	t.Run("legacy token is promoted", func(t *testing.T) {
		legacy := signToken(t, "15", time.Now().Add(time.Hour))
		store := session.NewMemoryStore(map[string]string{
			session.KeyToken:    legacy,
			session.KeyUserType: "doctor",
		})
		provider := NewProvider(apiclient.New(""), store, zerolog.Nop())

		identity, err := provider.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "15", identity.UserID)
		assert.Equal(t, "doctor", identity.Role)

		modern, err := store.Get(ctx, session.KeyAuthToken)
		require.NoError(t, err)
		assert.Equal(t, legacy, modern)
	})

	t.Run("expired token", func(t *testing.T) {
		store := session.NewMemoryStore(map[string]string{
			session.KeyAuthToken: signToken(t, 3, time.Now().Add(-time.Minute)),
		})
		provider := NewProvider(apiclient.New(""), store, zerolog.Nop())

		identity, err := provider.Current(ctx)
		require.NoError(t, err)
		assert.True(t, identity.Expired(time.Now()))
		assert.False(t, provider.Authenticated(ctx))
	})

	t.Run("opaque token", func(t *testing.T) {
		store := session.NewMemoryStore(map[string]string{session.KeyAuthToken: "opaque"})
		provider := NewProvider(apiclient.New(""), store, zerolog.Nop())

		identity, err := provider.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "client", identity.Role)
		assert.False(t, identity.Expired(time.Now()))
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore(map[string]string{
		session.KeyAuthToken:   "a",
		session.KeyToken:       "b",
		session.KeyAccessToken: "c",
		session.KeyUser:        `{"id":"1"}`,
	})
	provider := NewProvider(apiclient.New(""), store, zerolog.Nop())

	require.NoError(t, provider.Logout(ctx))

	_, err := provider.Current(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestFlexibleID(t *testing.T) {
	var v struct {
		A FlexibleID `json:"a"`
		B FlexibleID `json:"b"`
		C FlexibleID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"x-9","c":null}`), &v))
	assert.Equal(t, FlexibleID("12"), v.A)
	assert.Equal(t, FlexibleID("x-9"), v.B)
	assert.Equal(t, FlexibleID(""), v.C)
}
