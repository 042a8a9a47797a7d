package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/internal/realtime"
	"github.com/pasteldream/pastel-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type sentMail struct {
	to, subject, body string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// lastToken pulls the token query parameter out of the last mailed link.
func (m *captureMailer) lastToken(t *testing.T) (kind, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	body := m.sent[len(m.sent)-1].body
	link := body[strings.Index(body, "http"):]
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("type"), u.Query().Get("token")
}

type memoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (b *memoryBlacklist) Revoke(_ context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = ttl
	return nil
}

func (b *memoryBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.revoked[token]
	return ok, nil
}

type authFixture struct {
	env       *testEnv
	auth      AuthService
	mailer    *captureMailer
	blacklist *memoryBlacklist
}

func setupAuthServiceTest(t *testing.T, settings AuthSettings, opts ...AuthOption) *authFixture {
	env := setupServiceTest(t)
	mailer := &captureMailer{}
	blacklist := &memoryBlacklist{revoked: map[string]time.Duration{}}

	if settings.SigningKey == "" {
		settings.SigningKey = "test-signing-key"
	}
	settings.SiteURL = "http://shop.test/"

	opts = append([]AuthOption{WithMailer(mailer), WithBlacklist(blacklist), WithAuthFeed(env.feed)}, opts...)
	auth := NewAuthService(AuthRepositories{
		Identities:  repository.NewIdentityRepository(env.db),
		Sessions:    repository.NewAuthSessionRepository(env.db),
		Tokens:      repository.NewAuthTokenRepository(env.db),
		OAuthStates: repository.NewOAuthStateRepository(env.db),
	}, settings, opts...)

	return &authFixture{env: env, auth: auth, mailer: mailer, blacklist: blacklist}
}

func TestAuthService_SignUpAndSignIn(t *testing.T) {
	f := setupAuthServiceTest(t, AuthSettings{})
	ctx := context.Background()
	signedIn := f.env.collect(t, realtime.Filter{Channel: realtime.ChannelAuth, Type: realtime.SignedIn})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "Valid sign up", email: "Mina@Example.com", password: "secret123"},
		{name: "Duplicate email", email: "mina@example.com", password: "secret123", wantErr: ErrEmailAlreadyExists},
		{name: "Short password", email: "x@example.com", password: "123", wantErr: util.ErrPasswordTooShort},
		{name: "Missing email", email: "", password: "secret123", wantErr: ErrMissingCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.auth.SignUp(ctx, tt.email, tt.password, map[string]interface{}{"full_name": "Mina Kim"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, result.ConfirmationRequired)
			require.NotNil(t, result.Session)
			assert.NotEmpty(t, result.Session.AccessToken)
			assert.NotEmpty(t, result.Session.RefreshToken)
			assert.Equal(t, "mina@example.com", result.Identity.Email)
		})
	}

	session, err := f.auth.SignIn(ctx, "MINA@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Mina Kim", session.Identity.DisplayName())

	_, err = f.auth.SignIn(ctx, "mina@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.SignIn(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Len(t, *signedIn, 2)

	claims, err := f.auth.VerifyAccessToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.Identity.ID, claims.IdentityID())
	assert.Equal(t, session.SessionID, claims.SessionID)
}

func TestAuthService_ConfirmEmail(t *testing.T) {
	f := setupAuthServiceTest(t, AuthSettings{ConfirmEmail: true})
	ctx := context.Background()

	result, err := f.auth.SignUp(ctx, "ari@example.com", "secret123", nil)
	require.NoError(t, err)
	assert.True(t, result.ConfirmationRequired)
	assert.Nil(t, result.Session)

	_, err = f.auth.SignIn(ctx, "ari@example.com", "secret123")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)

	require.Len(t, f.mailer.sent, 1)
	assert.Contains(t, f.mailer.sent[0].body, "http://shop.test/auth/callback?")
	kind, token := f.mailer.lastToken(t)
	assert.Equal(t, "confirmation", kind)

	session, redirect, err := f.auth.SessionFromURL(ctx, url.Values{"type": {kind}, "token": {token}})
	require.NoError(t, err)
	assert.Equal(t, "/", redirect)
	assert.True(t, session.Identity.Confirmed())

	_, err = f.auth.ConfirmEmail(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidLink, "links are single use")

	_, err = f.auth.SignIn(ctx, "ari@example.com", "secret123")
	require.NoError(t, err)
}

func TestAuthService_Refresh(t *testing.T) {
	f := setupAuthServiceTest(t, AuthSettings{})
	ctx := context.Background()
	refreshed := f.env.collect(t, realtime.Filter{Channel: realtime.ChannelAuth, Type: realtime.TokenRefreshed})

	result, err := f.auth.SignUp(ctx, "a@example.com", "secret123", nil)
	require.NoError(t, err)
	first := result.Session

	next, err := f.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, next.SessionID)
	assert.NotEqual(t, first.RefreshToken, next.RefreshToken)
	assert.Len(t, *refreshed, 1)

	_, err = f.auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "a refresh token is redeemed once")
	_, err = f.auth.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_SignOut(t *testing.T) {
	f := setupAuthServiceTest(t, AuthSettings{})
	ctx := context.Background()
	signedOut := f.env.collect(t, realtime.Filter{Channel: realtime.ChannelAuth, Type: realtime.SignedOut})

	result, err := f.auth.SignUp(ctx, "a@example.com", "secret123", nil)
	require.NoError(t, err)
	session := result.Session

	require.NoError(t, f.auth.SignOut(ctx, session.AccessToken))

	require.Len(t, *signedOut, 1)
	assert.Equal(t, session.SessionID, (*signedOut)[0].SessionID)
	assert.Equal(t, session.Identity.ID, (*signedOut)[0].UserID)

	assert.Contains(t, f.blacklist.revoked, session.AccessToken)
	_, err = f.auth.VerifyAccessToken(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.auth.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_PasswordRecovery(t *testing.T) {
	f := setupAuthServiceTest(t, AuthSettings{})
	ctx := context.Background()
	updated := f.env.collect(t, realtime.Filter{Channel: realtime.ChannelAuth, Type: realtime.UserUpdated})

	_, err := f.auth.SignUp(ctx, "a@example.com", "secret123", nil)
	require.NoError(t, err)

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, f.mailer.sent, "unknown emails get no mail")

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "A@example.com"))
	require.Len(t, f.mailer.sent, 1)
	assert.Contains(t, f.mailer.sent[0].body, "http://shop.test/update-password?")
	_, token := f.mailer.lastToken(t)

	session, redirect, err := f.auth.SessionFromURL(ctx, url.Values{"type": {"recovery"}, "token": {token}})
	require.NoError(t, err)
	assert.Equal(t, "/update-password", redirect)

	_, err = f.auth.UpdatePassword(ctx, session.AccessToken, "12")
	assert.ErrorIs(t, err, util.ErrPasswordTooShort)

	identity, err := f.auth.UpdatePassword(ctx, session.AccessToken, "new-secret")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", identity.Email)
	assert.Len(t, *updated, 1)

	_, err = f.auth.SignIn(ctx, "a@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.SignIn(ctx, "a@example.com", "new-secret")
	require.NoError(t, err)

	_, err = f.auth.RecoverSession(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestAuthService_ExpiredLink(t *testing.T) {
	clock := time.Now()
	f := setupAuthServiceTest(t, AuthSettings{LinkTTL: time.Minute}, withClock(func() time.Time { return clock }))
	ctx := context.Background()

	_, err := f.auth.SignUp(ctx, "a@example.com", "secret123", nil)
	require.NoError(t, err)
	require.NoError(t, f.auth.RequestPasswordReset(ctx, "a@example.com"))
	_, token := f.mailer.lastToken(t)

	clock = clock.Add(2 * time.Minute)
	_, err = f.auth.RecoverSession(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func newOAuthServer(t *testing.T, email, name string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Form.Get("code") != "good-code" || r.Form.Get("code_verifier") == "" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "provider-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"sub":            "google-123",
			"email":          email,
			"email_verified": true,
			"name":           name,
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAuthService_OAuth(t *testing.T) {
	server := newOAuthServer(t, "mina@gmail.com", "Mina Kim")
	provider := &OAuthProvider{
		Name: model.ProviderGoogle,
		Config: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  "http://api.test/api/v1/auth/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:  server.URL + "/auth",
				TokenURL: server.URL + "/token",
			},
		},
		UserInfoURL: server.URL + "/userinfo",
	}
	f := setupAuthServiceTest(t, AuthSettings{}, WithOAuthProvider(provider))
	ctx := context.Background()

	_, err := f.auth.OAuthURL(ctx, "github", "/")
	assert.ErrorIs(t, err, ErrOAuthProviderDisabled)

	authURL, err := f.auth.OAuthURL(ctx, model.ProviderGoogle, "/profile")
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "S256", u.Query().Get("code_challenge_method"))
	assert.NotEmpty(t, u.Query().Get("code_challenge"))
	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	session, redirect, err := f.auth.SessionFromURL(ctx, url.Values{"code": {"good-code"}, "state": {state}})
	require.NoError(t, err)
	assert.Equal(t, "/profile", redirect)
	assert.Equal(t, "mina@gmail.com", session.Identity.Email)
	assert.Equal(t, model.ProviderGoogle, session.Identity.Provider)
	assert.Equal(t, "Mina Kim", session.Identity.DisplayName())
	assert.True(t, session.Identity.Confirmed())

	_, _, err = f.auth.ExchangeOAuth(ctx, state, "good-code")
	assert.ErrorIs(t, err, ErrInvalidOAuthState, "state is consumed")

	// A second sign-in reuses the identity.
	authURL, err = f.auth.OAuthURL(ctx, model.ProviderGoogle, "")
	require.NoError(t, err)
	u, _ = url.Parse(authURL)
	again, _, err := f.auth.ExchangeOAuth(ctx, u.Query().Get("state"), "good-code")
	require.NoError(t, err)
	assert.Equal(t, session.Identity.ID, again.Identity.ID)

	authURL, err = f.auth.OAuthURL(ctx, model.ProviderGoogle, "")
	require.NoError(t, err)
	u, _ = url.Parse(authURL)
	_, _, err = f.auth.ExchangeOAuth(ctx, u.Query().Get("state"), "bad-code")
	assert.ErrorIs(t, err, ErrOAuthExchange)
}

func TestAuthService_GetSession(t *testing.T) {
	f := setupAuthServiceTest(t, AuthSettings{AccessTTL: time.Hour})
	ctx := context.Background()

	result, err := f.auth.SignUp(ctx, "a@example.com", "secret123", nil)
	require.NoError(t, err)

	session, _, err := f.auth.SessionFromURL(ctx, url.Values{"access_token": {result.Session.AccessToken}})
	require.NoError(t, err)
	assert.Equal(t, result.Session.SessionID, session.SessionID)
	assert.Empty(t, session.RefreshToken)
	assert.WithinDuration(t, result.Session.ExpiresAt, session.ExpiresAt, time.Second)

	_, _, err = f.auth.SessionFromURL(ctx, url.Values{})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.auth.GetSession(ctx, "garbage")
	assert.Error(t, err)
}
