package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/internal/realtime"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"github.com/pasteldream/pastel-backend/pkg/util"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists  = errors.New("user already registered")
	ErrInvalidCredentials  = errors.New("invalid login credentials")
	ErrMissingCredentials  = errors.New("email and password are required")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidLink         = errors.New("email link is invalid or has expired")
	ErrIdentityNotFound    = errors.New("user not found")
)

const (
	refreshTokenBytes = 32
	linkTokenBytes    = 32
	tokenTypeBearer   = "bearer"
)

// Session is what a signed-in client holds.
type Session struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	TokenType    string          `json:"token_type"`
	ExpiresAt    time.Time       `json:"expires_at"`
	ExpiresIn    int64           `json:"expires_in"`
	SessionID    string          `json:"session_id"`
	Identity     *model.Identity `json:"user"`
}

type SignUpResult struct {
	Identity             *model.Identity `json:"user"`
	Session              *Session        `json:"session,omitempty"`
	ConfirmationRequired bool            `json:"confirmation_required"`
}

type AuthSettings struct {
	SigningKey    string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ConfirmEmail  bool
	SiteURL       string
	LinkTTL       time.Duration
	OAuthStateTTL time.Duration
}

func (s *AuthSettings) defaults() {
	if s.AccessTTL <= 0 {
		s.AccessTTL = time.Hour
	}
	if s.RefreshTTL <= 0 {
		s.RefreshTTL = 30 * 24 * time.Hour
	}
	if s.LinkTTL <= 0 {
		s.LinkTTL = 24 * time.Hour
	}
	if s.OAuthStateTTL <= 0 {
		s.OAuthStateTTL = 10 * time.Minute
	}
	s.SiteURL = strings.TrimRight(s.SiteURL, "/")
}

// Mailer delivers confirmation and recovery links.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes outgoing mail to the log.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	logger.Info("Outgoing email", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	return nil
}

// TokenBlacklist remembers access tokens signed out before they expire.
type TokenBlacklist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type AuthRepositories struct {
	Identities  repository.IdentityRepository
	Sessions    repository.AuthSessionRepository
	Tokens      repository.AuthTokenRepository
	OAuthStates repository.OAuthStateRepository
}

type AuthService interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*SignUpResult, error)
	ConfirmEmail(ctx context.Context, token string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	RecoverSession(ctx context.Context, token string) (*Session, error)
	UpdatePassword(ctx context.Context, accessToken, password string) (*model.Identity, error)
	VerifyAccessToken(ctx context.Context, accessToken string) (*util.TokenClaims, error)
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	GetIdentity(ctx context.Context, id string) (*model.Identity, error)
	OAuthURL(ctx context.Context, provider, redirectTo string) (string, error)
	ExchangeOAuth(ctx context.Context, state, code string) (*Session, string, error)
	SessionFromURL(ctx context.Context, query url.Values) (*Session, string, error)
}

type authService struct {
	repos     AuthRepositories
	settings  AuthSettings
	mailer    Mailer
	blacklist TokenBlacklist
	feed      realtime.Feed
	oauth     map[string]*OAuthProvider
	now       func() time.Time
}

type AuthOption func(*authService)

func WithMailer(m Mailer) AuthOption {
	return func(s *authService) { s.mailer = m }
}

func WithBlacklist(b TokenBlacklist) AuthOption {
	return func(s *authService) { s.blacklist = b }
}

func WithAuthFeed(f realtime.Feed) AuthOption {
	return func(s *authService) { s.feed = f }
}

func WithOAuthProvider(p *OAuthProvider) AuthOption {
	return func(s *authService) {
		if p != nil {
			s.oauth[p.Name] = p
		}
	}
}

func withClock(now func() time.Time) AuthOption {
	return func(s *authService) { s.now = now }
}

func NewAuthService(repos AuthRepositories, settings AuthSettings, opts ...AuthOption) AuthService {
	settings.defaults()
	s := &authService{
		repos:    repos,
		settings: settings,
		mailer:   LogMailer{},
		oauth:    map[string]*OAuthProvider{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authService) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*SignUpResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logger.Info("Attempting sign up", map[string]interface{}{
		"email": email,
	})

	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if err := util.CheckPasswordStrength(password); err != nil {
		return nil, err
	}

	existing, err := s.repos.Identities.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		logger.Warn("Sign up failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	identity := &model.Identity{
		Email:        email,
		PasswordHash: hash,
		Provider:     model.ProviderEmail,
		Metadata:     datatypes.JSONMap(metadata),
	}
	if !s.settings.ConfirmEmail {
		now := s.now()
		identity.EmailConfirmedAt = &now
	}
	if err := s.repos.Identities.Create(ctx, identity); err != nil {
		return nil, err
	}

	if s.settings.ConfirmEmail {
		if err := s.sendLink(ctx, identity, model.AuthTokenConfirmation); err != nil {
			return nil, err
		}
		logger.Info("Sign up pending confirmation", map[string]interface{}{
			"identity_id": identity.ID,
		})
		return &SignUpResult{Identity: identity, ConfirmationRequired: true}, nil
	}

	session, err := s.issueSession(ctx, identity)
	if err != nil {
		return nil, err
	}
	logger.Info("User signed up", map[string]interface{}{
		"identity_id": identity.ID,
	})
	return &SignUpResult{Identity: identity, Session: session}, nil
}

func (s *authService) ConfirmEmail(ctx context.Context, token string) (*Session, error) {
	identity, err := s.redeemLink(ctx, model.AuthTokenConfirmation, token)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.repos.Identities.MarkConfirmed(ctx, identity.ID, now); err != nil {
		return nil, err
	}
	identity.EmailConfirmedAt = &now
	return s.issueSession(ctx, identity)
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	logger.Info("Sign in attempt", map[string]interface{}{
		"email": email,
	})

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	identity, err := s.repos.Identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !util.VerifyPassword(identity.PasswordHash, password) {
		logger.Warn("Sign in failed: wrong password", map[string]interface{}{
			"identity_id": identity.ID,
		})
		return nil, ErrInvalidCredentials
	}
	if !identity.Confirmed() {
		return nil, ErrEmailNotConfirmed
	}

	return s.issueSession(ctx, identity)
}

// SignOut revokes the session behind accessToken and blacklists the token
// until it would have expired.
func (s *authService) SignOut(ctx context.Context, accessToken string) error {
	claims, err := util.ValidateToken(accessToken, s.settings.SigningKey)
	if err != nil {
		return err
	}

	if err := s.repos.Sessions.Revoke(ctx, claims.SessionID, s.now()); err != nil {
		return err
	}
	if s.blacklist != nil && claims.ExpiresAt != nil {
		if ttl := claims.ExpiresAt.Sub(s.now()); ttl > 0 {
			if err := s.blacklist.Revoke(ctx, accessToken, ttl); err != nil {
				logger.Warn("Failed to blacklist access token", map[string]interface{}{
					"session_id": claims.SessionID,
					"error":      err.Error(),
				})
			}
		}
	}

	s.publish(ctx, realtime.SignedOut, claims.IdentityID(), claims.SessionID)
	logger.Info("User signed out", map[string]interface{}{
		"identity_id": claims.IdentityID(),
		"session_id":  claims.SessionID,
	})
	return nil
}

// Refresh redeems a refresh token once and returns a new token pair.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	oldHash := util.HashToken(refreshToken)
	row, err := s.repos.Sessions.FindByRefreshHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !row.Active(s.now()) {
		return nil, ErrInvalidRefreshToken
	}

	identity, err := s.repos.Identities.FindByID(ctx, row.IdentityID)
	if err != nil {
		return nil, mapNotFound(err, ErrIdentityNotFound)
	}

	next, err := util.GenerateToken(refreshTokenBytes)
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().Add(s.settings.RefreshTTL)
	if err := s.repos.Sessions.Rotate(ctx, row.ID, oldHash, util.HashToken(next), expiresAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	session, err := s.accessSession(identity, row.ID)
	if err != nil {
		return nil, err
	}
	session.RefreshToken = next

	s.publish(ctx, realtime.TokenRefreshed, identity.ID, row.ID)
	logger.Debug("Session refreshed", map[string]interface{}{
		"identity_id": identity.ID,
		"session_id":  row.ID,
	})
	return session, nil
}

// RequestPasswordReset mails a recovery link. Unknown emails get the same
// silent success.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrMissingCredentials
	}

	identity, err := s.repos.Identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("Password reset requested for unknown email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		return err
	}
	return s.sendLink(ctx, identity, model.AuthTokenRecovery)
}

// RecoverSession signs the user in from a recovery link so they can set a
// new password.
func (s *authService) RecoverSession(ctx context.Context, token string) (*Session, error) {
	identity, err := s.redeemLink(ctx, model.AuthTokenRecovery, token)
	if err != nil {
		return nil, err
	}
	if !identity.Confirmed() {
		// Following a mailed link proves the address.
		now := s.now()
		if err := s.repos.Identities.MarkConfirmed(ctx, identity.ID, now); err != nil {
			return nil, err
		}
		identity.EmailConfirmedAt = &now
	}
	return s.issueSession(ctx, identity)
}

func (s *authService) UpdatePassword(ctx context.Context, accessToken, password string) (*model.Identity, error) {
	claims, err := s.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if err := util.CheckPasswordStrength(password); err != nil {
		return nil, err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Identities.UpdatePassword(ctx, claims.IdentityID(), hash); err != nil {
		return nil, mapNotFound(err, ErrIdentityNotFound)
	}

	identity, err := s.repos.Identities.FindByID(ctx, claims.IdentityID())
	if err != nil {
		return nil, mapNotFound(err, ErrIdentityNotFound)
	}

	s.publish(ctx, realtime.UserUpdated, identity.ID, claims.SessionID)
	logger.Info("Password updated", map[string]interface{}{
		"identity_id": identity.ID,
	})
	return identity, nil
}

// VerifyAccessToken checks the signature, the blacklist and that the
// session behind the token is still active.
func (s *authService) VerifyAccessToken(ctx context.Context, accessToken string) (*util.TokenClaims, error) {
	claims, err := util.ValidateToken(accessToken, s.settings.SigningKey)
	if err != nil {
		return nil, err
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsRevoked(ctx, accessToken)
		if err != nil {
			logger.Warn("Token blacklist unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if revoked {
			return nil, ErrSessionNotFound
		}
	}

	row, err := s.repos.Sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, mapNotFound(err, ErrSessionNotFound)
	}
	if !row.Active(s.now()) || row.IdentityID != claims.IdentityID() {
		return nil, ErrSessionNotFound
	}
	return claims, nil
}

func (s *authService) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := s.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	identity, err := s.GetIdentity(ctx, claims.IdentityID())
	if err != nil {
		return nil, err
	}

	session := &Session{
		AccessToken: accessToken,
		TokenType:   tokenTypeBearer,
		SessionID:   claims.SessionID,
		Identity:    identity,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
		session.ExpiresIn = int64(time.Until(session.ExpiresAt).Seconds())
	}
	return session, nil
}

func (s *authService) GetIdentity(ctx context.Context, id string) (*model.Identity, error) {
	identity, err := s.repos.Identities.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrIdentityNotFound)
	}
	return identity, nil
}

// SessionFromURL resolves the session carried by a redirect back to the
// site: an access token, an OAuth code and state, or an emailed link token.
// The second result is where the client should land afterwards.
func (s *authService) SessionFromURL(ctx context.Context, query url.Values) (*Session, string, error) {
	switch {
	case query.Get("access_token") != "":
		session, err := s.GetSession(ctx, query.Get("access_token"))
		return session, "", err
	case query.Get("code") != "" && query.Get("state") != "":
		return s.ExchangeOAuth(ctx, query.Get("state"), query.Get("code"))
	case query.Get("token") != "":
		switch model.AuthTokenKind(query.Get("type")) {
		case model.AuthTokenRecovery:
			session, err := s.RecoverSession(ctx, query.Get("token"))
			return session, "/update-password", err
		default:
			session, err := s.ConfirmEmail(ctx, query.Get("token"))
			return session, "/", err
		}
	}
	return nil, "", ErrSessionNotFound
}

func (s *authService) issueSession(ctx context.Context, identity *model.Identity) (*Session, error) {
	refresh, err := util.GenerateToken(refreshTokenBytes)
	if err != nil {
		return nil, err
	}

	row := &model.AuthSession{
		IdentityID:       identity.ID,
		RefreshTokenHash: util.HashToken(refresh),
		UserAgent:        userAgentFrom(ctx),
		ExpiresAt:        s.now().Add(s.settings.RefreshTTL),
	}
	if err := s.repos.Sessions.Create(ctx, row); err != nil {
		return nil, err
	}
	if err := s.repos.Identities.TouchSignIn(ctx, identity.ID, s.now()); err != nil {
		logger.Warn("Failed to record sign in time", map[string]interface{}{
			"identity_id": identity.ID,
			"error":       err.Error(),
		})
	}

	session, err := s.accessSession(identity, row.ID)
	if err != nil {
		return nil, err
	}
	session.RefreshToken = refresh

	s.publish(ctx, realtime.SignedIn, identity.ID, row.ID)
	logger.Info("Session issued", map[string]interface{}{
		"identity_id": identity.ID,
		"session_id":  row.ID,
	})
	return session, nil
}

func (s *authService) accessSession(identity *model.Identity, sessionID string) (*Session, error) {
	access, expiresAt, err := util.GenerateAccessToken(identity.ID, identity.Email, sessionID, s.settings.SigningKey, s.settings.AccessTTL)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: access,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   expiresAt,
		ExpiresIn:   int64(s.settings.AccessTTL.Seconds()),
		SessionID:   sessionID,
		Identity:    identity,
	}, nil
}

func (s *authService) sendLink(ctx context.Context, identity *model.Identity, kind model.AuthTokenKind) error {
	token, err := util.GenerateToken(linkTokenBytes)
	if err != nil {
		return err
	}
	row := &model.AuthToken{
		IdentityID: identity.ID,
		Email:      identity.Email,
		Kind:       kind,
		TokenHash:  util.HashToken(token),
		ExpiresAt:  s.now().Add(s.settings.LinkTTL),
	}
	if err := s.repos.Tokens.Create(ctx, row); err != nil {
		return err
	}

	link, subject := s.linkFor(kind, token)
	body := fmt.Sprintf("Follow this link to continue: %s", link)
	if err := s.mailer.Send(ctx, identity.Email, subject, body); err != nil {
		logger.Error("Failed to send email link", err, map[string]interface{}{
			"identity_id": identity.ID,
			"kind":        kind,
		})
		return err
	}
	return nil
}

func (s *authService) linkFor(kind model.AuthTokenKind, token string) (link, subject string) {
	q := url.Values{"type": {string(kind)}, "token": {token}}
	if kind == model.AuthTokenRecovery {
		return s.settings.SiteURL + "/update-password?" + q.Encode(), "Reset your password"
	}
	return s.settings.SiteURL + "/auth/callback?" + q.Encode(), "Confirm your email"
}

func (s *authService) redeemLink(ctx context.Context, kind model.AuthTokenKind, token string) (*model.Identity, error) {
	if token == "" {
		return nil, ErrInvalidLink
	}
	row, err := s.repos.Tokens.FindByHash(ctx, kind, util.HashToken(token))
	if err != nil {
		return nil, mapNotFound(err, ErrInvalidLink)
	}
	if !s.now().Before(row.ExpiresAt) {
		return nil, ErrInvalidLink
	}
	if err := s.repos.Tokens.MarkUsed(ctx, row.ID, s.now()); err != nil {
		return nil, mapNotFound(err, ErrInvalidLink)
	}
	return s.GetIdentity(ctx, row.IdentityID)
}

func (s *authService) publish(ctx context.Context, typ realtime.EventType, identityID, sessionID string) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, realtime.AuthEvent(typ, identityID, sessionID)); err != nil {
		logger.Warn("Failed to publish auth event", map[string]interface{}{
			"type":  typ,
			"error": err.Error(),
		})
	}
}

type userAgentKey struct{}

// WithUserAgent records the client's user agent on sessions issued under ctx.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

func userAgentFrom(ctx context.Context) string {
	ua, _ := ctx.Value(userAgentKey{}).(string)
	if len(ua) > 255 {
		ua = ua[:255]
	}
	return ua
}
