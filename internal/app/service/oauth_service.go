package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pasteldream/pastel-backend/config"
	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"github.com/pasteldream/pastel-backend/pkg/util"
	"golang.org/x/oauth2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrOAuthProviderDisabled = errors.New("oauth provider is not enabled")
	ErrInvalidOAuthState     = errors.New("oauth state is invalid or has expired")
	ErrOAuthExchange         = errors.New("oauth code exchange failed")
)

// OAuthProvider is an authorization-code provider with a userinfo endpoint.
type OAuthProvider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
}

// NewGoogleProvider builds the Google provider, or nil when it has no credentials.
func NewGoogleProvider(cfg config.OAuthProviderConfig) *OAuthProvider {
	if !cfg.Enabled() {
		return nil
	}
	return &OAuthProvider{
		Name: model.ProviderGoogle,
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		UserInfoURL: cfg.UserInfoURL,
	}
}

type oauthUserInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// OAuthURL starts a PKCE authorization request and returns the provider URL
// to redirect the browser to.
func (s *authService) OAuthURL(ctx context.Context, provider, redirectTo string) (string, error) {
	p, ok := s.oauth[provider]
	if !ok || p == nil {
		return "", ErrOAuthProviderDisabled
	}

	state, err := util.GenerateToken(16)
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()

	if err := s.repos.OAuthStates.Create(ctx, &model.OAuthState{
		State:        state,
		Provider:     provider,
		CodeVerifier: verifier,
		RedirectTo:   redirectTo,
		ExpiresAt:    s.now().Add(s.settings.OAuthStateTTL),
	}); err != nil {
		return "", err
	}

	logger.Debug("OAuth flow started", map[string]interface{}{
		"provider": provider,
	})
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier)), nil
}

// ExchangeOAuth finishes the callback: the state is consumed, the code is
// exchanged with the stored verifier, and the identity is found or created
// by email.
func (s *authService) ExchangeOAuth(ctx context.Context, state, code string) (*Session, string, error) {
	stored, err := s.repos.OAuthStates.Take(ctx, state, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidOAuthState
		}
		return nil, "", err
	}
	p, ok := s.oauth[stored.Provider]
	if !ok || p == nil {
		return nil, "", ErrOAuthProviderDisabled
	}

	token, err := p.Config.Exchange(ctx, code, oauth2.VerifierOption(stored.CodeVerifier))
	if err != nil {
		logger.Warn("OAuth code exchange failed", map[string]interface{}{
			"provider": stored.Provider,
			"error":    err.Error(),
		})
		return nil, "", fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	info, err := fetchUserInfo(ctx, p, token)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	identity, err := s.oauthIdentity(ctx, stored.Provider, info)
	if err != nil {
		return nil, "", err
	}
	session, err := s.issueSession(ctx, identity)
	if err != nil {
		return nil, "", err
	}
	return session, stored.RedirectTo, nil
}

func fetchUserInfo(ctx context.Context, p *OAuthProvider, token *oauth2.Token) (*oauthUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %s", resp.Status)
	}
	var info oauthUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if strings.TrimSpace(info.Email) == "" {
		return nil, errors.New("userinfo has no email")
	}
	return &info, nil
}

func (s *authService) oauthIdentity(ctx context.Context, provider string, info *oauthUserInfo) (*model.Identity, error) {
	identity, err := s.repos.Identities.FindByEmail(ctx, info.Email)
	if err == nil {
		if !identity.Confirmed() {
			now := s.now()
			if err := s.repos.Identities.MarkConfirmed(ctx, identity.ID, now); err != nil {
				return nil, err
			}
			identity.EmailConfirmedAt = &now
		}
		return identity, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.now()
	identity = &model.Identity{
		Email:            info.Email,
		Provider:         provider,
		EmailConfirmedAt: &now,
		Metadata: datatypes.JSONMap{
			"full_name":   info.Name,
			"name":        info.Name,
			"avatar_url":  info.Picture,
			"provider_id": info.Subject,
		},
	}
	if err := s.repos.Identities.Create(ctx, identity); err != nil {
		return nil, err
	}
	logger.Info("Identity created from OAuth", map[string]interface{}{
		"identity_id": identity.ID,
		"provider":    provider,
	})
	return identity, nil
}
