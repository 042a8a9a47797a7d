// Package session tracks who is signed in for one client connection and
// broadcasts every change to subscribers.
package session

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/pasteldream/pastel-backend/internal/realtime"
	"github.com/pasteldream/pastel-backend/pkg/logger"
)

type State int

const (
	Unknown State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrNotSignedIn     = errors.New("no user is signed in")
	ErrNoRefreshToken  = errors.New("session has no refresh token")
	ErrProviderClosed  = errors.New("session provider is closed")
	ErrMissingEmail    = errors.New("email is required")
	ErrMissingPassword = errors.New("password is required")
)

const (
	defaultRefreshMargin = time.Minute
	adminCheckTimeout    = 10 * time.Second
)

// Snapshot is the provider state at one point in time. AdminResolved is
// false while the admin check for the current identity is in flight, and
// IsAdmin stays false until it completes.
type Snapshot struct {
	State         State            `json:"state"`
	Identity      *model.Identity  `json:"user,omitempty"`
	Session       *service.Session `json:"-"`
	IsAdmin       bool             `json:"is_admin"`
	AdminResolved bool             `json:"admin_resolved"`
}

// UserID is empty unless the snapshot is Authenticated.
func (s Snapshot) UserID() string {
	if s.State != Authenticated || s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}

type Listener func(Snapshot)

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type Provider struct {
	auth          service.AuthService
	admins        AdminChecker
	feed          realtime.Feed
	refreshMargin time.Duration

	mu        sync.Mutex
	snap      Snapshot
	adminGen  uint64
	listeners map[uint64]Listener
	nextID    uint64
	authSub   realtime.Subscription
	timer     *time.Timer
	closed    bool
	pending   sync.WaitGroup
}

type Option func(*Provider)

// WithRefreshMargin sets how long before expiry the access token is refreshed.
func WithRefreshMargin(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.refreshMargin = d
		}
	}
}

// New returns a provider in the Unknown state. feed may be nil, in which
// case out-of-band auth events are not observed.
func New(auth service.AuthService, admins AdminChecker, feed realtime.Feed, opts ...Option) *Provider {
	p := &Provider{
		auth:          auth,
		admins:        admins,
		feed:          feed,
		refreshMargin: defaultRefreshMargin,
		listeners:     make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(p)
	}

	if feed != nil {
		sub, err := feed.Subscribe(realtime.Filter{Channel: realtime.ChannelAuth}, p.onAuthEvent)
		if err != nil {
			logger.Warn("Session provider could not follow auth events", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			p.authSub = sub
		}
	}
	return p
}

func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Subscribe registers fn for every later change and returns the function
// that removes it. fn runs outside the provider lock.
func (p *Provider) Subscribe(fn Listener) (unsubscribe func()) {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Load resolves the initial state from an access token. An empty or
// rejected token leaves the provider Anonymous.
func (p *Provider) Load(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		p.clear()
		return nil
	}
	session, err := p.auth.GetSession(ctx, accessToken)
	if err != nil {
		p.clear()
		return err
	}
	p.setSession(session, true)
	return nil
}

// Resume restores a full session, refresh token included, that the client
// kept from an earlier connection.
func (p *Provider) Resume(ctx context.Context, accessToken, refreshToken string) error {
	if err := p.Load(ctx, accessToken); err != nil {
		if refreshToken == "" {
			return err
		}
		session, rerr := p.auth.Refresh(ctx, refreshToken)
		if rerr != nil {
			return rerr
		}
		p.setSession(session, true)
		return nil
	}
	if refreshToken != "" {
		p.mu.Lock()
		if p.snap.Session != nil {
			s := *p.snap.Session
			s.RefreshToken = refreshToken
			p.snap.Session = &s
			p.scheduleRefreshLocked()
		}
		p.mu.Unlock()
	}
	return nil
}

// LoadFromURL completes a redirect back from an email link or OAuth
// provider and returns where the client should go next.
func (p *Provider) LoadFromURL(ctx context.Context, query url.Values) (string, error) {
	session, redirect, err := p.auth.SessionFromURL(ctx, query)
	if err != nil {
		return "", err
	}
	p.setSession(session, true)
	return redirect, nil
}

// SignUp registers a password identity. When email confirmation is on the
// result has no session and the provider state does not change.
func (p *Provider) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*service.SignUpResult, error) {
	if err := requireCredentials(email, password); err != nil {
		return nil, err
	}
	result, err := p.auth.SignUp(ctx, email, password, metadata)
	if err != nil {
		return nil, err
	}
	if result.Session != nil {
		p.setSession(result.Session, true)
	}
	return result, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*service.Session, error) {
	if err := requireCredentials(email, password); err != nil {
		return nil, err
	}
	session, err := p.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	p.setSession(session, true)
	return session, nil
}

// SignInWithOAuth returns the provider URL to send the browser to.
func (p *Provider) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	return p.auth.OAuthURL(ctx, provider, redirectTo)
}

func (p *Provider) CompleteOAuth(ctx context.Context, state, code string) (string, error) {
	session, redirect, err := p.auth.ExchangeOAuth(ctx, state, code)
	if err != nil {
		return "", err
	}
	p.setSession(session, true)
	return redirect, nil
}

// SignOut ends the session on the backend and always clears local state.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	session := p.snap.Session
	p.mu.Unlock()

	var err error
	if session != nil {
		err = p.auth.SignOut(ctx, session.AccessToken)
		if err != nil {
			logger.Warn("Backend sign out failed; clearing local session", map[string]interface{}{
				"session_id": session.SessionID,
				"error":      err.Error(),
			})
		}
	}
	p.clear()
	return err
}

func (p *Provider) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingEmail
	}
	return p.auth.RequestPasswordReset(ctx, email)
}

// UpdatePassword sets a new password for the signed-in identity, typically
// right after a recovery link.
func (p *Provider) UpdatePassword(ctx context.Context, password string) error {
	if password == "" {
		return ErrMissingPassword
	}
	p.mu.Lock()
	session := p.snap.Session
	p.mu.Unlock()
	if session == nil {
		return ErrNotSignedIn
	}

	identity, err := p.auth.UpdatePassword(ctx, session.AccessToken, password)
	if err != nil {
		return err
	}
	p.updateIdentity(session.SessionID, identity)
	return nil
}

// Refresh exchanges the refresh token for a new token pair.
func (p *Provider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProviderClosed
	}
	session := p.snap.Session
	p.mu.Unlock()
	if session == nil {
		return ErrNotSignedIn
	}
	if session.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	next, err := p.auth.Refresh(ctx, session.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			p.clearSession(session.SessionID)
		}
		return err
	}

	p.mu.Lock()
	current := p.snap.Session
	p.mu.Unlock()
	if current == nil || current.SessionID != session.SessionID {
		return nil
	}
	p.setSession(next, false)
	return nil
}

// Close stops the refresh timer and auth event subscription and drops all
// subscribers. It waits for an in-flight admin check.
func (p *Provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.adminGen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	sub := p.authSub
	p.authSub = nil
	p.listeners = make(map[uint64]Listener)
	p.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Unsubscribe()
	}
	p.pending.Wait()
	return err
}

// setSession moves to Authenticated. signIn restarts the admin check, which
// a same-identity token refresh does not.
func (p *Provider) setSession(session *service.Session, signIn bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	previous := p.snap.UserID()
	p.snap.State = Authenticated
	p.snap.Session = session
	p.snap.Identity = session.Identity

	resolve := signIn || previous != session.Identity.ID
	var gen uint64
	if resolve {
		p.adminGen++
		gen = p.adminGen
		p.snap.IsAdmin = false
		p.snap.AdminResolved = false
		p.pending.Add(1)
	}
	p.scheduleRefreshLocked()
	snap, listeners := p.snap, p.listenersLocked()
	p.mu.Unlock()

	notify(listeners, snap)
	if resolve {
		go p.resolveAdmin(gen, session.Identity.ID)
	}
}

func (p *Provider) resolveAdmin(gen uint64, userID string) {
	defer p.pending.Done()

	ctx, cancel := context.WithTimeout(context.Background(), adminCheckTimeout)
	defer cancel()
	isAdmin, err := p.admins.IsAdmin(ctx, userID)
	if err != nil {
		logger.Warn("Admin check failed; treating user as non-admin", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		isAdmin = false
	}

	p.mu.Lock()
	if p.closed || gen != p.adminGen {
		p.mu.Unlock()
		return
	}
	p.snap.IsAdmin = isAdmin
	p.snap.AdminResolved = true
	snap, listeners := p.snap, p.listenersLocked()
	p.mu.Unlock()

	notify(listeners, snap)
}

func (p *Provider) clear() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.adminGen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	changed := p.snap.State != Anonymous
	p.snap = Snapshot{State: Anonymous, AdminResolved: true}
	snap, listeners := p.snap, p.listenersLocked()
	p.mu.Unlock()

	if changed {
		notify(listeners, snap)
	}
}

// clearSession clears state only if sessionID is still the one held.
func (p *Provider) clearSession(sessionID string) {
	p.mu.Lock()
	held := p.snap.Session != nil && p.snap.Session.SessionID == sessionID
	p.mu.Unlock()
	if held {
		p.clear()
	}
}

func (p *Provider) updateIdentity(sessionID string, identity *model.Identity) {
	p.mu.Lock()
	if p.closed || p.snap.Session == nil || p.snap.Session.SessionID != sessionID || identity == nil {
		p.mu.Unlock()
		return
	}
	s := *p.snap.Session
	s.Identity = identity
	p.snap.Session = &s
	p.snap.Identity = identity
	snap, listeners := p.snap, p.listenersLocked()
	p.mu.Unlock()

	notify(listeners, snap)
}

// onAuthEvent runs on the feed's delivery goroutine.
func (p *Provider) onAuthEvent(e realtime.Event) {
	p.mu.Lock()
	session := p.snap.Session
	p.mu.Unlock()
	if session == nil || e.UserID != session.Identity.ID {
		return
	}

	switch e.Type {
	case realtime.SignedOut:
		if e.SessionID == session.SessionID {
			logger.Info("Session signed out elsewhere", map[string]interface{}{
				"session_id": session.SessionID,
			})
			p.clear()
		}
	case realtime.UserUpdated:
		if e.SessionID == session.SessionID {
			return
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		p.pending.Add(1)
		p.mu.Unlock()
		go func() {
			defer p.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), adminCheckTimeout)
			defer cancel()
			identity, err := p.auth.GetIdentity(ctx, e.UserID)
			if err != nil {
				logger.Warn("Failed to reload updated identity", map[string]interface{}{
					"user_id": e.UserID,
					"error":   err.Error(),
				})
				return
			}
			p.updateIdentity(session.SessionID, identity)
		}()
	}
}

// scheduleRefreshLocked arms the refresh timer for the held session.
func (p *Provider) scheduleRefreshLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	session := p.snap.Session
	if session == nil || session.RefreshToken == "" || session.ExpiresAt.IsZero() {
		return
	}

	wait := time.Until(session.ExpiresAt) - p.refreshMargin
	if wait < 0 {
		wait = 0
	}
	sessionID, token := session.SessionID, session.RefreshToken
	p.timer = time.AfterFunc(wait, func() {
		p.mu.Lock()
		current := p.snap.Session
		stale := p.closed || current == nil || current.SessionID != sessionID || current.RefreshToken != token
		p.mu.Unlock()
		if stale {
			return
		}
		if err := p.Refresh(context.Background()); err != nil {
			logger.Warn("Automatic session refresh failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	})
}

func (p *Provider) listenersLocked() []Listener {
	out := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, snap Snapshot) {
	for _, l := range listeners {
		l(snap)
	}
}

func requireCredentials(email, password string) error {
	if email == "" {
		return ErrMissingEmail
	}
	if password == "" {
		return ErrMissingPassword
	}
	return nil
}
