// Package session owns the authentication lifecycle: login, registration,
// token refresh, logout, and cold-start restore. The current session is
// available synchronously to any consumer and every mutation is persisted
// before observers are notified.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/perkloop/perkloop-go/api"
)

// Session is the persisted state of the authenticated principal. The token
// pair is always replaced together; a Session with tokens but no User never
// leaves the store.
type Session struct {
	UID          string    `json:"uid"`
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken"`
	User         *api.User `json:"user"`
	SavedAt      time.Time `json:"saved_at"`
}

// TokenExpiresAt reads the expiry claim out of the access token without
// verifying the signature. Staleness is otherwise only discovered on the
// first authenticated call.
func (s *Session) TokenExpiresAt() (time.Time, bool) {
	if s == nil || s.IDToken == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.IDToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Store is the single owner of session state for an app instance. Login,
// refresh, and logout are serialised by one mutex so concurrent calls cannot
// race token writes.
type Store struct {
	client  *api.Client
	storage Storage
	log     zerolog.Logger

	opMu sync.Mutex // serialises login/refresh/logout

	mu      sync.RWMutex // guards cur, pending, subs
	cur     *Session
	pending string // provisional token while the login saga is in flight
	subs    map[int]chan *Session
	nextSub int
}

// NewStore creates a Store. Callers should Bind the store to the client so
// requests pick up the bearer token and the 401 refresh-retry.
func NewStore(client *api.Client, storage Storage, log zerolog.Logger) *Store {
	return &Store{
		client:  client,
		storage: storage,
		log:     log,
		subs:    make(map[int]chan *Session),
	}
}

// Current returns the active session, or nil when logged out.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// AccessToken implements api.Auth. During the login saga it exposes the
// provisional token so the profile fetch can authenticate.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending != "" {
		return s.pending
	}
	if s.cur != nil {
		return s.cur.IDToken
	}
	return ""
}

// Subscribe registers an observer fed on every session mutation (nil on
// logout). The returned func unsubscribes; slow observers miss updates
// rather than blocking mutations.
func (s *Store) Subscribe() (<-chan *Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan *Session, 4)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// commit installs a new session, persists it, and notifies observers.
// Persistence failures are logged, not fatal: the in-memory session stays
// authoritative for the running process.
func (s *Store) commit(sess *Session) {
	if sess != nil {
		sess.SavedAt = time.Now().UTC()
		if err := s.storage.Save(sess); err != nil {
			s.log.Error().Err(err).Msg("persisting session failed")
		}
	}
	s.mu.Lock()
	s.cur = sess
	s.pending = ""
	for _, ch := range s.subs {
		select {
		case ch <- sess:
		default:
		}
	}
	s.mu.Unlock()
}

// Register submits a registration. Success does not log the user in; the
// caller logs in separately.
func (s *Store) Register(ctx context.Context, payload api.RegisterPayload) error {
	return s.client.RegisterUser(ctx, payload)
}

// Login runs the two-step saga: authenticate, then fetch the nested
// profile. The two calls succeed or fail as one: if the profile fetch
// fails after a token was issued, the token is discarded via a best-effort
// logout and the store is left exactly as it was.
func (s *Store) Login(ctx context.Context, email, password string, role api.Role) (*Session, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	res, err := s.client.LoginUser(ctx, email, password, role)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pending = res.IDToken
	s.mu.Unlock()

	// The non-retrying fetch: a refresh here would block on the operation
	// lock Login already holds, and there is no committed pair to refresh.
	user, err := s.client.GetUserDetailsOnce(ctx, res.UID)
	if err != nil {
		// Compensating action: the issued token must not outlive the
		// half-failed login.
		if lerr := s.client.LogoutUser(ctx, res.UID); lerr != nil {
			s.log.Warn().Err(lerr).Msg("discarding orphaned token failed")
		}
		s.mu.Lock()
		s.pending = ""
		s.mu.Unlock()
		return nil, err
	}

	sess := &Session{
		UID:          res.UID,
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		User:         user,
	}
	s.commit(sess)
	s.log.Info().Str("uid", res.UID).Str("role", string(user.Role)).Msg("logged in")
	return sess, nil
}

// FetchUserDetails re-fetches the nested profile and merges it into the
// current session without re-authenticating.
func (s *Store) FetchUserDetails(ctx context.Context) (*Session, error) {
	cur := s.Current()
	if cur == nil || cur.IDToken == "" {
		return nil, &api.AuthError{Message: "not logged in"}
	}
	user, err := s.client.GetUserDetails(ctx, cur.UID)
	if err != nil {
		return nil, err
	}
	next := *cur
	next.User = user
	s.commit(&next)
	return &next, nil
}

// RefreshToken exchanges the refresh token for a new pair and replaces both
// tokens atomically. On failure the existing pair is left untouched, even
// if already expired; callers see auth failures on their next request.
func (s *Store) RefreshToken(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	cur := s.Current()
	if cur == nil || cur.RefreshToken == "" {
		return &api.AuthError{Message: "no session to refresh"}
	}
	res, err := s.client.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		return err
	}
	next := *cur
	next.IDToken = res.IDToken
	next.RefreshToken = res.RefreshToken
	s.commit(&next)
	s.log.Debug().Str("uid", next.UID).Msg("token pair refreshed")
	return nil
}

// Logout notifies the backend, then clears persisted and in-memory state
// unconditionally. Logout is locally effective even when offline.
func (s *Store) Logout(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	cur := s.Current()
	if cur == nil {
		return nil
	}
	if err := s.client.LogoutUser(ctx, cur.UID); err != nil {
		s.log.Warn().Err(err).Msg("backend logout failed, clearing local session anyway")
	}
	if err := s.storage.Clear(); err != nil {
		s.log.Error().Err(err).Msg("clearing persisted session failed")
	}
	s.commit(nil)
	return nil
}

// LoadUser restores the session from storage at cold start. The token's
// freshness is not checked here.
func (s *Store) LoadUser() (*Session, error) {
	sess, err := s.storage.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	s.mu.Lock()
	s.cur = sess
	s.mu.Unlock()
	return sess, nil
}

// Reset clears in-memory and persisted state without a backend call. Test
// isolation hook.
func (s *Store) Reset() {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	_ = s.storage.Clear()
	s.commit(nil)
}
