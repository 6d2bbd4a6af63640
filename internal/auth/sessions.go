// Package auth issues and verifies dashboard sessions and defines the CSRF
// double-submit contract shared by the server and its HTTP client.
//
// Sign-in itself (magic links from the identity provider) happens elsewhere;
// this package only deals with the session token handed out afterwards.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alfredjeanlab/trellis/internal/idgen"
)

// Issuer is the "iss" claim of every session token.
const Issuer = "trellis"

// ErrInvalidSession is returned for missing, malformed, expired or revoked tokens.
var ErrInvalidSession = errors.New("invalid session")

// Session is a verified, signed-in user.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// Sessions signs and verifies HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	revoked map[string]time.Time // session id -> expiry, pruned lazily
}

// NewSessions returns a session authority. secret must be non-empty.
func NewSessions(secret []byte, ttl time.Duration) (*Sessions, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	return &Sessions{
		secret:  secret,
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}, nil
}

// Issue signs a new session token for userID.
func (s *Sessions) Issue(userID string) (string, Session, error) {
	if userID == "" {
		return "", Session{}, errors.New("user id is required")
	}
	id, err := idgen.SessionID()
	if err != nil {
		return "", Session{}, err
	}
	now := s.now()
	sess := Session{ID: id, UserID: userID, ExpiresAt: now.Add(s.ttl).Truncate(time.Second)}

	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   userID,
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session: %w", err)
	}
	return token, sess, nil
}

// Verify checks the token signature, issuer, expiry and revocation.
func (s *Sessions) Verify(token string) (Session, error) {
	if token == "" {
		return Session{}, fmt.Errorf("%w: token is empty", ErrInvalidSession)
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return Session{}, fmt.Errorf("%w: token lacks subject or id", ErrInvalidSession)
	}

	s.mu.RLock()
	_, revoked := s.revoked[claims.ID]
	s.mu.RUnlock()
	if revoked {
		return Session{}, fmt.Errorf("%w: session revoked", ErrInvalidSession)
	}

	return Session{
		ID:        claims.ID,
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke invalidates a session before its expiry.
func (s *Sessions) Revoke(sess Session) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[sess.ID] = sess.ExpiresAt
}

type sessionKey struct{}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}
