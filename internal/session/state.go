// Package session holds the console user's identity, derived from the bearer
// token returned by the backend login and persisted per browser.
package session

import (
	"context"

	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
)

type Session struct {
	Token         string
	InstitutionID string
	Role          string
	UserID        string
}

// State is the session of one browser, bound to its Storage.
type State struct {
	store   Storage
	current *Session
}

func New(store Storage) *State {
	return &State{store: store}
}

func (s *State) Current() *Session {
	if s == nil || s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Login makes raw the active token. A token whose payload cannot be read or
// lacks a required claim leaves no session behind and reports false; it is
// never an error for the caller.
func (s *State) Login(ctx context.Context, raw string) bool {
	l := logging.FromContext(ctx).With("component", "session")

	claims, err := ExtractClaims(raw)
	if err != nil {
		l.Warn("session_login_rejected", "error", err)
		s.clear(ctx)
		return false
	}

	// a login never writes under an id it did not issue
	if r, ok := s.store.(Rotator); ok {
		if err := r.Rotate(ctx); err != nil {
			l.Warn("session_rotate_failed", "error", err)
		}
	}

	sess := &Session{
		Token:         raw,
		InstitutionID: claims.InstitutionID,
		Role:          claims.Role,
		UserID:        claims.UserID,
	}
	for _, kv := range [][2]string{
		{KeyToken, sess.Token},
		{KeyInstitutionID, sess.InstitutionID},
		{KeyRole, sess.Role},
		{KeyUserID, sess.UserID},
	} {
		if err := s.store.Set(ctx, kv[0], kv[1]); err != nil {
			l.Error("session_persist_failed", "key", kv[0], "error", err)
			s.clear(ctx)
			return false
		}
	}
	s.current = sess
	return true
}

func (s *State) Logout(ctx context.Context) {
	s.clear(ctx)
}

// Restore loads the persisted fields. All four must be present; the token is
// taken at face value.
func (s *State) Restore(ctx context.Context) *Session {
	vals := make(map[string]string, len(Keys))
	for _, k := range Keys {
		v, err := s.store.Get(ctx, k)
		if err != nil {
			logging.FromContext(ctx).Warn("session_restore_failed", "key", k, "error", err)
			s.current = nil
			return nil
		}
		if v == "" {
			s.current = nil
			return nil
		}
		vals[k] = v
	}
	s.current = &Session{
		Token:         vals[KeyToken],
		InstitutionID: vals[KeyInstitutionID],
		Role:          vals[KeyRole],
		UserID:        vals[KeyUserID],
	}
	return s.Current()
}

func (s *State) clear(ctx context.Context) {
	s.current = nil
	for _, k := range Keys {
		if err := s.store.Remove(ctx, k); err != nil {
			logging.FromContext(ctx).Warn("session_clear_failed", "key", k, "error", err)
		}
	}
}
