package identity

import (
	"encoding/json"
	"log"

	"github.com/qianfeiqianlan/2048-clash/internal/kv"
)

const (
	TokenKey    = "token"
	UserInfoKey = "userInfo"
)

// Session is the kv-backed login state. A player is authenticated when both a
// token and user info are stored.
type Session struct {
	store kv.Store
}

func NewSession(store kv.Store) *Session {
	return &Session{store: store}
}

func (s *Session) Token() string {
	token, ok, err := s.store.Get(TokenKey)
	if err != nil {
		log.Printf("[Identity] reading token: %v\n", err)
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

func (s *Session) CurrentIdentity() (User, bool) {
	raw, ok, err := s.store.Get(UserInfoKey)
	if err != nil {
		log.Printf("[Identity] reading user info: %v\n", err)
		return User{}, false
	}
	if !ok || raw == "" {
		return User{}, false
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Printf("[Identity] corrupt user info: %v\n", err)
		return User{}, false
	}
	return u, true
}

func (s *Session) IsAuthenticated() bool {
	if s.Token() == "" {
		return false
	}
	_, ok := s.CurrentIdentity()
	return ok
}

// Save stores a fresh login. Either value may be empty, in which case it is
// left untouched.
func (s *Session) Save(token string, u *User) error {
	if u != nil {
		raw, err := json.Marshal(u)
		if err != nil {
			return err
		}
		if err := s.store.Set(UserInfoKey, string(raw)); err != nil {
			return err
		}
	}
	if token != "" {
		if err := s.store.Set(TokenKey, token); err != nil {
			return err
		}
	}
	return nil
}

// Clear logs the player out locally.
func (s *Session) Clear() {
	if err := s.store.Remove(TokenKey); err != nil {
		log.Printf("[Identity] clearing token: %v\n", err)
	}
	if err := s.store.Remove(UserInfoKey); err != nil {
		log.Printf("[Identity] clearing user info: %v\n", err)
	}
}
