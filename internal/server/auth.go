package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/qianfeiqianlan/2048-clash/internal/analytics"
)

var errInvalidToken = errors.New("invalid token")

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type authUser struct {
	ID       string
	Username string
}

type authKey struct{}

func (s *Server) issueToken(p analytics.Player) (string, error) {
	now := s.now()
	c := claims{
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (authUser, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(raw, c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return authUser{}, err
	}
	if c.Subject == "" {
		return authUser{}, errInvalidToken
	}
	return authUser{ID: c.Subject, Username: c.Username}, nil
}

// requireAuth rejects requests without a valid bearer token with 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		user, err := s.parseToken(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), authKey{}, user)))
	}
}

func userFrom(ctx context.Context) (authUser, bool) {
	u, ok := ctx.Value(authKey{}).(authUser)
	return u, ok
}
