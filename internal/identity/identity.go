// Package identity answers "is a player logged in, and who": the per-install
// browser id and the authenticated session kept in client storage.
package identity

// User is the authenticated player as returned by the login endpoint.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Provider is the capability the score store consumes.
type Provider interface {
	IsAuthenticated() bool
	CurrentIdentity() (User, bool)
}

// Anonymous never reports an authenticated player.
type Anonymous struct{}

func (Anonymous) IsAuthenticated() bool { return false }

func (Anonymous) CurrentIdentity() (User, bool) { return User{}, false }
