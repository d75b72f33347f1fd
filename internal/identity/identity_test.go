package identity

import (
	"regexp"
	"testing"

	"github.com/qianfeiqianlan/2048-clash/internal/kv"
)

func TestBrowserID_Format(t *testing.T) {
	store := kv.NewMemory()
	id := BrowserID(store)

	pattern := regexp.MustCompile(`^browser_[0-9a-z]+_[0-9a-z]{9}$`)
	if !pattern.MatchString(id) {
		t.Errorf("BrowserID() = %q, doesn't match expected pattern", id)
	}
}

func TestBrowserID_Stable(t *testing.T) {
	store := kv.NewMemory()
	first := BrowserID(store)
	second := BrowserID(store)
	if first != second {
		t.Errorf("BrowserID() changed between calls: %q then %q", first, second)
	}

	stored, ok, _ := store.Get(BrowserIDKey)
	if !ok || stored != first {
		t.Errorf("stored id = %q, want %q", stored, first)
	}
}

func TestBrowserID_ReusesExisting(t *testing.T) {
	store := kv.NewMemory()
	store.Set(BrowserIDKey, "browser_fixed_000000000")

	if got := BrowserID(store); got != "browser_fixed_000000000" {
		t.Errorf("BrowserID() = %q, want existing id", got)
	}
}

func TestBrowserID_QuotaStillReturnsID(t *testing.T) {
	store := kv.NewMemoryWithQuota(1)
	if id := BrowserID(store); id == "" {
		t.Error("BrowserID() should return an id even when it cannot be saved")
	}
}

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession(kv.NewMemory())

	if s.IsAuthenticated() {
		t.Fatal("new session should not be authenticated")
	}

	if err := s.Save("tok", &User{ID: "u1", Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	if !s.IsAuthenticated() {
		t.Fatal("session should be authenticated after Save")
	}
	u, ok := s.CurrentIdentity()
	if !ok || u.ID != "u1" || u.Username != "alice" {
		t.Errorf("CurrentIdentity() = %+v, %v", u, ok)
	}
	if s.Token() != "tok" {
		t.Errorf("Token() = %q, want tok", s.Token())
	}

	s.Clear()
	if s.IsAuthenticated() {
		t.Error("session should not be authenticated after Clear")
	}
}

func TestSession_TokenWithoutUserIsAnonymous(t *testing.T) {
	store := kv.NewMemory()
	store.Set(TokenKey, "tok")
	s := NewSession(store)
	if s.IsAuthenticated() {
		t.Error("token alone should not authenticate")
	}
}

func TestSession_CorruptUserInfo(t *testing.T) {
	store := kv.NewMemory()
	store.Set(TokenKey, "tok")
	store.Set(UserInfoKey, "{not json")
	s := NewSession(store)

	if _, ok := s.CurrentIdentity(); ok {
		t.Error("corrupt user info should read as no identity")
	}
	if s.IsAuthenticated() {
		t.Error("corrupt user info should not authenticate")
	}
}

func TestAnonymous(t *testing.T) {
	var p Provider = Anonymous{}
	if p.IsAuthenticated() {
		t.Error("Anonymous should never be authenticated")
	}
	if _, ok := p.CurrentIdentity(); ok {
		t.Error("Anonymous should have no identity")
	}
}
