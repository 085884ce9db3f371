package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewCookieManagerSameSiteMapping(t *testing.T) {
	if got := NewCookieManager("", true, "strict").SameSite; got != http.SameSiteStrictMode {
		t.Fatalf("strict mapping mismatch: %v", got)
	}
	if got := NewCookieManager("", true, "none").SameSite; got != http.SameSiteNoneMode {
		t.Fatalf("none mapping mismatch: %v", got)
	}
	if got := NewCookieManager("", true, "unexpected").SameSite; got != http.SameSiteLaxMode {
		t.Fatalf("default mapping mismatch: %v", got)
	}
}

func TestCookieManagerSetSessionCookieFlags(t *testing.T) {
	mgr := NewCookieManager("example.com", true, "lax")
	rr := httptest.NewRecorder()
	mgr.SetSessionCookie(rr, "jwt", 2*time.Hour)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != "jwt" || c.Path != "/" || !c.HttpOnly || !c.Secure || c.Domain != "example.com" {
		t.Fatalf("unexpected session cookie: %#v", c)
	}
	if c.MaxAge != int((2 * time.Hour).Seconds()) || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected max-age/same-site: %d %v", c.MaxAge, c.SameSite)
	}
}

func TestCookieManagerClearSessionCookie(t *testing.T) {
	mgr := NewCookieManager("example.com", false, "lax")
	rr := httptest.NewRecorder()
	mgr.ClearSessionCookie(rr)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cleared cookie, got %d", len(cookies))
	}
	if c := cookies[0]; c.MaxAge != -1 || c.Value != "" || c.Name != SessionCookieName {
		t.Fatalf("cookie expected cleared value/max-age, got %#v", c)
	}
}

func TestGetCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "x"})

	if got := GetCookie(req, SessionCookieName); got != "x" {
		t.Fatalf("unexpected cookie value %q", got)
	}
	if got := GetCookie(req, "missing"); got != "" {
		t.Fatalf("expected empty cookie value for missing cookie, got %q", got)
	}
}
