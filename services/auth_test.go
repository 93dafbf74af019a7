package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testAuthService(env string) *AuthService {
	config := &Config{}
	config.App.Env = env
	config.JWT.Secret = "test-secret"
	config.JWT.AccessExpiryHours = 24
	config.JWT.RefreshExpiryDays = 7
	return NewAuthService(nil, config)
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSetAuthCookies(t *testing.T) {
	auth := testAuthService("development")

	w := httptest.NewRecorder()
	auth.SetAuthCookies(w, "access-value", "refresh-value")

	cookies := w.Result().Cookies()
	access := cookieByName(cookies, "access_token")
	if access == nil {
		t.Fatal("access_token cookie not set")
	}
	if access.Value != "access-value" {
		t.Errorf("access_token value = %q, want %q", access.Value, "access-value")
	}
	if !access.HttpOnly {
		t.Error("access_token cookie must be HttpOnly")
	}
	if access.Secure {
		t.Error("access_token cookie should not be Secure outside production")
	}
	if access.MaxAge != 24*60*60 {
		t.Errorf("access_token MaxAge = %d, want %d", access.MaxAge, 24*60*60)
	}

	refresh := cookieByName(cookies, "refresh_token")
	if refresh == nil {
		t.Fatal("refresh_token cookie not set")
	}
	if refresh.MaxAge != 7*24*60*60 {
		t.Errorf("refresh_token MaxAge = %d, want %d", refresh.MaxAge, 7*24*60*60)
	}
}

func TestSetAuthCookiesSkipsEmptyRefresh(t *testing.T) {
	auth := testAuthService("development")

	w := httptest.NewRecorder()
	auth.SetAuthCookies(w, "access-value", "")

	cookies := w.Result().Cookies()
	if cookieByName(cookies, "access_token") == nil {
		t.Error("access_token cookie not set")
	}
	if cookieByName(cookies, "refresh_token") != nil {
		t.Error("refresh_token cookie set despite empty token")
	}
}

func TestSetAuthCookiesProduction(t *testing.T) {
	auth := testAuthService("production")

	w := httptest.NewRecorder()
	auth.SetAuthCookies(w, "access-value", "refresh-value")

	for _, cookie := range w.Result().Cookies() {
		if !cookie.Secure {
			t.Errorf("%s cookie must be Secure in production", cookie.Name)
		}
	}
}

func TestClearAuthCookies(t *testing.T) {
	auth := testAuthService("development")

	w := httptest.NewRecorder()
	auth.ClearAuthCookies(w)

	cookies := w.Result().Cookies()
	for _, name := range []string{"access_token", "refresh_token"} {
		cookie := cookieByName(cookies, name)
		if cookie == nil {
			t.Errorf("%s not cleared", name)
			continue
		}
		if cookie.Value != "" || cookie.MaxAge != -1 {
			t.Errorf("%s = (value %q, maxAge %d), want expired empty cookie", name, cookie.Value, cookie.MaxAge)
		}
	}
}

func TestLogoutWithoutRefreshToken(t *testing.T) {
	auth := testAuthService("development")

	// No refresh token means no session to revoke; must not touch storage
	if err := auth.Logout(context.Background(), ""); err != nil {
		t.Errorf("Logout without a refresh token should be a no-op, got %v", err)
	}
}

func TestGetTokenFromCookie(t *testing.T) {
	auth := testAuthService("development")

	r := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: "token-value"})

	if got := auth.GetTokenFromCookie(r, "access_token"); got != "token-value" {
		t.Errorf("GetTokenFromCookie() = %q, want %q", got, "token-value")
	}
	if got := auth.GetTokenFromCookie(r, "refresh_token"); got != "" {
		t.Errorf("GetTokenFromCookie() for missing cookie = %q, want empty", got)
	}
}
