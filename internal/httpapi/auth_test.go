package httpapi

import (
	"testing"
	"time"

	"tindahan/backend/internal/domain"
)

func TestLoginAndParseTokenRoundTrip(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Hour, "admin123", "staff123")

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.Role != domain.RoleAdmin {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	session, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if session.Username != "admin" || session.Role != domain.RoleAdmin {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !session.IsAdmin(time.Now()) {
		t.Fatal("fresh admin session should pass the admin check")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Hour, "admin123", "staff123")

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "wrong"}); err == nil {
		t.Fatal("wrong password accepted")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "nobody", Password: "admin123"}); err == nil {
		t.Fatal("unknown user accepted")
	}
}

func TestEmptyPasswordDisablesAccount(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Hour, "admin123", "")

	if _, err := auth.Login(domain.LoginRequest{Username: "staff", Password: ""}); err == nil {
		t.Fatal("account without a configured password should not log in")
	}
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	issuer := NewAuthManager("secret-a", time.Hour, "admin123", "staff123")
	verifier := NewAuthManager("secret-b", time.Hour, "admin123", "staff123")

	resp, err := issuer.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Nanosecond, "admin123", "staff123")

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Hour, "admin123", "staff123")
	if _, err := auth.ParseToken("not.a.token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}
