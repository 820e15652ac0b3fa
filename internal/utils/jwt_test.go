package utils

import (
	"strings"
	"testing"
	"time"
)

func TestSessionHandleRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	handle, err := GenerateSessionHandle("session-abc", time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionHandle() error = %v", err)
	}

	sessionID, err := ParseSessionHandle(handle)
	if err != nil {
		t.Fatalf("ParseSessionHandle() error = %v", err)
	}
	if sessionID != "session-abc" {
		t.Errorf("session id = %q, expected session-abc", sessionID)
	}
}

func TestParseSessionHandle_Expired(t *testing.T) {
	SetJWTSecret("test-secret")

	handle, err := GenerateSessionHandle("session-abc", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionHandle() error = %v", err)
	}
	if _, err := ParseSessionHandle(handle); err == nil {
		t.Error("expected error for expired handle")
	}
}

func TestParseSessionHandle_WrongSecret(t *testing.T) {
	SetJWTSecret("secret-one")
	handle, err := GenerateSessionHandle("session-abc", time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionHandle() error = %v", err)
	}

	SetJWTSecret("secret-two")
	if _, err := ParseSessionHandle(handle); err == nil {
		t.Error("expected error for handle signed with a different secret")
	}
}

func TestParseSessionHandle_Garbage(t *testing.T) {
	SetJWTSecret("test-secret")
	for _, handle := range []string{"", "not.a.jwt", "a.b"} {
		if _, err := ParseSessionHandle(handle); err == nil {
			t.Errorf("expected error for handle %q", handle)
		}
	}
}

func TestParseSessionHandle_Tampered(t *testing.T) {
	SetJWTSecret("test-secret")
	handle, err := GenerateSessionHandle("session-abc", time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionHandle() error = %v", err)
	}

	parts := strings.Split(handle, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected handle shape: %q", handle)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := ParseSessionHandle(tampered); err == nil {
		t.Error("expected error for tampered signature")
	}
}

func TestNewSessionID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewSessionID()
		if err != nil {
			t.Fatalf("NewSessionID() error = %v", err)
		}
		// 32 bytes base64url without padding is 43 characters.
		if len(id) != 43 {
			t.Fatalf("session id length = %d, expected 43", len(id))
		}
		if seen[id] {
			t.Fatal("duplicate session id generated")
		}
		seen[id] = true
	}
}
