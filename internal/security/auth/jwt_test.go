package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	tm := NewTokenManager("secret", "outreach")
	token, expiresAt, err := tm.GenerateToken("Karim", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %s", expiresAt)
	}
	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Actor != "Karim" {
		t.Fatalf("expected actor Karim, got %q", claims.Actor)
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", "outreach").GenerateToken("Karim", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewTokenManager("two", "outreach").ValidateToken(token); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", "outreach")
	past := time.Now().Add(-2 * time.Hour)
	tm.now = func() time.Time { return past }
	token, _, err := tm.GenerateToken("Karim", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tm.now = time.Now
	if _, err := tm.ValidateToken(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestGenerateRequiresActor(t *testing.T) {
	if _, _, err := NewTokenManager("s", "").GenerateToken(" ", time.Hour); err == nil {
		t.Fatal("expected error for empty actor")
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc", "", true},
		{"Bearer", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractToken(tt.header)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, %v", tt.header, got, err)
		}
	}
}
