package auth

import (
	"strings"
	"testing"
	"time"

	"maintdesk/models"
)

func testUser() *models.User {
	return &models.User{
		UserID: "worker-1",
		Email:  "worker@example.com",
		Role:   models.RoleWorker,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 7*24*time.Hour)

	token, err := m.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken: unexpected error: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: unexpected error: %v", err)
	}
	if claims.UserID != "worker-1" || claims.Email != "worker@example.com" || claims.Role != models.RoleWorker {
		t.Fatalf("Bad claims: %+v", claims)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 7*24*time.Hour)
	other := NewJWTManager("other-secret", time.Hour, 7*24*time.Hour)

	token, err := m.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken: unexpected error: %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatalf("ValidateToken accepted a token signed with another secret")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute, 7*24*time.Hour)

	token, err := m.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken: unexpected error: %v", err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Fatalf("ValidateToken accepted an expired token")
	}
}

func TestValidateGarbageToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 7*24*time.Hour)
	if _, err := m.ValidateToken("not.a.token"); err == nil {
		t.Fatalf("ValidateToken accepted garbage")
	}
}

func TestExtractToken(t *testing.T) {
	got, err := ExtractToken("Bearer abc123")
	if err != nil {
		t.Fatalf("ExtractToken: unexpected error: %v", err)
	}
	if got != "abc123" {
		t.Fatalf("ExtractToken: got %q, want abc123", got)
	}

	for _, header := range []string{"", "abc123", "Basic abc123", "Bearer"} {
		if _, err := ExtractToken(header); err == nil {
			t.Errorf("ExtractToken(%q): accepted malformed header", header)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse1")
	if err != nil {
		t.Fatalf("HashPassword: unexpected error: %v", err)
	}
	if hash == "correct-horse1" {
		t.Fatalf("HashPassword returned the plaintext")
	}

	if err := CheckPassword("correct-horse1", hash); err != nil {
		t.Fatalf("CheckPassword rejected the right password: %v", err)
	}
	if err := CheckPassword("wrong-password1", hash); err == nil {
		t.Fatalf("CheckPassword accepted the wrong password")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	if err := ValidatePasswordStrength("abcdefg1"); err != nil {
		t.Fatalf("ValidatePasswordStrength rejected a valid password: %v", err)
	}

	cases := []struct {
		password string
		reason   string
	}{
		{"short1", "too short"},
		{"allletters", "no number"},
		{"12345678", "no letter"},
	}
	for _, tc := range cases {
		if err := ValidatePasswordStrength(tc.password); err == nil {
			t.Errorf("ValidatePasswordStrength(%q): accepted password that is %s", tc.password, tc.reason)
		}
	}
}

func TestHashPasswordRejectsShort(t *testing.T) {
	if _, err := HashPassword("short1"); err == nil || !strings.Contains(err.Error(), "8") {
		t.Fatalf("HashPassword of short password: got %v, want length error", err)
	}
}
