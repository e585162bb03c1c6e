package jwt

import (
	"testing"
	"time"
)

func TestService_GenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.GenerateToken("a2b1c3d4-0000-0000-0000-000000000001", "driver")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Sub != "a2b1c3d4-0000-0000-0000-000000000001" {
		t.Fatalf("unexpected sub: %s", claims.Sub)
	}
	if claims.Role != "driver" {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
}

func TestService_Validate_WrongSecret(t *testing.T) {
	token, _ := NewService("secret-a", time.Hour).GenerateToken("sub", "admin")

	if _, err := NewService("secret-b", time.Hour).ValidateToken(token); err == nil {
		t.Fatal("expected error")
	}
}

func TestService_Validate_Expired(t *testing.T) {
	token, _ := NewService("secret", -time.Minute).GenerateToken("sub", "staff")

	if _, err := NewService("secret", -time.Minute).ValidateToken(token); err == nil {
		t.Fatal("expected error")
	}
}

func TestService_Validate_Garbage(t *testing.T) {
	if _, err := NewService("secret", time.Hour).ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected error")
	}
}
