package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Demo1234!", bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Demo1234!" {
		t.Fatal("hash equals plaintext")
	}
	if !VerifyPassword(hash, "Demo1234!") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
	if VerifyPassword("not-a-hash", "Demo1234!") {
		t.Error("garbage hash accepted")
	}
}

func TestHashPasswordBumpsLowCost(t *testing.T) {
	hash, err := HashPassword("pw", 1)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if cost < bcrypt.DefaultCost {
		t.Errorf("cost = %d, want >= %d", cost, bcrypt.DefaultCost)
	}
}
