package auth

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Password1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Password1" {
		t.Fatal("password stored in the clear")
	}
	if !CheckPassword(hash, "Password1") {
		t.Error("CheckPassword rejected the correct password")
	}
	if CheckPassword(hash, "Password2") {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestDisplayName(t *testing.T) {
	u := User{FirstName: "José", LastName: "Alvarado"}
	if got := u.DisplayName(); got != "José Alvarado" {
		t.Errorf("DisplayName = %q, want %q", got, "José Alvarado")
	}
}
