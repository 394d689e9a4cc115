package models

import "testing"

func TestPasswordHashing(t *testing.T) {
	var u User
	if err := u.SetPassword("hunter22"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "hunter22" {
		t.Fatalf("password stored without hashing")
	}
	if !u.CheckPassword("hunter22") {
		t.Fatalf("correct password rejected")
	}
	if u.CheckPassword("hunter23") {
		t.Fatalf("wrong password accepted")
	}
}
