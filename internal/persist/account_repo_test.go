package persist

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	r := &AccountRepo{}

	if !r.ValidatePassword(string(hash), "hunter2") {
		t.Fatal("correct password rejected")
	}
	if r.ValidatePassword(string(hash), "hunter3") {
		t.Fatal("wrong password accepted")
	}
	if r.ValidatePassword("not-a-hash", "hunter2") {
		t.Fatal("malformed hash accepted")
	}
}
