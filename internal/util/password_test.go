package util

import "testing"

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Str0ngPass!23"); err != nil {
		t.Fatalf("expected strong password to pass: %v", err)
	}

	weak := []string{
		"short1!A",
		"alllowercase12!",
		"ALLUPPERCASE12!",
		"NoDigitsHere!!",
		"NoSpecials1234",
	}
	for _, p := range weak {
		if err := ValidatePassword(p); err == nil {
			t.Fatalf("expected %q to be rejected", p)
		}
	}
}
