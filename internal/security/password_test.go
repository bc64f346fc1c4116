package security

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if hash == "secret1" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected a bcrypt hash, got %q", hash)
	}

	if err := CheckPassword(hash, "secret1"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	if err := CheckPassword(hash, "secret2"); err == nil {
		t.Fatalf("expected mismatch")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	a, _ := HashPassword("same-password")
	b, _ := HashPassword("same-password")

	if a == b {
		t.Fatalf("two hashes of the same password should differ")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{name: "too_short", in: "abc", wantErr: ErrPasswordPolicy},
		{name: "min_length", in: "abcdef"},
		{name: "too_long_for_policy", in: strings.Repeat("a", 256), wantErr: ErrPasswordPolicy},
		{name: "max_length", in: strings.Repeat("a", 255)},
		{name: "over_72_bytes", in: strings.Repeat("a", 100)},
		{name: "max_length_multibyte", in: strings.Repeat("ñ", 255)},
		{name: "multibyte_counts_runes", in: "ñññññ", wantErr: ErrPasswordPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashPassword_LongPasswords(t *testing.T) {
	long := strings.Repeat("x", 200)

	hash, err := HashPassword(long + "A")
	if err != nil {
		t.Fatalf("hash 201 chars: %v", err)
	}

	if err := CheckPassword(hash, long+"A"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	// only the last character differs, far past bcrypt's 72-byte window
	if err := CheckPassword(hash, long+"B"); err == nil {
		t.Fatalf("passwords differing after byte 72 must not match")
	}
}
