package domain

import (
	"strings"
	"testing"
)

func TestValidateLogin(t *testing.T) {
	cases := []struct {
		name    string
		login   string
		wantErr bool
	}{
		{"valid", "alice_01", false},
		{"minimum length", "abc", false},
		{"maximum length", "abcdefghij", false},
		{"too short", "ab", true},
		{"too long", "abcdefghijk", true},
		{"illegal character", "al!ce", true},
		{"empty", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLogin(tc.login)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateLogin(%q) = %v, wantErr=%v", tc.login, err, tc.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "alice@example.com", false},
		{"subdomain", "a@mail.example.co", false},
		{"no at sign", "alice.example.com", true},
		{"no tld", "alice@example", true},
		{"too short", "a@b", true},
		{"too long", "a@" + strings.Repeat("x", 60) + ".com", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEmail(tc.email)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateEmail(%q) = %v, wantErr=%v", tc.email, err, tc.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "s3cret!", false},
		{"minimum length", "123456", false},
		{"maximum length", "12345678901234567890", false},
		{"too short", "12345", true},
		{"too long", "123456789012345678901", true},
		{"interior space allowed", "pass word1", false},
		{"all whitespace", "      ", true},
		{"all tabs and spaces", " \t \t \t ", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidatePassword(%q) = %v, wantErr=%v", tc.password, err, tc.wantErr)
			}
		})
	}
}
