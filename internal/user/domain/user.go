package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// User is the core account entity.
type User struct {
	ID           string
	Login        string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

var (
	loginPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)+$`)
)

// ValidateLogin checks a candidate login. Returns an error describing the first validation failure.
func ValidateLogin(login string) error {
	if l := len(login); l < 3 || l > 10 {
		return errors.New("login must be 3 to 10 characters")
	}
	if !loginPattern.MatchString(login) {
		return errors.New("login may contain only letters, digits, underscore and hyphen")
	}
	return nil
}

// ValidateEmail checks a candidate email address.
func ValidateEmail(email string) error {
	if l := len(email); l < 5 || l > 50 {
		return errors.New("email must be 5 to 50 characters")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("email is not a valid address")
	}
	return nil
}

// ValidatePassword checks a candidate plaintext password. Interior whitespace
// is allowed; only an all-whitespace password is rejected.
func ValidatePassword(password string) error {
	if l := len(password); l < 6 || l > 20 {
		return errors.New("password must be 6 to 20 characters")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password must contain a non-whitespace character")
	}
	return nil
}
