package auth

import (
	"errors"
	"net/mail"
	"strings"
)

// MinPasswordLength is the shortest password the sign-up and change-password
// forms accept.
const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("a valid email address is required")
	ErrNameRequired       = errors.New("name is required")
	ErrPasswordUnchanged  = errors.New("new password must differ from the current one")
)

// ValidateSignIn checks the sign-in form. Both fields are required; the
// server decides whether they match.
func ValidateSignIn(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrInvalidCredentials
	}
	return nil
}

// ValidateSignUp checks the sign-up form and returns every problem found.
func ValidateSignUp(name, email, password string) error {
	var errs []error
	if strings.TrimSpace(name) == "" {
		errs = append(errs, ErrNameRequired)
	}
	if err := ValidateEmail(email); err != nil {
		errs = append(errs, err)
	}
	if err := ValidatePassword(password); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidatePasswordChange checks a change-password request.
func ValidatePasswordChange(current, next string) error {
	if current == "" {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	if current == next {
		return ErrPasswordUnchanged
	}
	return nil
}

// ValidateEmail accepts a bare address ("a@b.c"), not a display-name form.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks the minimum length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// PasswordStrength returns the first unmet strength rule, "Strong password"
// when all rules hold, or "" for an empty password.
func PasswordStrength(password string) string {
	if password == "" {
		return ""
	}
	if len(password) < MinPasswordLength {
		return "Password must be at least 8 characters."
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}

	switch {
	case !upper:
		return "Must include an uppercase letter."
	case !lower:
		return "Must include a lowercase letter."
	case !digit:
		return "Must include a number."
	case !special:
		return "Must include a special character."
	}
	return "Strong password"
}
