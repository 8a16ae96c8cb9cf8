package auth

import (
	"regexp"
	"unicode"
)

// ValidationError reports the first credential rule a request violated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Credentials is the transient signup/login input. Plaintext passwords are
// never persisted.
type Credentials struct {
	Email    string
	Password string
	Name     string
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// rule checks one field of the input. Rules run in declaration order and
// validation stops at the first failure.
type rule struct {
	field   string
	message string
	ok      func(Credentials) bool
}

var signupRules = []rule{
	{
		field:   "email",
		message: "Invalid email address",
		ok:      func(c Credentials) bool { return emailPattern.MatchString(c.Email) },
	},
	{
		field:   "password",
		message: "Password must be at least 8 characters",
		ok:      func(c Credentials) bool { return len(c.Password) >= 8 },
	},
	{
		field:   "password",
		message: "Password must contain at least one uppercase letter, one lowercase letter, and one number",
		ok:      func(c Credentials) bool { return hasUpperLowerDigit(c.Password) },
	},
	{
		field:   "name",
		message: "Name must be at least 2 characters",
		ok:      func(c Credentials) bool { return c.Name == "" || len(c.Name) >= 2 },
	},
}

// Login only requires a well-formed email and a non-empty password: strength
// rules apply when a password is chosen, not when an existing one is checked.
var loginRules = []rule{
	{
		field:   "email",
		message: "Invalid email address",
		ok:      func(c Credentials) bool { return emailPattern.MatchString(c.Email) },
	},
	{
		field:   "password",
		message: "Password is required",
		ok:      func(c Credentials) bool { return c.Password != "" },
	},
}

// ValidateSignup checks signup input against the signup rule set and returns
// the first violated rule as a *ValidationError.
func ValidateSignup(c Credentials) error {
	return runRules(signupRules, c)
}

// ValidateLogin checks login input against the login rule set.
func ValidateLogin(c Credentials) error {
	return runRules(loginRules, c)
}

func runRules(rules []rule, c Credentials) error {
	for _, r := range rules {
		if !r.ok(c) {
			return &ValidationError{Field: r.field, Message: r.message}
		}
	}
	return nil
}

func hasUpperLowerDigit(s string) bool {
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
