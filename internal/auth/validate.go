package auth

import (
	"net/mail"
	"strings"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// FieldError describes one invalid form field.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// ValidationError collects every problem found in a credential form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Msg
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Msg: msg})
}

// ValidateRegistration checks a sign-up form. It returns nil or a
// *ValidationError.
func ValidateRegistration(name, email, password string) error {
	v := &ValidationError{}
	if strings.TrimSpace(name) == "" {
		v.add("name", "Name is required")
	}
	checkEmail(v, email)
	switch {
	case password == "":
		v.add("password", "Password is required")
	case len(password) < MinPasswordLength:
		v.add("password", "Password must be at least 6 characters")
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

// ValidateLogin checks a sign-in form. It returns nil or a
// *ValidationError.
func ValidateLogin(email, password string) error {
	v := &ValidationError{}
	checkEmail(v, email)
	if password == "" {
		v.add("password", "Password is required")
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

func checkEmail(v *ValidationError, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		v.add("email", "Email is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		v.add("email", "Please enter a valid email")
	}
}
