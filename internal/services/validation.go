package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is matched by every input validation failure.
var ErrValidation = errors.New("validation error")

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// ValidationError reports which input field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type registerInput struct {
	Email    string `json:"email" validate:"required,storable,email,max=255"`
	Username string `json:"username" validate:"required,storable,max=100"`
	Password string `json:"password" validate:"required"`
}

// A wrong password, empty included, is a credentials failure rather than a
// validation one, so only the email is checked on login.
type loginInput struct {
	Email string `json:"email" validate:"required,storable,email"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// PostgreSQL text columns reject NUL bytes and invalid UTF-8
	_ = v.RegisterValidation("storable", func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		return utf8.ValidString(val) && !strings.ContainsRune(val, 0)
	})
	return v
}

// ValidateRegister checks registration input before it reaches the store.
func ValidateRegister(email, username, password string) error {
	if err := check(registerInput{Email: email, Username: username, Password: password}); err != nil {
		return err
	}
	return checkPasswordLength(password)
}

// ValidateLogin checks login input syntax.
func ValidateLogin(email string) error {
	return check(loginInput{Email: email})
}

// NormalizeEmail lowercases the domain part of a validated address.
// The local part is left as is.
func NormalizeEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func check(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "storable":
		return "must be valid UTF-8 without NUL characters"
	default:
		return "invalid value"
	}
}

func checkPasswordLength(password string) error {
	if len(password) > maxPasswordBytes {
		return &ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at most %d bytes", maxPasswordBytes),
		}
	}
	return nil
}
