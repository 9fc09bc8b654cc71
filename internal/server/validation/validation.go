// Package validation checks user input field by field and reports every
// failure at once as a list of field/violation pairs.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`(?i)^[\w+\-.]+@[a-z\d\-]+(\.[a-z\d\-]+)*\.[a-z]+$`)

// Violation is one failed rule on one field.
type Violation struct {
	Field   string
	Message string
}

// Error collects violations. It matches common.ErrorValidation with errors.Is.
type Error struct {
	Violations []Violation
}

// New returns an Error holding a single violation.
func New(field, message string) *Error {
	return &Error{Violations: []Violation{{Field: field, Message: message}}}
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+" "+v.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return common.ErrorValidation }

// Field pairs a value with the validator tag string it must satisfy,
// e.g. Field{Name: "name", Value: n, Rules: "notblank,max=50"}.
type Field struct {
	Name  string
	Value any
	Rules string
}

// Validator wraps go-playground/validator with the project's custom rules:
//
//	notblank   string is not empty after trimming whitespace
//	emailaddr  address grammar accepted for sign-up
//	maxbytes   UTF-8 length in bytes is at most the parameter
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	return &Validator{v: v}
}

// Check validates every field and returns *Error listing all failures, or
// nil when everything passes. Extra violations computed by the caller are
// appended to the result.
func (v *Validator) Check(fields []Field, extra ...Violation) error {
	var out []Violation
	for _, f := range fields {
		err := v.v.Var(f.Value, f.Rules)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			out = append(out, Violation{Field: f.Name, Message: "is invalid"})
			continue
		}
		for _, fe := range verrs {
			out = append(out, Violation{Field: f.Name, Message: message(fe)})
		}
	}
	out = append(out, extra...)

	if len(out) == 0 {
		return nil
	}
	return &Error{Violations: out}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "can't be blank"
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("is too long (maximum is %s bytes)", fe.Param())
	case "min":
		return fmt.Sprintf("is too short (minimum is %s characters)", fe.Param())
	case "emailaddr":
		return "is invalid"
	default:
		return fmt.Sprintf("failed validation (%s)", fe.Tag())
	}
}
