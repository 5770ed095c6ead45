// Package validation runs declarative field checks over form structs and
// sanitizes user-supplied text.
//
// Form structs declare rules with `validate` tags and a human-readable
// field name with a `label` tag:
//
//	type Form struct {
//		Username string `validate:"required,min=3,max=30,username" label:"Username"`
//	}
package validation

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/dom/members-only/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	alphaSpaceRegex = regexp.MustCompile(`^[A-Za-z ]+$`)
	usernameRegex   = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

type Validator struct {
	validate *validator.Validate
	policy   *bluemonday.Policy
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if label := field.Tag.Get("label"); label != "" {
			return label
		}
		return field.Name
	})

	// Registration only fails on an empty tag name, which none of these are.
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		return alphaSpaceRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	return &Validator{
		validate: v,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Struct validates s and returns nil or a *domain.ValidationError listing
// one message per failing field, in field declaration order.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, message(fe))
	}
	return domain.NewValidationError(messages...)
}

// Text trims s and strips every HTML element from it. The policy escapes
// entities in what remains, so they are decoded back to the characters the
// user typed.
func (v *Validator) Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(v.policy.Sanitize(strings.TrimSpace(s))))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "alphaspace":
		return fmt.Sprintf("%s may only contain letters and spaces", field)
	case "username":
		return fmt.Sprintf("%s may only contain letters, numbers and underscores", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "strongpassword":
		return fmt.Sprintf("%s must contain at least one lowercase letter, one uppercase letter and one number", field)
	case "eqfield":
		return "Passwords do not match"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// IsStrongPassword reports whether s has a lowercase letter, an uppercase
// letter and a digit.
func IsStrongPassword(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// NormalizeEmail lower-cases an address and folds Gmail aliases onto their
// canonical mailbox.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return email
	}
	local, host := email[:at], email[at+1:]

	if host == "gmail.com" || host == "googlemail.com" {
		if plus := strings.Index(local, "+"); plus >= 0 {
			local = local[:plus]
		}
		local = strings.ReplaceAll(local, ".", "")
		host = "gmail.com"
	}

	return local + "@" + host
}
