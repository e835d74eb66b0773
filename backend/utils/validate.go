package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs validator tags on a request struct and returns
// field -> message pairs suitable for a ValidationError response.
func ValidateStruct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = "failed on '" + fe.Tag() + "' validation"
	}
	return out
}

var innerSpace = regexp.MustCompile(`\s+`)

// SanitizeString trims, collapses inner whitespace and drops control
// characters from free-form input.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(innerSpace.ReplaceAllString(s, " "))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var phoneStrip = regexp.MustCompile(`[^\d+]`)

// NormalizePhone keeps digits and a single leading plus.
func NormalizePhone(phone string) string {
	phone = phoneStrip.ReplaceAllString(phone, "")
	if len(phone) > 1 {
		phone = string(phone[0]) + strings.ReplaceAll(phone[1:], "+", "")
	}
	return phone
}
