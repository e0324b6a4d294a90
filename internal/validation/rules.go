// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/kbalijepalli/dreas/internal/errors"
)

var (
	// policyTagRegex matches slash-separated tag segments such as
	// "orders/payments". Wildcards are only valid in policy grants, never
	// in the tag attached to a payload.
	policyTagRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]+(/[a-zA-Z0-9._\-]+)*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PolicyTag validates the tag bound to a protected payload
var PolicyTag = validation.NewStringRuleWithError(
	func(s string) bool {
		return policyTagRegex.MatchString(s)
	},
	validation.NewError(
		"validation_policy_tag",
		"must be slash-separated segments of letters, digits, dots, dashes, or underscores",
	),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
