package security

import (
	"fmt"
	"unicode"
)

const (
	usernameMinLength = 3
	usernameMaxLength = 16
	passwordMinLength = 8
)

// ValidationError represents a single credential policy violation. The
// message is safe to show to the end user verbatim.
type ValidationError struct {
	Code    string
	Message string
}

// Error implements error for ValidationError.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// CredentialRule validates a credential value according to a policy rule.
type CredentialRule interface {
	Validate(value string) error
}

// CredentialRuleFunc adapts a function to be used as a CredentialRule.
type CredentialRuleFunc func(value string) error

// Validate executes the underlying rule function.
func (f CredentialRuleFunc) Validate(value string) error {
	return f(value)
}

// CredentialValidator applies a sequence of rules and returns the first
// encountered violation.
type CredentialValidator struct {
	rules []CredentialRule
}

// NewCredentialValidator constructs a validator with the provided rules.
func NewCredentialValidator(rules ...CredentialRule) *CredentialValidator {
	copied := make([]CredentialRule, len(rules))
	copy(copied, rules)
	return &CredentialValidator{rules: copied}
}

// Validate executes all rules against the value.
func (v *CredentialValidator) Validate(value string) error {
	if v == nil {
		return fmt.Errorf("credential validator not configured")
	}
	for _, rule := range v.rules {
		if err := rule.Validate(value); err != nil {
			return err
		}
	}
	return nil
}

// LengthRangeRule ensures the value length falls within [min, max] runes.
func LengthRangeRule(min, max int) CredentialRule {
	return CredentialRuleFunc(func(value string) error {
		length := len([]rune(value))
		if length < min || length > max {
			return &ValidationError{
				Code:    "length",
				Message: fmt.Sprintf("login must be %d to %d characters long", min, max),
			}
		}
		return nil
	})
}

// UsernameCharsetRule ensures every character is an ASCII letter, digit, or
// underscore.
func UsernameCharsetRule() CredentialRule {
	return CredentialRuleFunc(func(value string) error {
		for _, r := range value {
			switch {
			case r >= 'a' && r <= 'z':
			case r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9':
			case r == '_':
			default:
				return &ValidationError{
					Code:    "charset",
					Message: "login may contain only letters, digits, and underscores",
				}
			}
		}
		return nil
	})
}

// MinLengthRule ensures the value has at least min runes.
func MinLengthRule(min int) CredentialRule {
	return CredentialRuleFunc(func(value string) error {
		if len([]rune(value)) < min {
			return &ValidationError{
				Code:    "length",
				Message: fmt.Sprintf("password must be at least %d characters long", min),
			}
		}
		return nil
	})
}

// RequireUppercaseRule ensures the value contains at least one uppercase letter.
func RequireUppercaseRule() CredentialRule {
	return CredentialRuleFunc(func(value string) error {
		for _, r := range value {
			if unicode.IsUpper(r) {
				return nil
			}
		}
		return &ValidationError{
			Code:    "uppercase",
			Message: "password must include at least one uppercase letter",
		}
	})
}

// RequireDigitRule ensures the value contains at least one digit.
func RequireDigitRule() CredentialRule {
	return CredentialRuleFunc(func(value string) error {
		for _, r := range value {
			if unicode.IsDigit(r) {
				return nil
			}
		}
		return &ValidationError{
			Code:    "digit",
			Message: "password must include at least one digit",
		}
	})
}

var (
	usernameValidator = NewCredentialValidator(
		LengthRangeRule(usernameMinLength, usernameMaxLength),
		UsernameCharsetRule(),
	)
	passwordValidator = NewCredentialValidator(
		MinLengthRule(passwordMinLength),
		RequireUppercaseRule(),
		RequireDigitRule(),
	)
)

// ValidateUsername applies the launcher login policy: 3 to 16 characters,
// ASCII letters, digits, and underscores only.
func ValidateUsername(username string) error {
	return usernameValidator.Validate(username)
}

// ValidatePassword applies the launcher password policy: at least 8
// characters with one uppercase letter and one digit.
func ValidatePassword(password string) error {
	return passwordValidator.Validate(password)
}
