package errors

import "fmt"

// SyntaxError represents an annotation that could not be parsed
type SyntaxError struct {
	*BaseError
	Token string // the token that caused the error
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		BaseError: New(SyntaxErrorCode, message),
	}
}

// WrapSyntaxError wraps a lower level parse failure
func WrapSyntaxError(item string, cause error) *SyntaxError {
	return &SyntaxError{
		BaseError: Wrap(SyntaxErrorCode, fmt.Sprintf("failed to parse %s", item), cause),
	}
}

// WithToken sets the problematic token
func (e *SyntaxError) WithToken(token string) *SyntaxError {
	e.Token = token
	return e
}

// WithLocation adds location information to the error
func (e *SyntaxError) WithLocation(loc SourceLocation) *SyntaxError {
	e.BaseError.WithLocation(loc)
	return e
}

// WithSuggestion adds a helpful suggestion
func (e *SyntaxError) WithSuggestion(suggestion string) *SyntaxError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

// ValidationError represents an annotation that parsed but is not valid where it appears
type ValidationError struct {
	*BaseError
	Field    string // annotation or parameter that failed validation
	Expected string // what was expected
	Actual   string // what was provided
}

// NewValidationError creates a new validation error
func NewValidationError(field, expected, actual string) *ValidationError {
	return &ValidationError{
		BaseError: Newf(ValidationErrorCode, "validation failed for '%s': expected %s, got %s", field, expected, actual),
		Field:     field,
		Expected:  expected,
		Actual:    actual,
	}
}

// WithLocation adds location information to the error
func (e *ValidationError) WithLocation(loc SourceLocation) *ValidationError {
	e.BaseError.WithLocation(loc)
	return e
}

// WithSuggestion adds a helpful suggestion
func (e *ValidationError) WithSuggestion(suggestion string) *ValidationError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

// RegistrationError represents an error during component registration
type RegistrationError struct {
	*BaseError
	ComponentType string // type of component being registered
	ComponentName string // name of the component
	Reason        string // reason for registration failure
}

// NewRegistrationError creates a new registration error
func NewRegistrationError(componentType, componentName, reason string) *RegistrationError {
	return &RegistrationError{
		BaseError:     Newf(RegistrationErrorCode, "failed to register %s '%s': %s", componentType, componentName, reason),
		ComponentType: componentType,
		ComponentName: componentName,
		Reason:        reason,
	}
}

// WithLocation adds location information to the error
func (e *RegistrationError) WithLocation(loc SourceLocation) *RegistrationError {
	e.BaseError.WithLocation(loc)
	return e
}
