package errors

import "fmt"

// Errors raised by code misusing the model builder. None of them depend on
// the analyzed class and none are expected in correct operation.

// BuilderReused reports any builder call after Build
func BuilderReused(operation string) *BaseError {
	return Newf(IllegalStateErrorCode, "interception model builder cannot be reused: %s called after build", operation).
		WithContext("operation", operation)
}

// LifecycleKindWithMethod reports a lifecycle kind combined with a method key
func LifecycleKindWithMethod(kind, method string) *BaseError {
	return Newf(ConfigurationErrorCode, "lifecycle interception kind %s cannot be scoped to method %s", kind, method).
		WithContext("kind", kind).
		WithContext("method", method)
}

// IllegalKind reports a kind passed to an entry point that does not accept it
func IllegalKind(kind, reason string) *BaseError {
	return New(IllegalArgumentErrorCode, fmt.Sprintf("illegal interception kind %s: %s", kind, reason)).
		WithContext("kind", kind)
}

// ConfigurationError creates a configuration error
func ConfigurationError(configType, message string) *BaseError {
	return Newf(ConfigurationErrorCode, "configuration error in '%s': %s", configType, message).
		WithContext("config_type", configType)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	return Wrap(ConfigurationErrorCode, fmt.Sprintf("failed to %s configuration '%s'", operation, configType), cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	return Wrap(FileSystemErrorCode, fmt.Sprintf("failed to %s '%s'", operation, path), cause).
		WithContext("operation", operation).
		WithContext("path", path)
}
