package errors

import "fmt"

// DeploymentReason identifies why a class could not be enabled for interception
type DeploymentReason string

const (
	ReasonConflictingBindings    DeploymentReason = "conflicting_interceptor_bindings"
	ReasonFinalClass             DeploymentReason = "final_class_with_interceptors"
	ReasonPrivateConstructor     DeploymentReason = "not_proxyable_private_constructor"
	ReasonFinalInterceptedMethod DeploymentReason = "final_intercepted_method"
	ReasonUnknownInterceptor     DeploymentReason = "unknown_interceptor"
)

// DeploymentError aborts enablement of one class. The container aggregates
// these across classes instead of stopping at the first one.
type DeploymentError struct {
	*BaseError
	Class  string           // class that failed enablement
	Member string           // offending constructor or method, if any
	Reason DeploymentReason // machine readable reason
}

func newDeploymentError(reason DeploymentReason, class, member, message string) *DeploymentError {
	err := &DeploymentError{
		BaseError: New(DeploymentErrorCode, message),
		Class:     class,
		Member:    member,
		Reason:    reason,
	}
	err.BaseError.WithContext("class", class).WithContext("reason", string(reason))
	if member != "" {
		err.BaseError.WithContext("member", member)
	}
	return err
}

// WithLocation adds location information to the error
func (e *DeploymentError) WithLocation(loc SourceLocation) *DeploymentError {
	e.BaseError.WithLocation(loc)
	return e
}

// ConflictingBindings reports a member declaring two bindings of the same type
func ConflictingBindings(class, member, bindingType string) *DeploymentError {
	err := newDeploymentError(ReasonConflictingBindings, class, member,
		fmt.Sprintf("conflicting interceptor bindings found on %s: binding type '%s' declared more than once on %s", class, bindingType, member))
	err.BaseError.WithContext("binding_type", bindingType).
		WithSuggestion("Declare each interceptor binding type at most once per member, including bindings contributed by composed binding types")
	return err
}

// ConflictingClassBindings reports conflicting bindings at class or stereotype level
func ConflictingClassBindings(class, bindingType string) *DeploymentError {
	err := newDeploymentError(ReasonConflictingBindings, class, "",
		fmt.Sprintf("conflicting interceptor bindings found on %s: binding type '%s' declared with different values", class, bindingType))
	err.BaseError.WithContext("binding_type", bindingType)
	return err
}

// FinalClassWithInterceptors reports a non-extensible class that needs interception
func FinalClassWithInterceptors(class string) *DeploymentError {
	err := newDeploymentError(ReasonFinalClass, class, "",
		fmt.Sprintf("class %s is declared final but has interceptors", class))
	err.BaseError.WithSuggestion("Remove the //weave::final marker or remove every interceptor bound to the class")
	return err
}

// PrivateConstructor reports an intercepted class whose constructor cannot be reached by a subtype
func PrivateConstructor(class, constructor string) *DeploymentError {
	err := newDeploymentError(ReasonPrivateConstructor, class, constructor,
		fmt.Sprintf("class %s is not proxyable because constructor %s is private", class, constructor))
	err.BaseError.WithSuggestion(fmt.Sprintf("Export the constructor of %s", class))
	return err
}

// FinalInterceptedMethod reports a non-overridable method that has interceptors bound to it
func FinalInterceptedMethod(class, method, interceptor string) *DeploymentError {
	err := newDeploymentError(ReasonFinalInterceptedMethod, class, method,
		fmt.Sprintf("method %s of %s is declared final but is bound to interceptor %s", method, class, interceptor))
	err.BaseError.WithContext("interceptor", interceptor).
		WithSuggestion("Remove the //weave::final marker from the method")
	return err
}

// UnknownInterceptor reports an explicit interceptor declaration naming an unknown class
func UnknownInterceptor(class, member, interceptor string) *DeploymentError {
	err := newDeploymentError(ReasonUnknownInterceptor, class, member,
		fmt.Sprintf("interceptor %s declared on %s is not a known interceptor class", interceptor, member))
	err.BaseError.WithContext("interceptor", interceptor).
		WithSuggestion(fmt.Sprintf("Annotate %s with //weave::interceptor", interceptor))
	return err
}
