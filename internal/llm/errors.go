package llm

import "fmt"

// ErrorKind classifies an invocation failure. All kinds are handled the same
// way by the retry policy; the kind is preserved for error messages and logs.
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindTransport ErrorKind = "transport"
	KindProvider  ErrorKind = "provider"
	KindMalformed ErrorKind = "malformed_response"
)

// InvocationError is a classified failure from one LLM call
type InvocationError struct {
	Kind ErrorKind
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Kind, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

func invocationError(kind ErrorKind, format string, args ...interface{}) *InvocationError {
	return &InvocationError{Kind: kind, Err: fmt.Errorf(format, args...)}
}
