package jsonstream

import "fmt"

// JsonRootError reports a root token incompatible with RequireArrayRoot
// / AllowSingleObject.
type JsonRootError struct{ Message string }

func (e *JsonRootError) Error() string { return "json: root error: " + e.Message }

// JsonException reports a syntax error from the underlying decoder.
type JsonException struct {
	ElementIndex int64
	Message      string
}

func (e *JsonException) Error() string {
	return fmt.Sprintf("json: syntax error at element %d: %s", e.ElementIndex, e.Message)
}

// JsonValidationError reports a Validator that itself returned an error.
type JsonValidationError struct {
	ElementIndex int64
	Err          error
}

func (e *JsonValidationError) Error() string {
	return fmt.Sprintf("json: validator error at element %d: %v", e.ElementIndex, e.Err)
}

func (e *JsonValidationError) Unwrap() error { return e.Err }

// JsonValidationFailed reports a Validator that returned false.
type JsonValidationFailed struct{ ElementIndex int64 }

func (e *JsonValidationFailed) Error() string {
	return fmt.Sprintf("json: element %d failed validation", e.ElementIndex)
}

// JsonSizeLimit reports a guard-rail violation: max_elements,
// max_element_bytes, or max_string_length.
type JsonSizeLimit struct {
	ElementIndex int64
	Limit        string
	Message      string
}

func (e *JsonSizeLimit) Error() string {
	return fmt.Sprintf("json: limit %s exceeded at element %d: %s", e.Limit, e.ElementIndex, e.Message)
}
