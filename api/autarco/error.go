package autarco

import (
	"errors"
	"fmt"
)

// ErrAutarco is the root of every error returned by this package.
// Use errors.Is(err, ErrAutarco) to handle any API failure, or errors.As
// with one of the concrete kinds below for differentiated handling.
var ErrAutarco = errors.New("autarco")

// ConnectionError reports a transport failure or a non-2xx, non-401 response.
type ConnectionError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *ConnectionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConnectionError) Unwrap() error        { return e.Err }
func (e *ConnectionError) Is(target error) bool { return target == ErrAutarco }

// ConnectionTimeoutError reports that the request timeout elapsed before a
// response arrived. It is not a ConnectionError.
type ConnectionTimeoutError struct {
	Message string
	Err     error
}

func (e *ConnectionTimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConnectionTimeoutError) Unwrap() error        { return e.Err }
func (e *ConnectionTimeoutError) Is(target error) bool { return target == ErrAutarco }

// AuthenticationError reports an HTTP 401 from the API.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string        { return e.Message }
func (e *AuthenticationError) Unwrap() error        { return e.Err }
func (e *AuthenticationError) Is(target error) bool { return target == ErrAutarco }

// GenericError reports an unexpected response: a non-JSON content type or a
// payload that does not have the expected shape.
type GenericError struct {
	Message     string
	ContentType string
	Body        string
	Err         error
}

func (e *GenericError) Error() string {
	switch {
	case e.ContentType != "":
		return fmt.Sprintf("%s (Content-Type: %s, response: %q)", e.Message, e.ContentType, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *GenericError) Unwrap() error        { return e.Err }
func (e *GenericError) Is(target error) bool { return target == ErrAutarco }

func malformed(format string, args ...any) *GenericError {
	return &GenericError{Message: fmt.Sprintf("malformed response from the Autarco API: "+format, args...)}
}

func undecodable(err error) *GenericError {
	return &GenericError{Message: "unable to decode response from the Autarco API", Err: err}
}
