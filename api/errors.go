package api

import "fmt"

// FallbackNetworkMessage is shown to users when a request got no response at
// all and there is no backend message to relay.
const FallbackNetworkMessage = "could not reach the server, check your connection"

// NetworkError means no usable response was received: DNS failure, refused
// connection, timeout, or a body that could not be read.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError means the backend rejected the bearer token (HTTP 401) or no
// token was available for an authenticated call.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication required"
	}
	return "authentication failed: " + e.Message
}

// ServerError is a response the backend produced deliberately: an error
// status or a success:false envelope. Message carries the backend-supplied
// text verbatim so callers can show it to the user unchanged.
type ServerError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// ValidationError is a client-side rejection raised before any network call
// is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// UserMessage converts any SDK error into the string a front end should
// display: backend messages verbatim when present, a generic fallback for
// connectivity problems.
func UserMessage(err error) string {
	switch e := err.(type) {
	case nil:
		return ""
	case *ServerError:
		if e.Message != "" {
			return e.Message
		}
		return "something went wrong, please try again"
	case *ValidationError:
		return e.Message
	case *AuthError:
		return "please log in again"
	case *NetworkError:
		return FallbackNetworkMessage
	default:
		return err.Error()
	}
}
