package community

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse means the upstream returned a successful-looking
	// envelope that is missing fields the endpoint contract requires.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrPrivateProfile and ErrPrivateInventory are distinct from generic
	// failures so callers can branch on them.
	ErrPrivateProfile   = errors.New("this profile is private")
	ErrPrivateInventory = errors.New("this inventory is private")

	ErrInvalidAPIKey = errors.New("invalid API key")
	ErrAccessDenied  = errors.New("access denied")
	ErrNotLoggedIn   = errors.New("not logged in")

	// ErrEmailNotValidated is returned by the web API key page when the
	// account has no validated email address.
	ErrEmailNotValidated = errors.New("you must have a validated email address to create a Steam Web API key")

	// ErrSessionExpired is returned instead of a private-profile error
	// when the impossible happens: our own inventory is reported private.
	// The session layer is notified through Client.SessionExpired first.
	ErrSessionExpired = errors.New("session expired")

	// ErrCommentNotDeleted is returned when the post-deletion comment
	// fragment still contains the deleted comment id, regardless of what
	// the upstream success flag claims.
	ErrCommentNotDeleted = errors.New("failed to delete comment")

	ErrUnknown = errors.New("unknown error")
)

// UpstreamError carries an explicit error message found in a response body,
// optionally with the EResult code Steam appends to some of them, e.g.
// "Failure (2)".
type UpstreamError struct {
	Message string
	EResult int
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// EResultError is a bare non-1 EResult success code, as returned by the
// chat upload endpoints.
type EResultError struct {
	Code    int
	Message string
}

func (e *EResultError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("eresult %d", e.Code)
}

// StatusError is a transport-level non-2xx response with no more specific
// classification.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.StatusCode)
}
