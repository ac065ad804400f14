package status

import (
	"errors"
	"fmt"
)

var (
	// Local rejections. These never reach the network and are reported
	// synchronously to the caller.
	ErrIllegalTransition   = errors.New("trade: illegal transition")
	ErrTransitionInFlight  = errors.New("trade: transition already in flight")
	ErrDuplicateSubmission = errors.New("chat: duplicate submission")
	ErrPermission          = errors.New("trade: caller role not allowed")
	ErrReasonRequired      = errors.New("trade: reject requires a reason")

	// ErrSessionExpired is returned when a credential refresh fails and the
	// stored token pair has been cleared. The UI responds by returning to the
	// unauthenticated entry point.
	ErrSessionExpired = errors.New("auth: session expired")
)

// Kind classifies a network-observed failure once, at the gateway boundary.
type Kind int

const (
	KindNetwork Kind = iota
	KindAuth
	KindPermission
	KindNotFound
	KindValidation
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// APIError is a classified backend failure. Components above the gateway
// pass it upward unchanged.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("api: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("api: %s (%d)", e.Kind, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
