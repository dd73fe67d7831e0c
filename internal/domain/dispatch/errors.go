package dispatch

import "errors"

// Error kinds surfaced by coordinator operations. Every failure wraps exactly
// one of these sentinels so callers can classify with errors.Is.
var (
	// ErrInvalidInput flags empty required fields or out-of-range values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound flags an emergency or resource id out of range.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized flags a failed role check.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidState flags an operation attempted against a status that forbids it.
	ErrInvalidState = errors.New("invalid state")
	// ErrResponderUnavailable flags an assignment candidate that is not active and available.
	ErrResponderUnavailable = errors.New("responder unavailable")
	// ErrInsufficientResource flags an allocation exceeding the remaining quantity.
	ErrInsufficientResource = errors.New("insufficient resource")
	// ErrAlreadyRegistered flags re-registration of an active responder identity.
	ErrAlreadyRegistered = errors.New("already registered")
	// ErrNotAssigned flags a status update by a caller outside the assigned responder list.
	ErrNotAssigned = errors.New("not assigned")
)

// kinds maps error sentinels to their stable wire names.
//
//nolint:gochecknoglobals // Lookup table for error classification.
var kinds = map[error]string{
	ErrInvalidInput:         "INVALID_INPUT",
	ErrNotFound:             "NOT_FOUND",
	ErrUnauthorized:         "UNAUTHORIZED",
	ErrInvalidState:         "INVALID_STATE",
	ErrResponderUnavailable: "RESPONDER_UNAVAILABLE",
	ErrInsufficientResource: "INSUFFICIENT_RESOURCE",
	ErrAlreadyRegistered:    "ALREADY_REGISTERED",
	ErrNotAssigned:          "NOT_ASSIGNED",
}

// ErrorKind returns the stable wire name of the error's kind, or "INTERNAL"
// when the error does not wrap a dispatch sentinel.
func ErrorKind(err error) string {
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}

	return "INTERNAL"
}
