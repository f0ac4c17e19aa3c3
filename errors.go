package dailymood

import (
	"errors"
	"fmt"

	"github.com/xraph/dailymood/types"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound       = errors.New("dailymood: not found")
	ErrAlreadyExists  = errors.New("dailymood: already exists")
	ErrInvalidInput   = errors.New("dailymood: invalid input")
	ErrInvalidAddress = types.ErrInvalidAddress

	// Access errors
	ErrUnauthorized = errors.New("dailymood: unauthorized")
	ErrInvalidOwner = errors.New("dailymood: invalid owner")

	// Log errors
	ErrIndexOutOfBounds = errors.New("dailymood: index out of bounds")

	// Contract errors
	ErrContractNotFound = errors.New("dailymood: contract not found")

	// Store errors
	ErrStoreNotReady     = errors.New("dailymood: store not ready")
	ErrStoreClosed       = errors.New("dailymood: store is closed")
	ErrTransactionFailed = errors.New("dailymood: transaction failed")
	ErrMigrationFailed   = errors.New("dailymood: migration failed")
)

// Role names the permission a call requires.
type Role string

// Roles checked by contract operations.
const (
	RoleOwner   Role = "owner"
	RoleAllowed Role = "allowed"
)

// UnauthorizedAccountError reports that Account lacks Role for the attempted
// operation. It matches ErrUnauthorized under errors.Is.
type UnauthorizedAccountError struct {
	Account types.Address
	Role    Role
}

func (e *UnauthorizedAccountError) Error() string {
	return fmt.Sprintf("dailymood: unauthorized account %s: %s role required", e.Account.Hex(), e.Role)
}

// Is implements errors.Is matching.
func (e *UnauthorizedAccountError) Is(target error) bool {
	return target == ErrUnauthorized
}

// IndexOutOfBoundsError reports an index outside [0, Length) of Account's
// log. It matches ErrIndexOutOfBounds under errors.Is.
type IndexOutOfBoundsError struct {
	Account types.Address
	Index   int
	Length  int
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("dailymood: index out of bounds: index %d, length %d (account %s)", e.Index, e.Length, e.Account.Hex())
}

// Is implements errors.Is matching.
func (e *IndexOutOfBoundsError) Is(target error) bool {
	return target == ErrIndexOutOfBounds
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("dailymood: validation failed for %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidInput.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Unwrap returns the underlying cause, if any.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "dailymood: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("dailymood: %d errors occurred (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsOutOfBounds reports whether err is a positional index failure.
func IsOutOfBounds(err error) bool {
	return errors.Is(err, ErrIndexOutOfBounds)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrContractNotFound)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}

// ParseAddresses parses a list of hex addresses, collecting every invalid
// entry into a MultiError of ValidationErrors.
func ParseAddresses(values []string) ([]types.Address, error) {
	out := make([]types.Address, 0, len(values))
	var errs MultiError
	for i, v := range values {
		a, err := types.ParseAddress(v)
		if err != nil {
			errs.Add(ValidationError{
				Field:   fmt.Sprintf("addresses[%d]", i),
				Message: err.Error(),
				Err:     err,
			})
			continue
		}
		out = append(out, a)
	}
	if errs.HasErrors() {
		return nil, errs
	}
	return out, nil
}
