package usecase

import "errors"

// Booking error taxonomy. Handlers translate these with errors.Is; anything
// else coming out of a booking operation is a server-side failure.
var (
	ErrOccurrenceNotFound = errors.New("class occurrence not found")
	ErrAlreadyBooked      = errors.New("already has an active booking for this class")
	ErrOccurrenceFull     = errors.New("class is full and waitlisting is disabled")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrAlreadyCancelled   = errors.New("booking is already cancelled")
	ErrNotCancellable     = errors.New("attended bookings cannot be cancelled")
	ErrNotConfirmed       = errors.New("only confirmed bookings can be checked in")
	ErrForbidden          = errors.New("not allowed to modify this booking")

	// ErrStoreUnavailable wraps transient store failures. The whole operation
	// ran in one transaction, so retrying is safe: every guard is re-evaluated.
	ErrStoreUnavailable = errors.New("booking store unavailable")
)

var domainErrors = []error{
	ErrOccurrenceNotFound,
	ErrAlreadyBooked,
	ErrOccurrenceFull,
	ErrBookingNotFound,
	ErrAlreadyCancelled,
	ErrNotCancellable,
	ErrNotConfirmed,
	ErrForbidden,
}

func isDomainError(err error) bool {
	for _, domain := range domainErrors {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}
