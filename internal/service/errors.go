package service

import "errors"

var (
	// ErrPermissionDenied means the caller is not allowed to mutate the entity.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidInterval means the booking interval is malformed.
	ErrInvalidInterval = errors.New("invalid booking interval")
	// ErrItemUnavailable means the item is not open for booking.
	ErrItemUnavailable = errors.New("item is not available")
	// ErrAlreadyDecided means the booking has left the waiting state.
	ErrAlreadyDecided = errors.New("booking already decided")
	// ErrUnknownFilter means the state filter is not one of the known values.
	ErrUnknownFilter = errors.New("unknown state")
	// ErrNotRented means the author never held a booking of the item.
	ErrNotRented = errors.New("item was not rented by user")
	// ErrRentalNotFinished means the rental has not ended yet.
	ErrRentalNotFinished = errors.New("rental is not finished")
	// ErrBlankText means a required text field is empty or whitespace.
	ErrBlankText = errors.New("text must not be blank")
)
