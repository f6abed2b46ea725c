package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"hotelbook/internal/billing"
	"hotelbook/internal/catalog"
)

var (
	ErrHotelNotFound       = catalog.ErrHotelNotFound
	ErrReservationNotFound = errors.New("reservation not found")
	ErrCapacityExceeded    = errors.New("not enough rooms")
	ErrAlreadyStayed       = errors.New("reservation already checked in")
	ErrNotCheckedIn        = errors.New("reservation was never checked in")
	ErrRetentionNotElapsed = errors.New("retention period has not elapsed")
	ErrNotProcessed        = errors.New("reservation is neither cancelled nor stayed")
	ErrNotBilled           = errors.New("reservation has no bill to discount")
	ErrDuplicateBooking    = errors.New("customer already has a reservation on this checkin date")
	ErrInvalidDiscount     = billing.ErrInvalidDiscount
)

// InputError collects per-field validation messages of a reservation draft.
type InputError struct {
	fields map[string][]string
}

func newInputError() *InputError {
	return &InputError{fields: make(map[string][]string)}
}

// IsInputError returns the InputError in err's chain, or nil.
func IsInputError(err error) *InputError {
	if err == nil {
		return nil
	}
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr
	}
	return nil
}

func (ie *InputError) addError(field, msg string) {
	ie.fields[field] = append(ie.fields[field], msg)
}

func (ie *InputError) empty() bool {
	return len(ie.fields) == 0
}

func (ie *InputError) Error() string {
	keys := make([]string, 0, len(ie.fields))
	for k := range ie.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(ie.fields[k], "; ")))
	}
	return "invalid reservation: " + strings.Join(parts, ", ")
}

func (ie *InputError) Fields() map[string][]string {
	return ie.fields
}

// CapacityError lists the room types a reservation asked too many units of.
type CapacityError struct {
	Requested map[string]int
	Limit     map[string]int
}

func IsCapacityError(err error) *CapacityError {
	if err == nil {
		return nil
	}
	var capErr *CapacityError
	if errors.As(err, &capErr) {
		return capErr
	}
	return nil
}

func (e *CapacityError) Error() string {
	types := make([]string, 0, len(e.Requested))
	for t := range e.Requested {
		types = append(types, t)
	}
	sort.Strings(types)

	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s requested %d, limit %d", t, e.Requested[t], e.Limit[t]))
	}
	return fmt.Sprintf("%s: %s", ErrCapacityExceeded, strings.Join(parts, ", "))
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}
