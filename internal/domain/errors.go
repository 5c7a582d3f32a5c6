package domain

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindInvalid
	KindConflict
	KindUnauthorized
)

// Error is a client visible failure. The message is returned as is.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Invalidf builds an InvalidRequest error with a formatted message.
func Invalidf(format string, args ...any) error {
	return newError(KindInvalid, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first domain error in the chain, or 0.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

var (
	ErrFlightNotFound    = newError(KindNotFound, "flight not found")
	ErrNewFlightNotFound = newError(KindNotFound, "new flight not found")
	ErrBookingNotFound   = newError(KindNotFound, "booking not found")
	ErrUserNotFound      = newError(KindNotFound, "user not found")
)

var (
	ErrInvalidSeatClass       = newError(KindInvalid, "invalid seat class, must be 'economy' or 'business'")
	ErrNoEconomySeats         = newError(KindInvalid, "no available economy seats on this flight")
	ErrNoBusinessSeats        = newError(KindInvalid, "no available business seats on this flight")
	ErrNoEconomySeatsNew      = newError(KindInvalid, "no available economy seats on the new flight")
	ErrNoBusinessSeatsNew     = newError(KindInvalid, "no available business seats on the new flight")
	ErrSeatTaken              = newError(KindInvalid, "seat already taken")
	ErrSeatTakenNew           = newError(KindInvalid, "your preferred seat is not available on the new flight")
	ErrSeatLocked             = newError(KindInvalid, "seat is being booked by another request, try again")
	ErrSameFlight             = newError(KindInvalid, "booking is already on this flight")
	ErrRescheduleCancelled    = newError(KindInvalid, "cannot reschedule a cancelled booking")
	ErrRescheduleCheckedIn    = newError(KindInvalid, "cannot reschedule a checked-in booking")
	ErrCancelCheckedIn        = newError(KindInvalid, "cannot cancel a checked-in booking")
	ErrCheckInNotConfirmed    = newError(KindInvalid, "only confirmed bookings can be checked in")
	ErrUpdateNotConfirmed     = newError(KindInvalid, "only confirmed bookings can be updated")
	ErrEmptyPatch             = newError(KindInvalid, "no fields to update")
	ErrTermsNotAccepted       = newError(KindInvalid, "you must agree to the terms and conditions to join Falcon Flyer")
	ErrInvalidLoginIdentifier = newError(KindInvalid, "exactly one of username, email or falcon_flyer_number is required")
)

var (
	ErrBookingAlreadyCancelled = newError(KindConflict, "booking already cancelled")
	ErrBookingChanged          = newError(KindConflict, "booking was modified by another request, reload and retry")
	ErrAlreadyMember           = newError(KindConflict, "you are already a Falcon Flyer member")
	ErrUserExists              = newError(KindConflict, "username or email already exists")
)

var (
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid credentials")
)

// NoSeatsError picks the sentinel for an exhausted cabin.
func NoSeatsError(class SeatClass, rescheduling bool) error {
	switch {
	case class == SeatClassBusiness && rescheduling:
		return ErrNoBusinessSeatsNew
	case class == SeatClassBusiness:
		return ErrNoBusinessSeats
	case rescheduling:
		return ErrNoEconomySeatsNew
	default:
		return ErrNoEconomySeats
	}
}
