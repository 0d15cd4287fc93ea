package model

import "errors"

// Expected negative outcomes of booking operations. These are normal results
// for the caller, not infrastructure faults.
var (
	// ErrSlotNotAvailable - the requested slot does not exist or is already taken.
	ErrSlotNotAvailable = errors.New("slot not available")

	// ErrNoAppointment - no held slot matches the client's description.
	ErrNoAppointment = errors.New("no matching appointment")

	// ErrTargetNotAvailable - reschedule target slot is absent or taken;
	// the existing booking is left untouched.
	ErrTargetNotAvailable = errors.New("requested new time not available")
)
