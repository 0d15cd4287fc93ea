package service

import (
	"context"
	"time"

	"github.com/zenbeauty/salon-assistant/internal/model"
)

// SlotStore is the persistence contract the services run against. The
// Postgres implementation lives in internal/repository; tests use an
// in-memory fake.
//
// Hold, Release and Move are the only writers of occupancy state and each
// must be atomic with respect to its precondition check: two concurrent
// Hold calls on the same (at, specialist) key must never both succeed.
type SlotStore interface {
	// FreeBySpecialistOnDay returns the specialist's free slots on the
	// given calendar day, ordered chronologically.
	FreeBySpecialistOnDay(ctx context.Context, day time.Time, specialist string) ([]model.Slot, error)

	// FreeByServiceOnDay returns all free slots for a service category on
	// the given calendar day, ordered by specialist then time.
	FreeByServiceOnDay(ctx context.Context, day time.Time, service model.Specialization) ([]model.Slot, error)

	// Hold marks the slot at the natural key as taken by the client.
	// Returns false without changing anything when no free slot matches.
	Hold(ctx context.Context, at time.Time, specialist, clientID string) (bool, error)

	// Release frees the client's held slot with the given specialist on the
	// given calendar day, clearing occupant and event ref. Returns the slot
	// as it was before release, or nil when nothing matched.
	Release(ctx context.Context, day time.Time, specialist, clientID string) (*model.Slot, error)

	// Move atomically frees the old slot and holds the new one for the same
	// client, carrying the event ref forward. Both preconditions are checked
	// under lock before either row changes. Returns model.ErrNoAppointment
	// or model.ErrTargetNotAvailable on precondition failure.
	Move(ctx context.Context, oldAt, newAt time.Time, specialist, clientID string) (*model.Slot, error)

	// HeldByClient returns every slot currently held by the client, ordered
	// chronologically.
	HeldByClient(ctx context.Context, clientID string) ([]model.Slot, error)

	// SetEventRef records the mirrored calendar event id on a held slot.
	SetEventRef(ctx context.Context, at time.Time, specialist, ref string) error

	// ReplaceWindow tops up the rolling slot grid. Rows before windowStart
	// are dropped; rows inside the window, free or held, stay as they are
	// and only missing grid rows are inserted.
	ReplaceWindow(ctx context.Context, windowStart time.Time, slots []model.Slot) error
}
