package service

import (
	"context"
	"fmt"
	"time"

	"github.com/zenbeauty/salon-assistant/internal/calendar"
	"github.com/zenbeauty/salon-assistant/internal/catalog"
	"github.com/zenbeauty/salon-assistant/internal/model"
	"github.com/zenbeauty/salon-assistant/internal/validator"
	"go.uber.org/zap"
)

// MirrorCaveat is appended to a successful result when the external calendar
// call failed. The local transition is never rolled back for mirror failures.
const MirrorCaveat = "booked locally, external calendar sync failed"

// BookingResult describes a completed booking transition.
type BookingResult struct {
	When       time.Time
	Specialist string
	ClientID   string

	// Caveat is non-empty when the external mirror call failed; the local
	// state change still happened.
	Caveat string
}

// BookingService is the only writer of slot occupancy. It enforces the
// Free <-> Held state machine and mirrors transitions to the external
// calendar best-effort, outside the store's critical section.
type BookingService struct {
	store   SlotStore
	catalog *catalog.Catalog
	mirror  calendar.Mirror
	loc     *time.Location
	logger  *zap.Logger
}

func NewBookingService(store SlotStore, cat *catalog.Catalog, mirror calendar.Mirror, loc *time.Location, logger *zap.Logger) *BookingService {
	return &BookingService{
		store:   store,
		catalog: cat,
		mirror:  mirror,
		loc:     loc,
		logger:  logger,
	}
}

// Book takes a free slot for the client. Returns model.ErrSlotNotAvailable
// when no free slot exists at the requested time.
func (s *BookingService) Book(ctx context.Context, when, specialist, clientID string) (*BookingResult, error) {
	at, err := validator.DateTime(when, s.loc)
	if err != nil {
		return nil, err
	}

	id, err := validator.ClientID(clientID)
	if err != nil {
		return nil, err
	}

	name, ok := s.catalog.ResolveSpecialist(specialist)
	if !ok {
		return nil, fmt.Errorf("%w: unknown specialist %q", validator.ErrInvalid, specialist)
	}

	held, err := s.store.Hold(ctx, at, name, id)
	if err != nil {
		return nil, fmt.Errorf("hold slot: %w", err)
	}

	if !held {
		return nil, model.ErrSlotNotAvailable
	}

	result := &BookingResult{When: at, Specialist: name, ClientID: id}

	// Mirror write happens after the local transition and never undoes it.
	ref, err := s.mirror.Create(ctx, s.eventSummary(name, id), at, at.Add(SlotInterval))
	if err != nil {
		s.logger.Warn("Calendar mirror create failed",
			zap.Time("slot_at", at),
			zap.String("specialist", name),
			zap.Error(err),
		)
		result.Caveat = MirrorCaveat
	} else if ref != "" {
		if err := s.store.SetEventRef(ctx, at, name, ref); err != nil {
			s.logger.Warn("Failed to persist mirror event ref", zap.String("event_id", ref), zap.Error(err))
			// The slot was freed before the ref landed; drop the event so the
			// external calendar doesn't keep a booking that no longer exists.
			if derr := s.mirror.Delete(ctx, ref); derr != nil {
				s.logger.Warn("Failed to drop orphaned mirror event", zap.String("event_id", ref), zap.Error(derr))
			}
		}
	}

	s.logger.Info("Slot booked",
		zap.Time("slot_at", at),
		zap.String("specialist", name),
		zap.String("client_id", id),
		zap.Bool("mirrored", result.Caveat == ""),
	)

	return result, nil
}

// Cancel frees the client's appointment with the specialist on the given
// calendar day. Matching is by day, not exact timestamp, so imprecise
// cancellation requests still resolve. Returns model.ErrNoAppointment when
// nothing matches.
func (s *BookingService) Cancel(ctx context.Context, date, specialist, clientID string) (*BookingResult, error) {
	day, err := validator.Date(date, s.loc)
	if err != nil {
		return nil, err
	}

	id, err := validator.ClientID(clientID)
	if err != nil {
		return nil, err
	}

	name, ok := s.catalog.ResolveSpecialist(specialist)
	if !ok {
		return nil, fmt.Errorf("%w: unknown specialist %q", validator.ErrInvalid, specialist)
	}

	freed, err := s.store.Release(ctx, day, name, id)
	if err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}

	if freed == nil {
		return nil, model.ErrNoAppointment
	}

	result := &BookingResult{When: freed.At, Specialist: name, ClientID: id}

	if freed.EventID != nil {
		if err := s.mirror.Delete(ctx, *freed.EventID); err != nil {
			s.logger.Warn("Calendar mirror delete failed",
				zap.String("event_id", *freed.EventID),
				zap.Error(err),
			)
			result.Caveat = "cancelled locally, external calendar sync failed"
		}
	}

	s.logger.Info("Booking cancelled",
		zap.Time("slot_at", freed.At),
		zap.String("specialist", name),
		zap.String("client_id", id),
	)

	return result, nil
}

// Reschedule moves the client's booking with a specialist from oldWhen to
// newWhen. Both slots change or neither does; mirror failures only degrade
// the result message.
func (s *BookingService) Reschedule(ctx context.Context, oldWhen, newWhen, specialist, clientID string) (*BookingResult, error) {
	oldAt, err := validator.DateTime(oldWhen, s.loc)
	if err != nil {
		return nil, err
	}

	newAt, err := validator.DateTime(newWhen, s.loc)
	if err != nil {
		return nil, err
	}

	id, err := validator.ClientID(clientID)
	if err != nil {
		return nil, err
	}

	name, ok := s.catalog.ResolveSpecialist(specialist)
	if !ok {
		return nil, fmt.Errorf("%w: unknown specialist %q", validator.ErrInvalid, specialist)
	}

	moved, err := s.store.Move(ctx, oldAt, newAt, name, id)
	if err != nil {
		return nil, err
	}

	result := &BookingResult{When: newAt, Specialist: name, ClientID: id}

	if moved.EventID != nil {
		if err := s.mirror.Update(ctx, *moved.EventID, newAt, newAt.Add(SlotInterval)); err != nil {
			s.logger.Warn("Calendar mirror update failed",
				zap.String("event_id", *moved.EventID),
				zap.Error(err),
			)
			result.Caveat = "rescheduled locally, external calendar sync failed"
		}
	} else {
		// The original booking never made it to the calendar; try a fresh event.
		ref, err := s.mirror.Create(ctx, s.eventSummary(name, id), newAt, newAt.Add(SlotInterval))
		if err != nil {
			s.logger.Warn("Calendar mirror create failed on reschedule", zap.Error(err))
			result.Caveat = "rescheduled locally, external calendar sync failed"
		} else if ref != "" {
			if err := s.store.SetEventRef(ctx, newAt, name, ref); err != nil {
				s.logger.Warn("Failed to persist mirror event ref", zap.String("event_id", ref), zap.Error(err))
				if derr := s.mirror.Delete(ctx, ref); derr != nil {
					s.logger.Warn("Failed to drop orphaned mirror event", zap.String("event_id", ref), zap.Error(derr))
				}
			}
		}
	}

	s.logger.Info("Booking rescheduled",
		zap.Time("old_at", oldAt),
		zap.Time("new_at", newAt),
		zap.String("specialist", name),
		zap.String("client_id", id),
	)

	return result, nil
}

// Reminder returns every appointment currently held by the client. Returns
// model.ErrNoAppointment when the client has none.
func (s *BookingService) Reminder(ctx context.Context, clientID string) ([]model.Slot, error) {
	id, err := validator.ClientID(clientID)
	if err != nil {
		return nil, err
	}

	slots, err := s.store.HeldByClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list held slots: %w", err)
	}

	if len(slots) == 0 {
		return nil, model.ErrNoAppointment
	}

	return slots, nil
}

func (s *BookingService) eventSummary(specialist, clientID string) string {
	service, _ := s.catalog.ServiceFor(specialist)
	return fmt.Sprintf("Zen Beauty Salon: %s (%s) - client %s", specialist, service, clientID)
}
