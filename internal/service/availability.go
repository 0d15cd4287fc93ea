package service

import (
	"context"
	"fmt"
	"time"

	"github.com/zenbeauty/salon-assistant/internal/catalog"
	"github.com/zenbeauty/salon-assistant/internal/validator"
	"go.uber.org/zap"
)

// AvailabilityService is the read-only projection of the slot store.
type AvailabilityService struct {
	store   SlotStore
	catalog *catalog.Catalog
	loc     *time.Location
	logger  *zap.Logger
}

func NewAvailabilityService(store SlotStore, cat *catalog.Catalog, loc *time.Location, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		store:   store,
		catalog: cat,
		loc:     loc,
		logger:  logger,
	}
}

// ListBySpecialist returns the free times (HH:MM, chronological) for one
// specialist on a date. An empty slice means no availability that day.
func (s *AvailabilityService) ListBySpecialist(ctx context.Context, date, specialist string) ([]string, error) {
	day, err := validator.Date(date, s.loc)
	if err != nil {
		return nil, err
	}

	name, ok := s.catalog.ResolveSpecialist(specialist)
	if !ok {
		return nil, fmt.Errorf("%w: unknown specialist %q", validator.ErrInvalid, specialist)
	}

	slots, err := s.store.FreeBySpecialistOnDay(ctx, day, name)
	if err != nil {
		return nil, fmt.Errorf("list free slots: %w", err)
	}

	times := make([]string, 0, len(slots))
	for _, slot := range slots {
		times = append(times, slot.At.In(s.loc).Format("15:04"))
	}

	return times, nil
}

// ListByService returns the free times on a date for every specialist in a
// service category, keyed by specialist name.
func (s *AvailabilityService) ListByService(ctx context.Context, date, service string) (map[string][]string, error) {
	day, err := validator.Date(date, s.loc)
	if err != nil {
		return nil, err
	}

	spec, ok := s.catalog.ResolveService(service)
	if !ok {
		return nil, fmt.Errorf("%w: unknown service %q", validator.ErrInvalid, service)
	}

	slots, err := s.store.FreeByServiceOnDay(ctx, day, spec)
	if err != nil {
		return nil, fmt.Errorf("list free slots by service: %w", err)
	}

	bySpecialist := make(map[string][]string)
	for _, slot := range slots {
		bySpecialist[slot.Specialist] = append(bySpecialist[slot.Specialist], slot.At.In(s.loc).Format("15:04"))
	}

	return bySpecialist, nil
}
