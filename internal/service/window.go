package service

import (
	"context"
	"time"

	"github.com/zenbeauty/salon-assistant/internal/catalog"
	"github.com/zenbeauty/salon-assistant/internal/model"
	"go.uber.org/zap"
)

const (
	// SlotInterval is the fixed booking grid step.
	SlotInterval = 30 * time.Minute

	// WindowDays is the rolling window the slot table covers.
	WindowDays = 14
)

// openHours returns the service hours for a weekday. Sunday is closed.
func openHours(day time.Weekday) (openHour, closeHour int, ok bool) {
	switch day {
	case time.Sunday:
		return 0, 0, false
	case time.Saturday:
		return 9, 13, true
	default:
		return 8, 17, true
	}
}

// GenerateWindow produces the free slot grid for every specialist in the
// catalog, starting at windowStart (midnight) and covering the given number
// of days. Slots land on SlotInterval boundaries inside service hours.
func GenerateWindow(windowStart time.Time, days int, entries []model.CatalogEntry) []model.Slot {
	var slots []model.Slot

	for day := 0; day < days; day++ {
		date := windowStart.AddDate(0, 0, day)

		openHour, closeHour, ok := openHours(date.Weekday())
		if !ok {
			continue
		}

		dayOpen := time.Date(date.Year(), date.Month(), date.Day(), openHour, 0, 0, 0, date.Location())
		dayClose := time.Date(date.Year(), date.Month(), date.Day(), closeHour, 0, 0, 0, date.Location())

		for _, entry := range entries {
			for _, sp := range entry.Specialists {
				for at := dayOpen; at.Before(dayClose); at = at.Add(SlotInterval) {
					slots = append(slots, model.Slot{
						At:             at,
						Specialization: entry.Service,
						Specialist:     sp.Name,
						IsAvailable:    true,
					})
				}
			}
		}
	}

	return slots
}

// WindowService keeps the rolling slot window topped up.
type WindowService struct {
	store   SlotStore
	catalog *catalog.Catalog
	loc     *time.Location
	logger  *zap.Logger
}

func NewWindowService(store SlotStore, cat *catalog.Catalog, loc *time.Location, logger *zap.Logger) *WindowService {
	return &WindowService{
		store:   store,
		catalog: cat,
		loc:     loc,
		logger:  logger,
	}
}

// Rebuild regenerates the rolling window starting today. Held future slots
// survive the rebuild; everything before the window start is dropped.
func (s *WindowService) Rebuild(ctx context.Context) error {
	now := time.Now().In(s.loc)
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	slots := GenerateWindow(windowStart, WindowDays, s.catalog.All())

	if err := s.store.ReplaceWindow(ctx, windowStart, slots); err != nil {
		return err
	}

	s.logger.Info("Slot window rebuilt",
		zap.Time("window_start", windowStart),
		zap.Int("days", WindowDays),
		zap.Int("slots", len(slots)),
	)

	return nil
}
