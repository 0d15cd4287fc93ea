package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Mirror is the best-effort external calendar collaborator. Failures here
// must never roll back local booking state; callers treat any error as a
// degraded-success caveat.
type Mirror interface {
	// Create inserts an event and returns its external id.
	Create(ctx context.Context, summary string, start, end time.Time) (string, error)

	// Update moves an existing event to a new time range.
	Update(ctx context.Context, ref string, start, end time.Time) error

	// Delete removes an event.
	Delete(ctx context.Context, ref string) error
}

const callTimeout = 5 * time.Second

// GoogleMirror mirrors bookings into a Google Calendar via a service account.
type GoogleMirror struct {
	svc        *gcal.Service
	calendarID string
	timezone   string
	logger     *zap.Logger
}

func NewGoogleMirror(ctx context.Context, serviceAccountJSON, calendarID, timezone string, logger *zap.Logger) (*GoogleMirror, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsJSON([]byte(serviceAccountJSON)),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &GoogleMirror{
		svc:        svc,
		calendarID: calendarID,
		timezone:   timezone,
		logger:     logger,
	}, nil
}

func (m *GoogleMirror) Create(ctx context.Context, summary string, start, end time.Time) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	event := &gcal.Event{
		Summary: summary,
		Start:   m.eventTime(start),
		End:     m.eventTime(end),
	}

	created, err := m.svc.Events.Insert(m.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}

	m.logger.Debug("Calendar event created", zap.String("event_id", created.Id))
	return created.Id, nil
}

func (m *GoogleMirror) Update(ctx context.Context, ref string, start, end time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	patch := &gcal.Event{
		Start: m.eventTime(start),
		End:   m.eventTime(end),
	}

	if _, err := m.svc.Events.Patch(m.calendarID, ref, patch).Context(ctx).Do(); err != nil {
		return fmt.Errorf("patch calendar event %s: %w", ref, err)
	}

	return nil
}

func (m *GoogleMirror) Delete(ctx context.Context, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if err := m.svc.Events.Delete(m.calendarID, ref).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event %s: %w", ref, err)
	}

	return nil
}

func (m *GoogleMirror) eventTime(t time.Time) *gcal.EventDateTime {
	return &gcal.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: m.timezone,
	}
}

// Disabled is the no-op mirror used when calendar credentials are not
// configured. Create returns an empty ref, which callers treat as
// "nothing to store" rather than a failure.
type Disabled struct{}

func (Disabled) Create(ctx context.Context, summary string, start, end time.Time) (string, error) {
	return "", nil
}

func (Disabled) Update(ctx context.Context, ref string, start, end time.Time) error { return nil }

func (Disabled) Delete(ctx context.Context, ref string) error { return nil }
