package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zenbeauty/salon-assistant/internal/model"
	"github.com/zenbeauty/salon-assistant/internal/service"
	"github.com/zenbeauty/salon-assistant/internal/validator"
	"go.uber.org/zap"
)

type fakeAvailability struct {
	bySpecialist map[string][]string
	byService    map[string]map[string][]string
	err          error
}

func (f *fakeAvailability) ListBySpecialist(ctx context.Context, date, specialist string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bySpecialist[specialist], nil
}

func (f *fakeAvailability) ListByService(ctx context.Context, date, serviceName string) (map[string][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byService[serviceName], nil
}

type fakeBooking struct {
	bookErr       error
	cancelErr     error
	rescheduleErr error
	reminderErr   error

	caveat    string
	reminders []model.Slot
}

func (f *fakeBooking) result(clientID, specialist string) *service.BookingResult {
	return &service.BookingResult{
		When:       time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		Specialist: specialist,
		ClientID:   clientID,
		Caveat:     f.caveat,
	}
}

func (f *fakeBooking) Book(ctx context.Context, when, specialist, clientID string) (*service.BookingResult, error) {
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return f.result(clientID, specialist), nil
}

func (f *fakeBooking) Cancel(ctx context.Context, date, specialist, clientID string) (*service.BookingResult, error) {
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return f.result(clientID, specialist), nil
}

func (f *fakeBooking) Reschedule(ctx context.Context, oldWhen, newWhen, specialist, clientID string) (*service.BookingResult, error) {
	if f.rescheduleErr != nil {
		return nil, f.rescheduleErr
	}
	return f.result(clientID, specialist), nil
}

func (f *fakeBooking) Reminder(ctx context.Context, clientID string) ([]model.Slot, error) {
	if f.reminderErr != nil {
		return nil, f.reminderErr
	}
	return f.reminders, nil
}

type fakeCatalog struct{}

func (fakeCatalog) All() []model.CatalogEntry {
	return []model.CatalogEntry{
		{
			Service: model.SpecializationHairstylist,
			Specialists: []model.CatalogSpecialist{
				{Name: "emma thompson"},
				{Name: "olivia parker"},
			},
		},
	}
}

func (fakeCatalog) ServiceFor(specialist string) (model.Specialization, bool) {
	if specialist == "emma thompson" || specialist == "olivia parker" {
		return model.SpecializationHairstylist, true
	}
	return "", false
}

func (fakeCatalog) SpecialistsFor(serviceName string) []string {
	if serviceName == "hairstylist" {
		return []string{"emma thompson", "olivia parker"}
	}
	return nil
}

type fakeFAQ struct {
	answer string
	err    error
}

func (f *fakeFAQ) Search(ctx context.Context, query string, k int) (string, error) {
	return f.answer, f.err
}

func newTestTools(availability *fakeAvailability, booking *fakeBooking) *Tools {
	if availability == nil {
		availability = &fakeAvailability{}
	}
	if booking == nil {
		booking = &fakeBooking{}
	}
	return NewTools(availability, booking, fakeCatalog{}, &fakeFAQ{answer: "We open at 8."}, zap.NewNop())
}

func TestDispatchAvailabilityBySpecialist(t *testing.T) {
	tools := newTestTools(&fakeAvailability{
		bySpecialist: map[string][]string{"emma thompson": {"10:00", "10:30"}},
	}, nil)

	args := map[string]any{"date": "2025-03-10", "specialist_name": "emma thompson"}
	got, err := tools.Dispatch(context.Background(), ToolAvailabilityBySpecialist, args)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(got, "10:00, 10:30") {
		t.Errorf("reply missing slots: %q", got)
	}

	// empty day gets the canonical no-availability phrase
	args["specialist_name"] = "olivia parker"
	got, err = tools.Dispatch(context.Background(), ToolAvailabilityBySpecialist, args)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != "No availability in the entire day" {
		t.Errorf("empty-day reply = %q", got)
	}
}

func TestDispatchAvailabilityByService(t *testing.T) {
	tools := newTestTools(&fakeAvailability{
		byService: map[string]map[string][]string{
			"hairstylist": {
				"olivia parker": {"11:00"},
				"emma thompson": {"10:00"},
			},
		},
	}, nil)

	args := map[string]any{"date": "2025-03-10", "service": "hairstylist"}
	got, err := tools.Dispatch(context.Background(), ToolAvailabilityByService, args)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	// specialists listed in stable sorted order
	emma := strings.Index(got, "emma thompson")
	olivia := strings.Index(got, "olivia parker")
	if emma < 0 || olivia < 0 || emma > olivia {
		t.Errorf("specialists missing or out of order:\n%s", got)
	}
}

func TestDispatchBook(t *testing.T) {
	tools := newTestTools(nil, &fakeBooking{})

	args := map[string]any{
		"desired_date":    "2025-03-10 10:00",
		"specialist_name": "emma thompson",
		"id_number":       "1234567",
	}
	got, err := tools.Dispatch(context.Background(), ToolBookAppointment, args)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	want := "Appointment successfully set for 2025-03-10 10:00 with emma thompson for client ID 1234567"
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestDispatchBookOutcomes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "slot taken",
			err:  model.ErrSlotNotAvailable,
			want: "No available appointments for that particular case",
		},
		{
			name: "invalid input",
			err:  fmt.Errorf("%w: bad date", validator.ErrInvalid),
			want: "invalid input: bad date",
		},
	}

	args := map[string]any{
		"desired_date":    "2025-03-10 10:00",
		"specialist_name": "emma thompson",
		"id_number":       "1234567",
	}

	for _, tc := range cases {
		tools := newTestTools(nil, &fakeBooking{bookErr: tc.err})
		got, err := tools.Dispatch(context.Background(), ToolBookAppointment, args)
		if err != nil {
			t.Fatalf("%s: Dispatch: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: reply = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDispatchBookInfrastructureError(t *testing.T) {
	tools := newTestTools(nil, &fakeBooking{bookErr: errors.New("db down")})

	args := map[string]any{
		"desired_date":    "2025-03-10 10:00",
		"specialist_name": "emma thompson",
		"id_number":       "1234567",
	}
	if _, err := tools.Dispatch(context.Background(), ToolBookAppointment, args); err == nil {
		t.Error("infrastructure fault came back as a user message")
	}
}

func TestDispatchBookWithCaveat(t *testing.T) {
	tools := newTestTools(nil, &fakeBooking{caveat: service.MirrorCaveat})

	args := map[string]any{
		"desired_date":    "2025-03-10 10:00",
		"specialist_name": "emma thompson",
		"id_number":       "1234567",
	}
	got, err := tools.Dispatch(context.Background(), ToolBookAppointment, args)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(got, service.MirrorCaveat) {
		t.Errorf("caveat not surfaced: %q", got)
	}
}

func TestDispatchCancel(t *testing.T) {
	args := map[string]any{
		"date":            "2025-03-10",
		"specialist_name": "emma thompson",
		"id_number":       "1234567",
	}

	tools := newTestTools(nil, &fakeBooking{})
	got, err := tools.Dispatch(context.Background(), ToolCancelBooking, args)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != "Successfully cancelled" {
		t.Errorf("reply = %q", got)
	}

	tools = newTestTools(nil, &fakeBooking{cancelErr: model.ErrNoAppointment})
	got, err = tools.Dispatch(context.Background(), ToolCancelBooking, args)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != "You don't have any appointment with those specifications" {
		t.Errorf("no-appointment reply = %q", got)
	}
}

func TestDispatchReschedule(t *testing.T) {
	args := map[string]any{
		"old_date":        "2025-03-10 10:00",
		"new_date":        "2025-03-10 11:00",
		"specialist_name": "emma thompson",
		"id_number":       "1234567",
	}

	cases := []struct {
		err  error
		want string
	}{
		{err: nil, want: "Successfully rescheduled for the desired time"},
		{err: model.ErrTargetNotAvailable, want: "Requested new time is not available"},
		{err: model.ErrNoAppointment, want: "No existing appointment found with those specifications"},
	}

	for _, tc := range cases {
		tools := newTestTools(nil, &fakeBooking{rescheduleErr: tc.err})
		got, err := tools.Dispatch(context.Background(), ToolRescheduleBooking, args)
		if err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
		if got != tc.want {
			t.Errorf("reply = %q, want %q", got, tc.want)
		}
	}
}

func TestDispatchReminder(t *testing.T) {
	args := map[string]any{"id_number": "1234567"}

	tools := newTestTools(nil, &fakeBooking{reminderErr: model.ErrNoAppointment})
	got, err := tools.Dispatch(context.Background(), ToolReminderAppointment, args)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != "The client doesn't have any appointment yet" {
		t.Errorf("no-appointment reply = %q", got)
	}

	tools = newTestTools(nil, &fakeBooking{reminders: []model.Slot{{
		At:             time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		Specialization: model.SpecializationHairstylist,
		Specialist:     "emma thompson",
	}}})
	got, err = tools.Dispatch(context.Background(), ToolReminderAppointment, args)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(got, "2025-03-10 10:00 - emma thompson (hairstylist)") {
		t.Errorf("reminder reply = %q", got)
	}
}

func TestDispatchCatalogTools(t *testing.T) {
	tools := newTestTools(nil, nil)

	got, err := tools.Dispatch(context.Background(), ToolSalonServices, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(got, "hairstylist: emma thompson, olivia parker") {
		t.Errorf("services reply = %q", got)
	}

	got, err = tools.Dispatch(context.Background(), ToolSpecialistServices, map[string]any{"specialist_name": "emma thompson"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(got, "emma thompson covers hairstylist") {
		t.Errorf("specialist reply = %q", got)
	}

	got, err = tools.Dispatch(context.Background(), ToolSpecialistServices, map[string]any{"specialist_name": "dr nobody"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(got, "No specialist named") {
		t.Errorf("unknown specialist reply = %q", got)
	}
}

func TestDispatchFAQ(t *testing.T) {
	tools := newTestTools(nil, nil)

	got, err := tools.Dispatch(context.Background(), ToolRetrieveFAQ, map[string]any{"question": "when do you open?"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != "We open at 8." {
		t.Errorf("faq reply = %q", got)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	tools := newTestTools(nil, nil)

	got, err := tools.Dispatch(context.Background(), "fly_to_the_moon", nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(got, "Unknown tool") {
		t.Errorf("unknown tool reply = %q", got)
	}
}

func TestStringArg(t *testing.T) {
	args := map[string]any{
		"text":   "  padded  ",
		"number": 42.0, // JSON numbers arrive as float64
	}

	if got := stringArg(args, "text"); got != "padded" {
		t.Errorf("stringArg(text) = %q", got)
	}
	if got := stringArg(args, "number"); got != "42" {
		t.Errorf("stringArg(number) = %q", got)
	}
	if got := stringArg(args, "absent"); got != "" {
		t.Errorf("stringArg(absent) = %q", got)
	}
}
