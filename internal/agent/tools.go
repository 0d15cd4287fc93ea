package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/zenbeauty/salon-assistant/internal/model"
	"github.com/zenbeauty/salon-assistant/internal/service"
	"github.com/zenbeauty/salon-assistant/internal/validator"
	"go.uber.org/zap"
)

// Tool names exposed to the model.
const (
	ToolAvailabilityBySpecialist = "check_availability_by_specialist"
	ToolAvailabilityByService    = "check_availability_by_service"
	ToolBookAppointment          = "book_appointment"
	ToolCancelBooking            = "cancel_booking"
	ToolRescheduleBooking        = "reschedule_booking"
	ToolReminderAppointment      = "reminder_appointment"
	ToolSalonServices            = "get_salon_services"
	ToolSpecialistServices       = "get_specialist_services"
	ToolRetrieveFAQ              = "retrieve_faq_info"
)

// AvailabilityAPI is the read side of the scheduling core.
type AvailabilityAPI interface {
	ListBySpecialist(ctx context.Context, date, specialist string) ([]string, error)
	ListByService(ctx context.Context, date, service string) (map[string][]string, error)
}

// BookingAPI is the write side of the scheduling core.
type BookingAPI interface {
	Book(ctx context.Context, when, specialist, clientID string) (*service.BookingResult, error)
	Cancel(ctx context.Context, date, specialist, clientID string) (*service.BookingResult, error)
	Reschedule(ctx context.Context, oldWhen, newWhen, specialist, clientID string) (*service.BookingResult, error)
	Reminder(ctx context.Context, clientID string) ([]model.Slot, error)
}

// CatalogAPI answers questions about services and the roster.
type CatalogAPI interface {
	All() []model.CatalogEntry
	ServiceFor(specialist string) (model.Specialization, bool)
	SpecialistsFor(service string) []string
}

// FAQAPI is the semantic search over the salon's FAQ corpus.
type FAQAPI interface {
	Search(ctx context.Context, query string, k int) (string, error)
}

// Tools dispatches the model's function calls to the scheduling core and
// renders every outcome as text the model can relay to the user. Expected
// negative outcomes (slot taken, nothing to cancel) come back as normal
// replies, never as errors.
type Tools struct {
	availability AvailabilityAPI
	booking      BookingAPI
	catalog      CatalogAPI
	faq          FAQAPI
	logger       *zap.Logger
}

func NewTools(availability AvailabilityAPI, booking BookingAPI, cat CatalogAPI, faq FAQAPI, logger *zap.Logger) *Tools {
	return &Tools{
		availability: availability,
		booking:      booking,
		catalog:      cat,
		faq:          faq,
		logger:       logger,
	}
}

// Declarations returns the function schemas bound to the model.
func (t *Tools) Declarations() []*genai.Tool {
	dateParam := &genai.Schema{Type: genai.TypeString, Description: "Date in format YYYY-MM-DD"}
	dateTimeParam := &genai.Schema{Type: genai.TypeString, Description: "Date and time in format YYYY-MM-DD HH:MM"}
	specialistParam := &genai.Schema{Type: genai.TypeString, Description: "Specialist name, lowercase, e.g. emma thompson"}
	serviceParam := &genai.Schema{Type: genai.TypeString, Description: "Service category, e.g. hairstylist, nail_technician"}
	clientIDParam := &genai.Schema{Type: genai.TypeString, Description: "Client identification number, 7 or 8 digits"}

	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        ToolAvailabilityBySpecialist,
				Description: "Check available appointment times for a specific specialist on a date.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"date": dateParam, "specialist_name": specialistParam},
					Required:   []string{"date", "specialist_name"},
				},
			},
			{
				Name:        ToolAvailabilityByService,
				Description: "Check available appointment times for every specialist of a service on a date.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"date": dateParam, "service": serviceParam},
					Required:   []string{"date", "service"},
				},
			},
			{
				Name:        ToolBookAppointment,
				Description: "Book an appointment with a specialist. All parameters must be given by the user.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"desired_date":    dateTimeParam,
						"specialist_name": specialistParam,
						"id_number":       clientIDParam,
					},
					Required: []string{"desired_date", "specialist_name", "id_number"},
				},
			},
			{
				Name:        ToolCancelBooking,
				Description: "Cancel an existing appointment. All parameters must be given by the user.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"date":            dateParam,
						"specialist_name": specialistParam,
						"id_number":       clientIDParam,
					},
					Required: []string{"date", "specialist_name", "id_number"},
				},
			},
			{
				Name:        ToolRescheduleBooking,
				Description: "Move an existing appointment to a new time with the same specialist.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"old_date":        dateTimeParam,
						"new_date":        dateTimeParam,
						"specialist_name": specialistParam,
						"id_number":       clientIDParam,
					},
					Required: []string{"old_date", "new_date", "specialist_name", "id_number"},
				},
			},
			{
				Name:        ToolReminderAppointment,
				Description: "List the client's upcoming appointments.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"id_number": clientIDParam},
					Required:   []string{"id_number"},
				},
			},
			{
				Name:        ToolSalonServices,
				Description: "List the services the salon provides and the specialists for each.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{},
				},
			},
			{
				Name:        ToolSpecialistServices,
				Description: "Find which service a specific specialist covers.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"specialist_name": specialistParam},
					Required:   []string{"specialist_name"},
				},
			},
			{
				Name:        ToolRetrieveFAQ,
				Description: "Answer general questions about the salon: opening hours, parking, payment methods, policies.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"question": {Type: genai.TypeString, Description: "The user's question"}},
					Required:   []string{"question"},
				},
			},
		},
	}}
}

// Dispatch executes one function call and returns the text fed back to the
// model. Infrastructure faults are returned as errors; everything the user
// could plausibly cause comes back as a message.
func (t *Tools) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	t.logger.Info("Tool call", zap.String("tool", name), zap.Any("args", args))

	switch name {
	case ToolAvailabilityBySpecialist:
		return t.availabilityBySpecialist(ctx, stringArg(args, "date"), stringArg(args, "specialist_name"))
	case ToolAvailabilityByService:
		return t.availabilityByService(ctx, stringArg(args, "date"), stringArg(args, "service"))
	case ToolBookAppointment:
		return t.book(ctx, stringArg(args, "desired_date"), stringArg(args, "specialist_name"), stringArg(args, "id_number"))
	case ToolCancelBooking:
		return t.cancel(ctx, stringArg(args, "date"), stringArg(args, "specialist_name"), stringArg(args, "id_number"))
	case ToolRescheduleBooking:
		return t.reschedule(ctx,
			stringArg(args, "old_date"),
			stringArg(args, "new_date"),
			stringArg(args, "specialist_name"),
			stringArg(args, "id_number"))
	case ToolReminderAppointment:
		return t.reminder(ctx, stringArg(args, "id_number"))
	case ToolSalonServices:
		return t.salonServices(), nil
	case ToolSpecialistServices:
		return t.specialistServices(stringArg(args, "specialist_name")), nil
	case ToolRetrieveFAQ:
		return t.faq.Search(ctx, stringArg(args, "question"), 5)
	default:
		t.logger.Warn("Unknown tool call", zap.String("tool", name))
		return fmt.Sprintf("Unknown tool %q, ignored.", name), nil
	}
}

func (t *Tools) availabilityBySpecialist(ctx context.Context, date, specialist string) (string, error) {
	times, err := t.availability.ListBySpecialist(ctx, date, specialist)
	if err != nil {
		if errors.Is(err, validator.ErrInvalid) {
			return err.Error(), nil
		}
		return "", err
	}

	if len(times) == 0 {
		return "No availability in the entire day", nil
	}

	return fmt.Sprintf("This availability for %s\nAvailable slots: %s", date, strings.Join(times, ", ")), nil
}

func (t *Tools) availabilityByService(ctx context.Context, date, serviceName string) (string, error) {
	bySpecialist, err := t.availability.ListByService(ctx, date, serviceName)
	if err != nil {
		if errors.Is(err, validator.ErrInvalid) {
			return err.Error(), nil
		}
		return "", err
	}

	if len(bySpecialist) == 0 {
		return "No availability in the entire day", nil
	}

	specialists := make([]string, 0, len(bySpecialist))
	for name := range bySpecialist {
		specialists = append(specialists, name)
	}
	sort.Strings(specialists)

	var b strings.Builder
	fmt.Fprintf(&b, "This availability for %s\n", date)
	for _, name := range specialists {
		fmt.Fprintf(&b, "%s. Available slots: %s\n", name, strings.Join(bySpecialist[name], ", "))
	}

	return b.String(), nil
}

func (t *Tools) book(ctx context.Context, when, specialist, clientID string) (string, error) {
	result, err := t.booking.Book(ctx, when, specialist, clientID)
	if err != nil {
		switch {
		case errors.Is(err, validator.ErrInvalid):
			return err.Error(), nil
		case errors.Is(err, model.ErrSlotNotAvailable):
			return "No available appointments for that particular case", nil
		}
		return "", err
	}

	msg := fmt.Sprintf("Appointment successfully set for %s with %s for client ID %s",
		when, result.Specialist, result.ClientID)
	if result.Caveat != "" {
		msg += " (" + result.Caveat + ")"
	}

	return msg, nil
}

func (t *Tools) cancel(ctx context.Context, date, specialist, clientID string) (string, error) {
	result, err := t.booking.Cancel(ctx, date, specialist, clientID)
	if err != nil {
		switch {
		case errors.Is(err, validator.ErrInvalid):
			return err.Error(), nil
		case errors.Is(err, model.ErrNoAppointment):
			return "You don't have any appointment with those specifications", nil
		}
		return "", err
	}

	msg := "Successfully cancelled"
	if result.Caveat != "" {
		msg += " (" + result.Caveat + ")"
	}

	return msg, nil
}

func (t *Tools) reschedule(ctx context.Context, oldWhen, newWhen, specialist, clientID string) (string, error) {
	result, err := t.booking.Reschedule(ctx, oldWhen, newWhen, specialist, clientID)
	if err != nil {
		switch {
		case errors.Is(err, validator.ErrInvalid):
			return err.Error(), nil
		case errors.Is(err, model.ErrTargetNotAvailable):
			return "Requested new time is not available", nil
		case errors.Is(err, model.ErrNoAppointment):
			return "No existing appointment found with those specifications", nil
		}
		return "", err
	}

	msg := "Successfully rescheduled for the desired time"
	if result.Caveat != "" {
		msg += " (" + result.Caveat + ")"
	}

	return msg, nil
}

func (t *Tools) reminder(ctx context.Context, clientID string) (string, error) {
	slots, err := t.booking.Reminder(ctx, clientID)
	if err != nil {
		switch {
		case errors.Is(err, validator.ErrInvalid):
			return err.Error(), nil
		case errors.Is(err, model.ErrNoAppointment):
			return "The client doesn't have any appointment yet", nil
		}
		return "", err
	}

	var b strings.Builder
	b.WriteString("Upcoming appointments:\n")
	for _, slot := range slots {
		fmt.Fprintf(&b, "%s - %s (%s)\n", slot.At.Format("2006-01-02 15:04"), slot.Specialist, slot.Specialization)
	}

	return b.String(), nil
}

func (t *Tools) salonServices() string {
	var b strings.Builder
	b.WriteString("Services and specialists:\n")
	for _, entry := range t.catalog.All() {
		names := make([]string, 0, len(entry.Specialists))
		for _, sp := range entry.Specialists {
			names = append(names, sp.Name)
		}
		fmt.Fprintf(&b, "%s: %s\n", entry.Service, strings.Join(names, ", "))
	}

	return b.String()
}

func (t *Tools) specialistServices(specialist string) string {
	serviceName, ok := t.catalog.ServiceFor(specialist)
	if !ok {
		return fmt.Sprintf("No specialist named %q works at the salon", specialist)
	}

	colleagues := t.catalog.SpecialistsFor(string(serviceName))
	return fmt.Sprintf("%s covers %s. All %s specialists: %s",
		specialist, serviceName, serviceName, strings.Join(colleagues, ", "))
}

func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}

	s, ok := v.(string)
	if !ok {
		return strings.TrimSpace(fmt.Sprint(v))
	}

	return strings.TrimSpace(s)
}
