package model

import "time"

// Specialization is a service category offered by the salon.
type Specialization string

const (
	SpecializationHairstylist       Specialization = "hairstylist"
	SpecializationNailTechnician    Specialization = "nail_technician"
	SpecializationEsthetician       Specialization = "esthetician"
	SpecializationMakeupArtist      Specialization = "makeup_artist"
	SpecializationMassageTherapist  Specialization = "massage_therapist"
	SpecializationEyebrowSpecialist Specialization = "eyebrow_specialist"
	SpecializationColorist          Specialization = "colorist"
)

// Slot is one bookable 30-minute interval for a specialist.
// (At, Specialist) is the natural key; ClientID is set iff the slot is taken.
type Slot struct {
	At             time.Time      `json:"slot_at"`
	Specialization Specialization `json:"specialization"`
	Specialist     string         `json:"specialist"`
	IsAvailable    bool           `json:"is_available"`
	ClientID       *string        `json:"client_id"` // nil while the slot is free
	EventID        *string        `json:"event_id"`  // mirrored calendar event, nil if the mirror write never succeeded
}

// Consistent reports whether the occupancy invariant holds for the slot.
func (s *Slot) Consistent() bool {
	return (s.ClientID != nil) == !s.IsAvailable
}
