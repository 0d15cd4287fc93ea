package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zenbeauty/salon-assistant/internal/model"
)

// memStore is a mutex-guarded in-memory SlotStore for tests. It implements
// the same atomicity contract as the Postgres repository: every method takes
// the lock for its whole precondition-check-plus-write sequence.
type memStore struct {
	mu    sync.Mutex
	slots map[slotKey]*model.Slot
}

type slotKey struct {
	at         int64
	specialist string
}

func newMemStore() *memStore {
	return &memStore{slots: make(map[slotKey]*model.Slot)}
}

func (m *memStore) add(slot model.Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := slot
	m.slots[slotKey{at: slot.At.Unix(), specialist: slot.Specialist}] = &s
}

func (m *memStore) get(at time.Time, specialist string) *model.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[slotKey{at: at.Unix(), specialist: specialist}]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (m *memStore) FreeBySpecialistOnDay(ctx context.Context, day time.Time, specialist string) ([]model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Slot
	for _, s := range m.slots {
		if s.Specialist == specialist && s.IsAvailable && sameDay(s.At, day) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (m *memStore) FreeByServiceOnDay(ctx context.Context, day time.Time, service model.Specialization) ([]model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Slot
	for _, s := range m.slots {
		if s.Specialization == service && s.IsAvailable && sameDay(s.At, day) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Specialist != out[j].Specialist {
			return out[i].Specialist < out[j].Specialist
		}
		return out[i].At.Before(out[j].At)
	})
	return out, nil
}

func (m *memStore) Hold(ctx context.Context, at time.Time, specialist, clientID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[slotKey{at: at.Unix(), specialist: specialist}]
	if !ok || !s.IsAvailable {
		return false, nil
	}

	s.IsAvailable = false
	s.ClientID = &clientID
	return true, nil
}

func (m *memStore) Release(ctx context.Context, day time.Time, specialist, clientID string) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var match *model.Slot
	for _, s := range m.slots {
		if s.Specialist != specialist || s.IsAvailable || s.ClientID == nil || *s.ClientID != clientID {
			continue
		}
		if !sameDay(s.At, day) {
			continue
		}
		if match == nil || s.At.Before(match.At) {
			match = s
		}
	}

	if match == nil {
		return nil, nil
	}

	before := *match
	match.IsAvailable = true
	match.ClientID = nil
	match.EventID = nil
	return &before, nil
}

func (m *memStore) Move(ctx context.Context, oldAt, newAt time.Time, specialist, clientID string) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldSlot, ok := m.slots[slotKey{at: oldAt.Unix(), specialist: specialist}]
	if !ok || oldSlot.IsAvailable || oldSlot.ClientID == nil || *oldSlot.ClientID != clientID {
		return nil, model.ErrNoAppointment
	}

	newSlot, ok := m.slots[slotKey{at: newAt.Unix(), specialist: specialist}]
	if !ok || !newSlot.IsAvailable {
		return nil, model.ErrTargetNotAvailable
	}

	eventID := oldSlot.EventID
	oldSlot.IsAvailable = true
	oldSlot.ClientID = nil
	oldSlot.EventID = nil

	newSlot.IsAvailable = false
	newSlot.ClientID = &clientID
	newSlot.EventID = eventID

	cp := *newSlot
	return &cp, nil
}

func (m *memStore) HeldByClient(ctx context.Context, clientID string) ([]model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Slot
	for _, s := range m.slots {
		if s.ClientID != nil && *s.ClientID == clientID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (m *memStore) SetEventRef(ctx context.Context, at time.Time, specialist, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[slotKey{at: at.Unix(), specialist: specialist}]
	if !ok || s.IsAvailable {
		return fmt.Errorf("no held slot at %s for %s", at, specialist)
	}

	s.EventID = &ref
	return nil
}

func (m *memStore) ReplaceWindow(ctx context.Context, windowStart time.Time, slots []model.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, s := range m.slots {
		if s.At.Before(windowStart) {
			delete(m.slots, key)
		}
	}

	for _, slot := range slots {
		key := slotKey{at: slot.At.Unix(), specialist: slot.Specialist}
		if _, exists := m.slots[key]; exists {
			continue
		}
		s := slot
		m.slots[key] = &s
	}

	return nil
}
