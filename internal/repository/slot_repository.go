package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zenbeauty/salon-assistant/internal/model"
	"go.uber.org/zap"
)

const slotColumns = "slot_at, specialization, specialist, is_available, client_id, event_id"

// SlotRepository persists the availability grid in Postgres. Occupancy
// writes are either single-statement compare-and-swap updates or explicit
// transactions with row locks, so concurrent bookings on the same natural
// key cannot both succeed.
type SlotRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewSlotRepository(pool *pgxpool.Pool, logger *zap.Logger) *SlotRepository {
	return &SlotRepository{pool: pool, logger: logger}
}

// FreeBySpecialistOnDay returns the specialist's free slots within the
// calendar day starting at midnight `day`.
func (r *SlotRepository) FreeBySpecialistOnDay(ctx context.Context, day time.Time, specialist string) ([]model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE specialist = $1
		  AND slot_at >= $2
		  AND slot_at < $3
		  AND is_available = TRUE
		ORDER BY slot_at
	`

	rows, err := r.pool.Query(ctx, query, specialist, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("free slots by specialist: %w", err)
	}

	return scanSlots(rows)
}

// FreeByServiceOnDay returns the free slots for every specialist of one
// service category within the calendar day.
func (r *SlotRepository) FreeByServiceOnDay(ctx context.Context, day time.Time, service model.Specialization) ([]model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE specialization = $1
		  AND slot_at >= $2
		  AND slot_at < $3
		  AND is_available = TRUE
		ORDER BY specialist, slot_at
	`

	rows, err := r.pool.Query(ctx, query, service, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("free slots by service: %w", err)
	}

	return scanSlots(rows)
}

// Hold books the slot at the natural key. The availability check and the
// write are one statement, so a racing Hold on the same key sees zero
// affected rows.
func (r *SlotRepository) Hold(ctx context.Context, at time.Time, specialist, clientID string) (bool, error) {
	query := `
		UPDATE availability_slots
		SET is_available = FALSE, client_id = $3
		WHERE slot_at = $1
		  AND specialist = $2
		  AND is_available = TRUE
	`

	tag, err := r.pool.Exec(ctx, query, at, specialist, clientID)
	if err != nil {
		return false, fmt.Errorf("hold slot: %w", err)
	}

	if tag.RowsAffected() > 1 {
		// Unreachable under the unique (slot_at, specialist) index.
		r.logger.Warn("Natural key matched multiple slots on hold",
			zap.Time("slot_at", at),
			zap.String("specialist", specialist),
			zap.Int64("rows", tag.RowsAffected()),
		)
	}

	return tag.RowsAffected() > 0, nil
}

// Release frees the client's earliest held slot with the specialist on the
// given calendar day and returns the row as it was before the update.
// Returns nil when no booking matches.
func (r *SlotRepository) Release(ctx context.Context, day time.Time, specialist, clientID string) (*model.Slot, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE specialist = $1
		  AND client_id = $2
		  AND is_available = FALSE
		  AND slot_at >= $3
		  AND slot_at < $4
		ORDER BY slot_at
		LIMIT 1
		FOR UPDATE
	`

	var slot model.Slot
	err = tx.QueryRow(ctx, query, specialist, clientID, day, day.AddDate(0, 0, 1)).Scan(
		&slot.At,
		&slot.Specialization,
		&slot.Specialist,
		&slot.IsAvailable,
		&slot.ClientID,
		&slot.EventID,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find booking to release: %w", err)
	}

	free := `
		UPDATE availability_slots
		SET is_available = TRUE, client_id = NULL, event_id = NULL
		WHERE slot_at = $1 AND specialist = $2
	`

	if _, err := tx.Exec(ctx, free, slot.At, slot.Specialist); err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit release: %w", err)
	}

	return &slot, nil
}

// Move frees the old slot and holds the new one in a single transaction.
// Both rows are locked together, ordered by slot_at, before either check
// runs, so crossing reschedules cannot deadlock or half-apply.
func (r *SlotRepository) Move(ctx context.Context, oldAt, newAt time.Time, specialist, clientID string) (*model.Slot, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE specialist = $1
		  AND slot_at IN ($2, $3)
		ORDER BY slot_at
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, specialist, oldAt, newAt)
	if err != nil {
		return nil, fmt.Errorf("lock slots for move: %w", err)
	}

	slots, err := scanSlots(rows)
	if err != nil {
		return nil, err
	}

	var oldSlot, newSlot *model.Slot
	for i := range slots {
		switch {
		case slots[i].At.Equal(oldAt):
			oldSlot = &slots[i]
		case slots[i].At.Equal(newAt):
			newSlot = &slots[i]
		}
	}

	// Check both preconditions before touching either row.
	if oldSlot == nil || oldSlot.IsAvailable || oldSlot.ClientID == nil || *oldSlot.ClientID != clientID {
		return nil, model.ErrNoAppointment
	}

	if newSlot == nil || !newSlot.IsAvailable {
		return nil, model.ErrTargetNotAvailable
	}

	free := `
		UPDATE availability_slots
		SET is_available = TRUE, client_id = NULL, event_id = NULL
		WHERE slot_at = $1 AND specialist = $2
	`

	if _, err := tx.Exec(ctx, free, oldAt, specialist); err != nil {
		return nil, fmt.Errorf("free old slot: %w", err)
	}

	hold := `
		UPDATE availability_slots
		SET is_available = FALSE, client_id = $3, event_id = $4
		WHERE slot_at = $1 AND specialist = $2
	`

	if _, err := tx.Exec(ctx, hold, newAt, specialist, clientID, oldSlot.EventID); err != nil {
		return nil, fmt.Errorf("hold new slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit move: %w", err)
	}

	moved := *newSlot
	moved.IsAvailable = false
	moved.ClientID = &clientID
	moved.EventID = oldSlot.EventID

	return &moved, nil
}

// HeldByClient returns every slot currently held by the client.
func (r *SlotRepository) HeldByClient(ctx context.Context, clientID string) ([]model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE client_id = $1
		  AND is_available = FALSE
		ORDER BY slot_at
	`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("held slots by client: %w", err)
	}

	return scanSlots(rows)
}

// SetEventRef records the mirrored calendar event id on a held slot.
func (r *SlotRepository) SetEventRef(ctx context.Context, at time.Time, specialist, ref string) error {
	query := `
		UPDATE availability_slots
		SET event_id = $3
		WHERE slot_at = $1
		  AND specialist = $2
		  AND is_available = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, at, specialist, ref)
	if err != nil {
		return fmt.Errorf("set event ref: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no held slot at %s for %s", at, specialist)
	}

	return nil
}

// ReplaceWindow tops up the rolling grid. On an empty table the whole grid
// is bulk-loaded with COPY; otherwise only rows before the window start are
// dropped and missing grid rows inserted. Rows inside the window are never
// deleted, so a concurrent Hold cannot lose a free slot to the rebuild.
func (r *SlotRepository) ReplaceWindow(ctx context.Context, windowStart time.Time, slots []model.Slot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int64
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM availability_slots`).Scan(&count); err != nil {
		return fmt.Errorf("count slots: %w", err)
	}

	if count == 0 {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"availability_slots"},
			[]string{"slot_at", "specialization", "specialist", "is_available", "client_id", "event_id"},
			pgx.CopyFromSlice(len(slots), func(i int) ([]any, error) {
				s := slots[i]
				return []any{s.At, s.Specialization, s.Specialist, s.IsAvailable, s.ClientID, s.EventID}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("bulk load slots: %w", err)
		}

		return tx.Commit(ctx)
	}

	drop := `
		DELETE FROM availability_slots
		WHERE slot_at < $1
	`

	if _, err := tx.Exec(ctx, drop, windowStart); err != nil {
		return fmt.Errorf("drop stale slots: %w", err)
	}

	insert := `
		INSERT INTO availability_slots (slot_at, specialization, specialist, is_available, client_id, event_id)
		VALUES ($1, $2, $3, $4, NULL, NULL)
		ON CONFLICT (slot_at, specialist) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, s := range slots {
		batch.Queue(insert, s.At, s.Specialization, s.Specialist, s.IsAvailable)
	}

	results := tx.SendBatch(ctx, batch)
	for range slots {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert slot: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

func scanSlots(rows pgx.Rows) ([]model.Slot, error) {
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		var slot model.Slot
		err := rows.Scan(
			&slot.At,
			&slot.Specialization,
			&slot.Specialist,
			&slot.IsAvailable,
			&slot.ClientID,
			&slot.EventID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}
