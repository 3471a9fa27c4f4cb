package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinic-booking-api/internal/model"
)

const availColumns = `id, doctor_id, day, start_time, end_time, created_at`

func scanAvailability(row interface{ Scan(...any) error }) (*model.Availability, error) {
	av := &model.Availability{}
	if err := row.Scan(&av.ID, &av.DoctorID, &av.Date, &av.StartTime, &av.EndTime, &av.CreatedAt); err != nil {
		return nil, err
	}
	return av, nil
}

func collectAvailability(ctx context.Context, q querier, sql string, args ...any) ([]model.Availability, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Availability{}
	for rows.Next() {
		av, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		out = append(out, *av)
	}
	return out, rows.Err()
}

// AddAvailability runs check over the doctor's windows on av.Date and
// inserts av when it passes, under the same kind of advisory lock Reserve
// takes for appointments.
func (s *Store) AddAvailability(ctx context.Context, av *model.Availability, check func([]model.Availability) error) error {
	day := av.Date.Format(time.DateOnly)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "avail|"+lockKey(av.DoctorID, av.Date),
	); err != nil {
		return fmt.Errorf("lock doctor day: %w", err)
	}

	existing, err := collectAvailability(ctx, tx,
		`SELECT `+availColumns+` FROM availability
		 WHERE doctor_id = $1 AND day = $2::date
		 ORDER BY start_time`, av.DoctorID, day)
	if err != nil {
		return err
	}
	if err := check(existing); err != nil {
		return err
	}

	av.ID = uuid.New().String()
	err = tx.QueryRow(ctx,
		`INSERT INTO availability (id, doctor_id, day, start_time, end_time)
		 VALUES ($1, $2, $3::date, $4, $5)
		 RETURNING created_at`,
		av.ID, av.DoctorID, day, av.StartTime, av.EndTime,
	).Scan(&av.CreatedAt)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return fmt.Errorf("insert availability: %w", model.ErrSlotTaken)
		}
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) AvailabilityByID(ctx context.Context, id string) (*model.Availability, error) {
	av, err := scanAvailability(s.db.QueryRow(ctx,
		`SELECT `+availColumns+` FROM availability WHERE id = $1`, id))
	return av, notFound(err)
}

func (s *Store) DeleteAvailability(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM availability WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) AvailabilityByDoctor(ctx context.Context, doctorID string) ([]model.Availability, error) {
	return collectAvailability(ctx, s.db,
		`SELECT `+availColumns+` FROM availability WHERE doctor_id = $1 ORDER BY day, start_time`, doctorID)
}
