package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinic-booking-api/internal/model"
)

const apptColumns = `id, title, start_at, slot_time, description,
	patient_id, patient_name, doctor_id, doctor_name, created_at`

func scanAppointment(row interface{ Scan(...any) error }) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := row.Scan(&a.ID, &a.Title, &a.Date, &a.Time, &a.Description,
		&a.PatientID, &a.PatientName, &a.DoctorID, &a.DoctorName, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func collect(ctx context.Context, q querier, sql string, args ...any) ([]model.Appointment, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// lockKey names the advisory lock that serializes bookings for one doctor on
// one clinic day.
func lockKey(doctorID string, day time.Time) string {
	return doctorID + "|" + day.Format(time.DateOnly)
}

// Reserve loads the doctor's appointments in [from, to), runs check over them
// and inserts a when check passes. Concurrent calls for the same doctor and
// day are serialized by a transaction-scoped advisory lock; the exclusion
// constraint on appointments catches anything that slips past.
func (s *Store) Reserve(ctx context.Context, a *model.Appointment, from, to time.Time, check func([]model.Appointment) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey(a.DoctorID, from),
	); err != nil {
		return fmt.Errorf("lock doctor day: %w", err)
	}

	existing, err := collect(ctx, tx,
		`SELECT `+apptColumns+` FROM appointments
		 WHERE doctor_id = $1 AND start_at >= $2 AND start_at < $3
		 ORDER BY start_at`, a.DoctorID, from, to)
	if err != nil {
		return err
	}
	if err := check(existing); err != nil {
		return err
	}

	a.ID = uuid.New().String()
	err = tx.QueryRow(ctx,
		`INSERT INTO appointments (id, title, start_at, end_at, slot_time, description,
		                           patient_id, patient_name, doctor_id, doctor_name)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING created_at`,
		a.ID, a.Title, a.Date, a.Date.Add(model.SlotLength), a.Time, a.Description,
		a.PatientID, a.PatientName, a.DoctorID, a.DoctorName,
	).Scan(&a.CreatedAt)
	if err != nil {
		switch pgCode(err) {
		case codeExclusionViolation, codeUniqueViolation:
			return fmt.Errorf("insert appointment: %w", model.ErrSlotTaken)
		}
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) AppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := scanAppointment(s.db.QueryRow(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id))
	return a, notFound(err)
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) AppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return collect(ctx, s.db,
		`SELECT `+apptColumns+` FROM appointments WHERE patient_id = $1 ORDER BY created_at`, patientID)
}

func (s *Store) AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	return collect(ctx, s.db,
		`SELECT `+apptColumns+` FROM appointments WHERE doctor_id = $1 ORDER BY created_at`, doctorID)
}

func (s *Store) AllAppointments(ctx context.Context) ([]model.Appointment, error) {
	return collect(ctx, s.db, `SELECT `+apptColumns+` FROM appointments ORDER BY created_at`)
}
