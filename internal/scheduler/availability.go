package scheduler

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"clinic-booking-api/internal/model"
)

// AvailabilityRequest declares a window on one day. An empty DoctorID means
// the calling doctor.
type AvailabilityRequest struct {
	DoctorID  string
	Date      string `validate:"required,notblank"`
	StartTime string `validate:"required,notblank"`
	EndTime   string `validate:"required,notblank"`
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, KindOf(err).String())
	}
	span.End()
}

// SetAvailability records a window during which the calling doctor sees
// patients. Windows of one doctor never overlap on the same day.
func (s *Scheduler) SetAvailability(ctx context.Context, req AvailabilityRequest, caller Caller) (av *model.Availability, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.SetAvailability", trace.WithAttributes(
		attribute.String("doctor.id", caller.ID),
	))
	defer func() { endSpan(span, err) }()

	if caller.Role != model.RoleDoctor {
		return nil, newErr(KindForbidden, "only doctors can set availability")
	}
	if req.DoctorID != "" && req.DoctorID != caller.ID {
		return nil, newErr(KindForbidden, "doctors can only set their own availability")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, wrapErr(KindInvalidRequest, "date, start time and end time are required", err)
	}

	from, ok := parseClock(req.StartTime)
	if !ok {
		return nil, newErr(KindInvalidRequest, "start time must be HH:MM")
	}
	to, ok := parseClock(req.EndTime)
	if !ok {
		return nil, newErr(KindInvalidRequest, "end time must be HH:MM")
	}
	if to <= from {
		return nil, newErr(KindInvalidRequest, "end time must be after start time")
	}
	if from < openMinute || to > closeMinute {
		return nil, newErr(KindOutOfHours, "availability must fall between 09:00 and 23:00")
	}
	day, ok := parseDay(req.Date, s.loc)
	if !ok {
		return nil, newErr(KindInvalidDate, "invalid date format")
	}

	av = &model.Availability{
		DoctorID:  caller.ID,
		Date:      day,
		StartTime: formatClock(from),
		EndTime:   formatClock(to),
	}
	err = s.store.AddAvailability(ctx, av, func(existing []model.Availability) error {
		for _, w := range existing {
			wFrom, ok1 := parseClock(w.StartTime)
			wTo, ok2 := parseClock(w.EndTime)
			if ok1 && ok2 && from < wTo && wFrom < to {
				return newErr(KindSlotConflict, "availability overlaps an existing window")
			}
		}
		return nil
	})
	switch {
	case err == nil:
		s.log.Info("availability set",
			zap.String("availability_id", av.ID),
			zap.String("doctor_id", av.DoctorID),
			zap.String("date", day.Format(time.DateOnly)),
			zap.String("from", av.StartTime),
			zap.String("to", av.EndTime),
		)
		return av, nil
	case KindOf(err) != 0:
		return nil, err
	case errors.Is(err, model.ErrSlotTaken):
		return nil, wrapErr(KindSlotConflict, "availability overlaps an existing window", err)
	default:
		return nil, wrapErr(KindStoreUnavailable, "add availability", err)
	}
}

// ListAvailability returns a doctor's windows ordered by day and start time.
// Patients and admins may view any doctor; doctors only themselves.
func (s *Scheduler) ListAvailability(ctx context.Context, doctorID string, caller Caller) (out []model.Availability, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.ListAvailability", trace.WithAttributes(
		attribute.String("doctor.id", doctorID),
	))
	defer func() { endSpan(span, err) }()

	if doctorID == "" && caller.Role == model.RoleDoctor {
		doctorID = caller.ID
	}
	switch caller.Role {
	case model.RolePatient, model.RoleAdmin:
	case model.RoleDoctor:
		if doctorID != caller.ID {
			return nil, newErr(KindForbidden, "doctors can only view their own availability")
		}
	default:
		return nil, newErr(KindForbidden, "unknown role")
	}
	if doctorID == "" {
		return nil, newErr(KindInvalidRequest, "doctor id required")
	}

	doctor, err := s.lookup(ctx, doctorID, "doctor")
	if err != nil {
		return nil, err
	}
	if doctor.Role != model.RoleDoctor {
		return nil, newErr(KindInvalidRole, "selected user is not a doctor")
	}

	ws, err := s.store.AvailabilityByDoctor(ctx, doctorID)
	if err != nil {
		return nil, wrapErr(KindStoreUnavailable, "list availability", err)
	}
	for i := range ws {
		y, m, d := ws[i].Date.Date()
		ws[i].Date = time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	}
	return ws, nil
}

// RemoveAvailability deletes a window. Only its doctor or an admin may.
func (s *Scheduler) RemoveAvailability(ctx context.Context, id string, caller Caller) (err error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.RemoveAvailability", trace.WithAttributes(
		attribute.String("availability.id", id),
	))
	defer func() { endSpan(span, err) }()

	av, err := s.store.AvailabilityByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return newErr(KindNotFound, "availability not found")
	}
	if err != nil {
		return wrapErr(KindStoreUnavailable, "load availability", err)
	}
	if caller.Role != model.RoleAdmin && !(caller.Role == model.RoleDoctor && caller.ID == av.DoctorID) {
		return newErr(KindForbidden, "only the doctor or an admin can remove availability")
	}

	err = s.store.DeleteAvailability(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return newErr(KindNotFound, "availability not found")
	}
	if err != nil {
		return wrapErr(KindStoreUnavailable, "delete availability", err)
	}
	return nil
}
