package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"clinic-booking-api/internal/metrics"
	"clinic-booking-api/internal/model"
)

// Directory resolves user records.
type Directory interface {
	UserByID(ctx context.Context, id string) (*model.User, error)
}

// Store persists appointments and doctor availability.
type Store interface {
	// Reserve loads the doctor's appointments dated in [from, to), runs
	// check on them and inserts a only when check returns nil. Concurrent
	// Reserve calls for the same doctor and range are serialized.
	Reserve(ctx context.Context, a *model.Appointment, from, to time.Time, check func([]model.Appointment) error) error
	AppointmentByID(ctx context.Context, id string) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	AppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error)
	AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error)
	AllAppointments(ctx context.Context) ([]model.Appointment, error)

	// AddAvailability runs check over the doctor's windows on av.Date and
	// inserts av only when check returns nil, serialized like Reserve.
	AddAvailability(ctx context.Context, av *model.Availability, check func([]model.Availability) error) error
	AvailabilityByID(ctx context.Context, id string) (*model.Availability, error)
	DeleteAvailability(ctx context.Context, id string) error
	AvailabilityByDoctor(ctx context.Context, doctorID string) ([]model.Availability, error)
}

// Caller is the authenticated identity a request is made on behalf of.
type Caller struct {
	ID   string
	Role model.Role
}

type BookingRequest struct {
	Title       string `validate:"required,notblank"`
	Date        string `validate:"required,notblank"`
	Time        string `validate:"required,notblank"`
	Description string
	DoctorID    string `validate:"required,notblank"`
}

type ScopeKind int

const (
	ScopeMine ScopeKind = iota
	ScopeDoctor
	ScopeAll
)

type Scope struct {
	Kind     ScopeKind
	DoctorID string
}

type Scheduler struct {
	store    Store
	users    Directory
	loc      *time.Location
	log      *zap.Logger
	metrics  *metrics.Booking
	validate *validator.Validate
	tracer   trace.Tracer
}

type Option func(*Scheduler)

const tracerName = "clinic-booking-api/scheduler"

// WithLocation sets the clinic time zone used to interpret dates and times.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.Booking) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithTracerProvider overrides the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scheduler) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

func New(st Store, users Directory, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    st,
		users:    users,
		loc:      time.UTC,
		log:      zap.NewNop(),
		validate: newValidator(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Location returns the clinic time zone.
func (s *Scheduler) Location() *time.Location { return s.loc }

// Book validates and commits a one-hour appointment for the caller.
func (s *Scheduler) Book(ctx context.Context, req BookingRequest, caller Caller) (*model.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.Book", trace.WithAttributes(
		attribute.String("doctor.id", req.DoctorID),
		attribute.String("caller.role", string(caller.Role)),
	))
	defer span.End()

	a, err := s.book(ctx, req, caller)
	result := "ok"
	if err != nil {
		result = KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, result)
		s.log.Info("booking rejected",
			zap.String("caller_id", caller.ID),
			zap.String("doctor_id", req.DoctorID),
			zap.String("date", req.Date),
			zap.String("time", req.Time),
			zap.String("reason", result),
			zap.Error(err),
		)
	} else {
		s.log.Info("appointment booked",
			zap.String("appointment_id", a.ID),
			zap.String("doctor_id", a.DoctorID),
			zap.Time("start", a.Date),
		)
	}
	s.metrics.ObserveBooking(result)
	return a, err
}

func (s *Scheduler) book(ctx context.Context, req BookingRequest, caller Caller) (*model.Appointment, error) {
	if caller.Role != model.RolePatient && caller.Role != model.RoleAdmin {
		return nil, newErr(KindForbidden, "only patients and admins can book appointments")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, wrapErr(KindInvalidRequest, "title, date, time and doctor are required", err)
	}

	patient, err := s.lookup(ctx, caller.ID, "patient")
	if err != nil {
		return nil, err
	}
	doctor, err := s.lookup(ctx, req.DoctorID, "doctor")
	if err != nil {
		return nil, err
	}
	if doctor.Role != model.RoleDoctor {
		return nil, newErr(KindInvalidRole, "selected user is not a doctor")
	}

	minute, ok := parseClock(req.Time)
	if !ok {
		return nil, newErr(KindInvalidRequest, "time must be HH:MM")
	}
	if !withinHours(minute) {
		return nil, newErr(KindOutOfHours, "appointments run between 09:00 and 23:00")
	}

	day, ok := parseDay(req.Date, s.loc)
	if !ok {
		return nil, newErr(KindInvalidDate, "invalid date format")
	}

	start := atClock(day, minute, s.loc)
	end := start.Add(model.SlotLength)
	dayEnd := day.AddDate(0, 0, 1)

	a := &model.Appointment{
		Title:       req.Title,
		Date:        start,
		Time:        formatClock(minute),
		Description: req.Description,
		PatientID:   patient.ID,
		PatientName: patient.Name,
		DoctorID:    doctor.ID,
		DoctorName:  doctor.Name,
	}

	err = s.store.Reserve(ctx, a, day, dayEnd, func(existing []model.Appointment) error {
		if hit, clash := conflicts(start, end, existing, s.loc); clash {
			s.log.Debug("slot conflict",
				zap.String("existing_id", hit.ID),
				zap.Time("existing_start", hit.StartIn(s.loc)),
			)
			return newErr(KindSlotConflict, "slot overlaps an existing booking")
		}
		return nil
	})
	switch {
	case err == nil:
		return a, nil
	case KindOf(err) != 0:
		return nil, err
	case errors.Is(err, model.ErrSlotTaken):
		return nil, wrapErr(KindSlotConflict, "slot overlaps an existing booking", err)
	default:
		return nil, wrapErr(KindStoreUnavailable, "reserve slot", err)
	}
}

func (s *Scheduler) lookup(ctx context.Context, id, what string) (*model.User, error) {
	u, err := s.users.UserByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, newErr(KindNotFound, what+" not found")
	}
	if err != nil {
		return nil, wrapErr(KindStoreUnavailable, "load "+what, err)
	}
	return u, nil
}

// Cancel deletes an appointment when the caller owns it, is its doctor, or is an admin.
func (s *Scheduler) Cancel(ctx context.Context, appointmentID string, caller Caller) error {
	ctx, span := s.tracer.Start(ctx, "scheduler.Cancel", trace.WithAttributes(
		attribute.String("appointment.id", appointmentID),
	))
	defer span.End()

	err := s.cancel(ctx, appointmentID, caller)
	result := "ok"
	if err != nil {
		result = KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, result)
	} else {
		s.log.Info("appointment cancelled",
			zap.String("appointment_id", appointmentID),
			zap.String("caller_id", caller.ID),
		)
	}
	s.metrics.ObserveCancel(result)
	return err
}

func (s *Scheduler) cancel(ctx context.Context, id string, caller Caller) error {
	a, err := s.store.AppointmentByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return newErr(KindNotFound, "appointment not found")
	}
	if err != nil {
		return wrapErr(KindStoreUnavailable, "load appointment", err)
	}

	allowed := caller.Role == model.RoleAdmin ||
		caller.ID == a.PatientID ||
		(caller.Role == model.RoleDoctor && caller.ID == a.DoctorID)
	if !allowed {
		return newErr(KindForbidden, "only the patient, the doctor or an admin can cancel this appointment")
	}

	err = s.store.DeleteAppointment(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		// deleted concurrently
		return newErr(KindNotFound, "appointment not found")
	}
	if err != nil {
		return wrapErr(KindStoreUnavailable, "delete appointment", err)
	}
	return nil
}

// List returns the appointments visible to caller within scope.
func (s *Scheduler) List(ctx context.Context, scope Scope, caller Caller) (out []model.Appointment, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.List", trace.WithAttributes(
		attribute.String("caller.role", string(caller.Role)),
	))
	defer func() { endSpan(span, err) }()

	switch scope.Kind {
	case ScopeMine:
		if caller.Role != model.RolePatient && caller.Role != model.RoleAdmin {
			return nil, newErr(KindForbidden, "doctors list by doctor scope")
		}
		out, err = s.store.AppointmentsByPatient(ctx, caller.ID)
	case ScopeDoctor:
		doctorID := scope.DoctorID
		switch caller.Role {
		case model.RoleAdmin:
			if doctorID == "" {
				return nil, newErr(KindInvalidRequest, "doctor id required")
			}
		case model.RoleDoctor:
			if doctorID == "" {
				doctorID = caller.ID
			}
			if doctorID != caller.ID {
				return nil, newErr(KindForbidden, "doctors can only list their own appointments")
			}
		default:
			return nil, newErr(KindForbidden, "only doctors and admins can list a doctor's appointments")
		}
		out, err = s.store.AppointmentsByDoctor(ctx, doctorID)
	case ScopeAll:
		if caller.Role != model.RoleAdmin {
			return nil, newErr(KindForbidden, "only admins can list all appointments")
		}
		out, err = s.store.AllAppointments(ctx)
	default:
		return nil, newErr(KindInvalidRequest, "unknown scope")
	}
	if err != nil {
		return nil, wrapErr(KindStoreUnavailable, "list appointments", err)
	}
	return out, nil
}
