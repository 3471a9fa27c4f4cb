package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/scheduler"
	"clinic-booking-api/internal/wire"
)

func (h *Handler) BookAppointment(ctx context.Context, req *wire.BookAppointmentRequest) (*wire.AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	a, err := h.sched.Book(ctx, scheduler.BookingRequest{
		Title:       req.Title,
		Date:        req.Date,
		Time:        req.Time,
		Description: req.Description,
		DoctorID:    req.DoctorId,
	}, c)
	if err != nil {
		return nil, h.schedulerStatus(err)
	}
	return &wire.AppointmentResponse{Appointment: toWireAppointment(a, h.sched.Location())}, nil
}

func (h *Handler) CancelAppointment(ctx context.Context, req *wire.IdRequest) (*wire.Empty, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.Id == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	if err := h.sched.Cancel(ctx, req.Id, c); err != nil {
		return nil, h.schedulerStatus(err)
	}
	return &wire.Empty{}, nil
}

// parseScope defaults an empty scope to the caller's own appointments.
func parseScope(req *wire.ListAppointmentsRequest, role model.Role) (scheduler.Scope, bool) {
	scope := req.Scope
	if scope == "" {
		scope = "mine"
		if role == model.RoleDoctor {
			scope = "doctor"
		}
	}
	switch scope {
	case "mine":
		return scheduler.Scope{Kind: scheduler.ScopeMine}, true
	case "doctor":
		return scheduler.Scope{Kind: scheduler.ScopeDoctor, DoctorID: req.DoctorId}, true
	case "all":
		return scheduler.Scope{Kind: scheduler.ScopeAll}, true
	}
	return scheduler.Scope{}, false
}

func (h *Handler) ListAppointments(ctx context.Context, req *wire.ListAppointmentsRequest) (*wire.ListAppointmentsResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	scope, ok := parseScope(req, c.Role)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "scope must be mine, doctor or all")
	}

	appts, err := h.sched.List(ctx, scope, c)
	if err != nil {
		return nil, h.schedulerStatus(err)
	}

	loc := h.sched.Location()
	out := make([]*wire.Appointment, len(appts))
	for i := range appts {
		out[i] = toWireAppointment(&appts[i], loc)
	}
	return &wire.ListAppointmentsResponse{Appointments: out}, nil
}
