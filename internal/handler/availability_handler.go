package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/scheduler"
	"clinic-booking-api/internal/wire"
)

func toWireAvailability(av *model.Availability) *wire.Availability {
	return &wire.Availability{
		Id:        av.ID,
		DoctorId:  av.DoctorID,
		Date:      av.Date.Format(time.DateOnly),
		StartTime: av.StartTime,
		EndTime:   av.EndTime,
		CreatedAt: wire.Timestamp(av.CreatedAt),
	}
}

func (h *Handler) SetAvailability(ctx context.Context, req *wire.SetAvailabilityRequest) (*wire.AvailabilityResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	av, err := h.sched.SetAvailability(ctx, scheduler.AvailabilityRequest{
		DoctorID:  req.DoctorId,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}, c)
	if err != nil {
		return nil, h.schedulerStatus(err)
	}
	return &wire.AvailabilityResponse{Availability: toWireAvailability(av)}, nil
}

func (h *Handler) ListAvailability(ctx context.Context, req *wire.ListAvailabilityRequest) (*wire.ListAvailabilityResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	ws, err := h.sched.ListAvailability(ctx, req.DoctorId, c)
	if err != nil {
		return nil, h.schedulerStatus(err)
	}
	out := make([]*wire.Availability, len(ws))
	for i := range ws {
		out[i] = toWireAvailability(&ws[i])
	}
	return &wire.ListAvailabilityResponse{Availability: out}, nil
}

func (h *Handler) DeleteAvailability(ctx context.Context, req *wire.IdRequest) (*wire.Empty, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.Id == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	if err := h.sched.RemoveAvailability(ctx, req.Id, c); err != nil {
		return nil, h.schedulerStatus(err)
	}
	return &wire.Empty{}, nil
}
