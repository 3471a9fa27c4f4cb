package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/middleware"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/scheduler"
	"clinic-booking-api/internal/wire"
)

// Store is the account side of persistence. Appointments go through the
// scheduler.
type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id string) error
	UsersByRole(ctx context.Context, role model.Role) ([]model.User, error)

	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

type Handler struct {
	wire.UnimplementedBookingServiceServer
	store      Store
	sched      *scheduler.Scheduler
	issuer     *auth.Issuer
	refreshTTL time.Duration
	validate   *validator.Validate
	log        *zap.Logger
}

type Option func(*Handler)

func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

func WithRefreshTTL(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.refreshTTL = d
		}
	}
}

func New(st Store, sched *scheduler.Scheduler, iss *auth.Issuer, opts ...Option) *Handler {
	h := &Handler{
		store:      st,
		sched:      sched,
		issuer:     iss,
		refreshTTL: 7 * 24 * time.Hour,
		validate:   validator.New(),
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

var _ wire.BookingServiceServer = (*Handler)(nil)

func caller(ctx context.Context) (scheduler.Caller, error) {
	id, ok := middleware.IdentityFrom(ctx)
	if !ok || id.UserID == "" {
		return scheduler.Caller{}, status.Error(codes.Unauthenticated, "not authenticated")
	}
	return scheduler.Caller{ID: id.UserID, Role: id.Role}, nil
}

func (h *Handler) internal(msg string, err error) error {
	h.log.Error(msg, zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

var kindCodes = map[scheduler.Kind]codes.Code{
	scheduler.KindForbidden:        codes.PermissionDenied,
	scheduler.KindNotFound:         codes.NotFound,
	scheduler.KindInvalidRole:      codes.InvalidArgument,
	scheduler.KindOutOfHours:       codes.InvalidArgument,
	scheduler.KindInvalidDate:      codes.InvalidArgument,
	scheduler.KindInvalidRequest:   codes.InvalidArgument,
	scheduler.KindSlotConflict:     codes.AlreadyExists,
	scheduler.KindStoreUnavailable: codes.Unavailable,
}

// schedulerStatus maps a scheduler rejection onto a gRPC status. The message
// leads with the kind so clients can tell the InvalidArgument cases apart.
func (h *Handler) schedulerStatus(err error) error {
	var se *scheduler.Error
	if !errors.As(err, &se) {
		return h.internal("scheduler", err)
	}
	code, ok := kindCodes[se.Kind]
	if !ok {
		return h.internal("scheduler", err)
	}
	if se.Kind == scheduler.KindStoreUnavailable {
		h.log.Warn("store unavailable", zap.Error(err))
		return status.Error(code, se.Kind.String()+": try again later")
	}
	msg := se.Kind.String()
	if se.Msg != "" {
		msg += ": " + se.Msg
	}
	return status.Error(code, msg)
}

func (h *Handler) validEmail(email string) bool {
	return h.validate.Var(email, "required,email") == nil
}

func toWireUser(u *model.User) *wire.User {
	return &wire.User{
		Id:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Specialty: u.Specialty,
		CreatedAt: wire.Timestamp(u.CreatedAt),
	}
}

func toWireAppointment(a *model.Appointment, loc *time.Location) *wire.Appointment {
	start := a.StartIn(loc)
	return &wire.Appointment{
		Id:          a.ID,
		Title:       a.Title,
		Date:        start.Format(time.DateOnly),
		Time:        a.Time,
		Description: a.Description,
		PatientId:   a.PatientID,
		PatientName: a.PatientName,
		DoctorId:    a.DoctorID,
		DoctorName:  a.DoctorName,
		StartTime:   wire.Timestamp(start),
		EndTime:     wire.Timestamp(start.Add(model.SlotLength)),
		CreatedAt:   wire.Timestamp(a.CreatedAt),
	}
}
