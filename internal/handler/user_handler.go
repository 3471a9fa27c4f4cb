package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/wire"
)

func (h *Handler) GetProfile(ctx context.Context, _ *wire.Empty) (*wire.User, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := h.store.UserByID(ctx, c.ID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "user not found")
	}
	if err != nil {
		return nil, h.internal("user by id", err)
	}
	return toWireUser(u), nil
}

// UpdateProfile edits name and email. Specialty only sticks for doctors.
func (h *Handler) UpdateProfile(ctx context.Context, req *wire.UpdateProfileRequest) (*wire.User, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name required")
	}

	u, err := h.store.UserByID(ctx, c.ID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "user not found")
	}
	if err != nil {
		return nil, h.internal("user by id", err)
	}

	u.Name = name
	if email != "" {
		if !h.validEmail(email) {
			return nil, status.Error(codes.InvalidArgument, "invalid email")
		}
		u.Email = email
	}
	if u.Role == model.RoleDoctor {
		u.Specialty = strings.TrimSpace(req.Specialty)
	}

	if err := h.store.UpdateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, model.ErrDuplicate):
			return nil, status.Error(codes.AlreadyExists, "email already in use")
		case errors.Is(err, model.ErrNotFound):
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, h.internal("update user", err)
	}
	return toWireUser(u), nil
}

func (h *Handler) ListDoctors(ctx context.Context, _ *wire.Empty) (*wire.ListDoctorsResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	docs, err := h.store.UsersByRole(ctx, model.RoleDoctor)
	if err != nil {
		return nil, h.internal("users by role", err)
	}
	out := make([]*wire.User, len(docs))
	for i := range docs {
		out[i] = toWireUser(&docs[i])
		// the directory is visible to patients
		out[i].Email = ""
	}
	return &wire.ListDoctorsResponse{Doctors: out}, nil
}

func requireAdmin(ctx context.Context) error {
	c, err := caller(ctx)
	if err != nil {
		return err
	}
	if c.Role != model.RoleAdmin {
		return status.Error(codes.PermissionDenied, "admin only")
	}
	return nil
}

func (h *Handler) CreateDoctor(ctx context.Context, req *wire.CreateDoctorRequest) (*wire.User, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	specialty := strings.TrimSpace(req.Specialty)
	if name == "" || email == "" || req.Password == "" || specialty == "" {
		return nil, status.Error(codes.InvalidArgument, "name, email, password and specialty required")
	}
	if len(req.Password) < minPasswordLen {
		return nil, status.Error(codes.InvalidArgument, "password too short")
	}
	if !h.validEmail(email) {
		return nil, status.Error(codes.InvalidArgument, "invalid email")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, h.internal("hash password", err)
	}
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleDoctor,
		Specialty:    specialty,
	}
	if err := h.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, status.Error(codes.AlreadyExists, "email already in use")
		}
		return nil, h.internal("create doctor", err)
	}

	h.log.Info("doctor created", zap.String("uid", u.ID))
	return toWireUser(u), nil
}

// DeleteDoctor removes the account. Existing appointments keep the doctor's
// name snapshot.
func (h *Handler) DeleteDoctor(ctx context.Context, req *wire.IdRequest) (*wire.Empty, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if req.Id == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}

	u, err := h.store.UserByID(ctx, req.Id)
	if errors.Is(err, model.ErrNotFound) || (err == nil && u.Role != model.RoleDoctor) {
		return nil, status.Error(codes.NotFound, "doctor not found")
	}
	if err != nil {
		return nil, h.internal("user by id", err)
	}

	if err := h.store.RevokeAllRefreshTokens(ctx, u.ID); err != nil {
		return nil, h.internal("revoke refresh tokens", err)
	}
	if err := h.store.DeleteUser(ctx, u.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "doctor not found")
		}
		return nil, h.internal("delete user", err)
	}

	h.log.Info("doctor deleted", zap.String("uid", u.ID))
	return &wire.Empty{}, nil
}

// EnsureAdmin creates the bootstrap admin when no account uses email yet.
// An existing account with that email is left untouched.
func (h *Handler) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := h.store.UserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if name == "" {
		name = "Admin"
	}
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleAdmin,
	}
	if err := h.store.CreateUser(ctx, u); err != nil && !errors.Is(err, model.ErrDuplicate) {
		return err
	}
	h.log.Info("admin account created", zap.String("email", email))
	return nil
}
