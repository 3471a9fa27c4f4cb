package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/wire"
)

const minPasswordLen = 8

// issue mints an access token and a fresh refresh token for u.
func (h *Handler) issue(ctx context.Context, u *model.User) (*wire.AuthResponse, error) {
	access, err := h.issuer.MakeToken(u.ID, u.Role)
	if err != nil {
		return nil, h.internal("make token", err)
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, h.internal("generate refresh token", err)
	}
	if _, err := h.store.CreateRefreshToken(ctx, u.ID, hash, time.Now().Add(h.refreshTTL)); err != nil {
		return nil, h.internal("store refresh token", err)
	}
	return &wire.AuthResponse{
		AccessToken:  access,
		RefreshToken: raw,
		UserId:       u.ID,
		Name:         u.Name,
		Role:         string(u.Role),
	}, nil
}

// Register signs up a patient. Doctors are created by admins and the admin
// account comes from configuration.
func (h *Handler) Register(ctx context.Context, req *wire.RegisterRequest) (*wire.AuthResponse, error) {
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" || name == "" {
		return nil, status.Error(codes.InvalidArgument, "all fields required")
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
		Role:         model.RolePatient,
	}
	if err := h.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			// dup email, but don't reveal that
			return nil, status.Error(codes.AlreadyExists, "registration failed")
		}
		return nil, h.internal("create user", err)
	}

	h.log.Info("patient registered", zap.String("uid", u.ID))
	return h.issue(ctx, u)
}

func (h *Handler) Login(ctx context.Context, req *wire.LoginRequest) (*wire.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password required")
	}

	u, err := h.store.UserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, model.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	if err != nil {
		return nil, h.internal("user by email", err)
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	return h.issue(ctx, u)
}

// RefreshToken trades a live refresh token for a new pair. Presenting a token
// that was already rotated revokes every session of its owner.
func (h *Handler) RefreshToken(ctx context.Context, req *wire.RefreshTokenRequest) (*wire.AuthResponse, error) {
	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token required")
	}

	rt, err := h.store.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if errors.Is(err, model.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if err != nil {
		return nil, h.internal("refresh token by hash", err)
	}

	if rt.Revoked {
		h.log.Warn("refresh token reuse", zap.String("uid", rt.UserID), zap.String("token_id", rt.ID))
		if err := h.store.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			return nil, h.internal("revoke refresh tokens", err)
		}
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, status.Error(codes.Unauthenticated, "refresh token expired")
	}

	u, err := h.store.UserByID(ctx, rt.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if err != nil {
		return nil, h.internal("user by id", err)
	}

	access, err := h.issuer.MakeToken(u.ID, u.Role)
	if err != nil {
		return nil, h.internal("make token", err)
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, h.internal("generate refresh token", err)
	}
	err = h.store.RotateRefreshToken(ctx, rt.ID, uuid.New().String(), u.ID, hash, time.Now().Add(h.refreshTTL))
	if errors.Is(err, model.ErrNotFound) {
		// lost a race with another refresh of the same token
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if err != nil {
		return nil, h.internal("rotate refresh token", err)
	}

	return &wire.AuthResponse{
		AccessToken:  access,
		RefreshToken: raw,
		UserId:       u.ID,
		Name:         u.Name,
		Role:         string(u.Role),
	}, nil
}

func (h *Handler) Logout(ctx context.Context, _ *wire.Empty) (*wire.Empty, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.store.RevokeAllRefreshTokens(ctx, c.ID); err != nil {
		return nil, h.internal("revoke refresh tokens", err)
	}
	return &wire.Empty{}, nil
}
