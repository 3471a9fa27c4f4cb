package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"clinic-booking-api/internal/model"
)

type tokenDoc struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"userId"`
	TokenHash  string    `bson:"tokenHash"`
	ExpiresAt  time.Time `bson:"expiresAt"`
	Revoked    bool      `bson:"revoked"`
	ReplacedBy *string   `bson:"replacedBy,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"`
}

func (d tokenDoc) model() *model.RefreshToken {
	return &model.RefreshToken{
		ID:         d.ID,
		UserID:     d.UserID,
		TokenHash:  d.TokenHash,
		ExpiresAt:  d.ExpiresAt,
		Revoked:    d.Revoked,
		ReplacedBy: d.ReplacedBy,
		CreatedAt:  d.CreatedAt,
	}
}

func (s *Store) insertToken(ctx context.Context, id, userID, hash string, expiresAt time.Time) error {
	_, err := s.tokens.InsertOne(ctx, tokenDoc{
		ID:        id,
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (s *Store) CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	id := uuid.New().String()
	return id, s.insertToken(ctx, id, userID, tokenHash, expiresAt)
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var d tokenDoc
	if err := s.tokens.FindOne(ctx, bson.M{"tokenHash": tokenHash}).Decode(&d); err != nil {
		return nil, findOneErr(err)
	}
	return d.model(), nil
}

// RotateRefreshToken flips the old token to revoked only if it was still
// live, so two racing refreshes cannot both mint a successor.
func (s *Store) RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	res, err := s.tokens.UpdateOne(ctx,
		bson.M{"_id": oldID, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true, "replacedBy": newID}},
	)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if res.ModifiedCount == 0 {
		return model.ErrNotFound
	}
	return s.insertToken(ctx, newID, userID, newHash, newExpiry)
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := s.tokens.UpdateMany(ctx,
		bson.M{"userId": userID, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true}},
	)
	return err
}
