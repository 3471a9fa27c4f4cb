// Package mongostore persists users, refresh tokens, appointments and
// doctor availability in MongoDB. Writes that must not overlap are
// serialized per doctor and day with a redis lock.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"clinic-booking-api/internal/model"
)

const (
	collUsers         = "users"
	collRefreshTokens = "refresh_tokens"
	collAppointments  = "appointments"
	collAvailability  = "availability"
)

// Locker is satisfied by *locker.Redis.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

type Store struct {
	users  *mongo.Collection
	tokens *mongo.Collection
	appts  *mongo.Collection
	avail  *mongo.Collection

	locker  Locker
	lockTTL time.Duration
	log     *zap.Logger
}

func New(client *mongo.Client, dbName string, l Locker, lockTTL time.Duration, log *zap.Logger) *Store {
	db := client.Database(dbName)
	if log == nil {
		log = zap.NewNop()
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &Store{
		users:   db.Collection(collUsers),
		tokens:  db.Collection(collRefreshTokens),
		appts:   db.Collection(collAppointments),
		avail:   db.Collection(collAvailability),
		locker:  l,
		lockTTL: lockTTL,
		log:     log,
	}
}

// EnsureIndexes creates the uniqueness and lookup indexes. Safe to call on
// every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "emailLower", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "name", Value: 1}}},
		}},
		{s.tokens, []mongo.IndexModel{
			{Keys: bson.D{{Key: "tokenHash", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		}},
		{s.appts, []mongo.IndexModel{
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "startAt", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "patientId", Value: 1}}},
		}},
		{s.avail, []mongo.IndexModel{
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "day", Value: 1}, {Key: "startTime", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
	}
	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateMany(ctx, ix.models); err != nil {
			return fmt.Errorf("indexes on %s: %w", ix.coll.Name(), err)
		}
	}
	return nil
}

func findOneErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ErrNotFound
	}
	return err
}

// ---- users ----

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	EmailLower   string    `bson:"emailLower"`
	PasswordHash string    `bson:"passwordHash"`
	Name         string    `bson:"name"`
	Role         string    `bson:"role"`
	Specialty    string    `bson:"specialty,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func toUserDoc(u *model.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Email:        u.Email,
		EmailLower:   strings.ToLower(u.Email),
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         string(u.Role),
		Specialty:    u.Specialty,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) model() *model.User {
	return &model.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Role:         model.Role(d.Role),
		Specialty:    d.Specialty,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := s.users.InsertOne(ctx, toUserDoc(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var d userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, findOneErr(err)
	}
	return d.model(), nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"emailLower": strings.ToLower(email)})
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	update := bson.M{"$set": bson.M{
		"name":       u.Name,
		"email":      u.Email,
		"emailLower": strings.ToLower(u.Email),
		"specialty":  u.Specialty,
		"updatedAt":  time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d userDoc
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": u.ID}, update, opts).Decode(&d)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicate
		}
		return findOneErr(err)
	}
	*u = *d.model()
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) UsersByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	cur, err := s.users.Find(ctx, bson.M{"role": string(role)}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.model())
	}
	return out, nil
}
