package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"clinic-booking-api/internal/model"
)

type availDoc struct {
	ID        string    `bson:"_id"`
	DoctorID  string    `bson:"doctorId"`
	Day       string    `bson:"day"` // YYYY-MM-DD
	StartTime string    `bson:"startTime"`
	EndTime   string    `bson:"endTime"`
	CreatedAt time.Time `bson:"createdAt"`
}

func toAvailDoc(av *model.Availability) availDoc {
	return availDoc{
		ID:        av.ID,
		DoctorID:  av.DoctorID,
		Day:       av.Date.Format(time.DateOnly),
		StartTime: av.StartTime,
		EndTime:   av.EndTime,
		CreatedAt: av.CreatedAt.UTC(),
	}
}

func (d availDoc) model() model.Availability {
	day, _ := time.Parse(time.DateOnly, d.Day)
	return model.Availability{
		ID:        d.ID,
		DoctorID:  d.DoctorID,
		Date:      day,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		CreatedAt: d.CreatedAt,
	}
}

func (s *Store) findAvailability(ctx context.Context, filter bson.M) ([]model.Availability, error) {
	cur, err := s.avail.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "day", Value: 1}, {Key: "startTime", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find availability: %w", err)
	}
	var docs []availDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Availability, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

// AddAvailability holds the doctor/day availability lock across load, check
// and insert.
func (s *Store) AddAvailability(ctx context.Context, av *model.Availability, check func([]model.Availability) error) error {
	key := "avail:" + av.DoctorID + "|" + av.Date.Format(time.DateOnly)
	token, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("mongostore.AddAvailability unlock", zap.String("key", key), zap.Error(err))
		}
	}()

	existing, err := s.findAvailability(ctx, bson.M{
		"doctorId": av.DoctorID,
		"day":      av.Date.Format(time.DateOnly),
	})
	if err != nil {
		return err
	}
	if err := check(existing); err != nil {
		return err
	}

	av.ID = uuid.New().String()
	av.CreatedAt = time.Now().UTC()
	if _, err := s.avail.InsertOne(ctx, toAvailDoc(av)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert availability: %w", model.ErrSlotTaken)
		}
		return fmt.Errorf("insert availability: %w", err)
	}
	return nil
}

func (s *Store) AvailabilityByID(ctx context.Context, id string) (*model.Availability, error) {
	var d availDoc
	if err := s.avail.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, findOneErr(err)
	}
	av := d.model()
	return &av, nil
}

func (s *Store) DeleteAvailability(ctx context.Context, id string) error {
	res, err := s.avail.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) AvailabilityByDoctor(ctx context.Context, doctorID string) ([]model.Availability, error) {
	return s.findAvailability(ctx, bson.M{"doctorId": doctorID})
}
