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

type apptDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	StartAt     time.Time `bson:"startAt"`
	EndAt       time.Time `bson:"endAt"`
	SlotTime    string    `bson:"slotTime"`
	Description string    `bson:"description,omitempty"`
	PatientID   string    `bson:"patientId"`
	PatientName string    `bson:"patientName"`
	DoctorID    string    `bson:"doctorId"`
	DoctorName  string    `bson:"doctorName"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func toApptDoc(a *model.Appointment) apptDoc {
	return apptDoc{
		ID:          a.ID,
		Title:       a.Title,
		StartAt:     a.Date.UTC(),
		EndAt:       a.Date.Add(model.SlotLength).UTC(),
		SlotTime:    a.Time,
		Description: a.Description,
		PatientID:   a.PatientID,
		PatientName: a.PatientName,
		DoctorID:    a.DoctorID,
		DoctorName:  a.DoctorName,
		CreatedAt:   a.CreatedAt.UTC(),
	}
}

func (d apptDoc) model() model.Appointment {
	return model.Appointment{
		ID:          d.ID,
		Title:       d.Title,
		Date:        d.StartAt,
		Time:        d.SlotTime,
		Description: d.Description,
		PatientID:   d.PatientID,
		PatientName: d.PatientName,
		DoctorID:    d.DoctorID,
		DoctorName:  d.DoctorName,
		CreatedAt:   d.CreatedAt,
	}
}

func lockKey(doctorID string, day time.Time) string {
	return "appt:" + doctorID + "|" + day.Format(time.DateOnly)
}

func (s *Store) findAppointments(ctx context.Context, filter bson.M, sortKey string) ([]model.Appointment, error) {
	cur, err := s.appts.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: sortKey, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find appointments: %w", err)
	}
	var docs []apptDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Appointment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

// Reserve holds the doctor/day lock across load, check and insert. The
// unique (doctorId, startAt) index rejects identical starts if the lock
// expired under us.
func (s *Store) Reserve(ctx context.Context, a *model.Appointment, from, to time.Time, check func([]model.Appointment) error) error {
	key := lockKey(a.DoctorID, from)
	token, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("mongostore.Reserve unlock", zap.String("key", key), zap.Error(err))
		}
	}()

	existing, err := s.findAppointments(ctx, bson.M{
		"doctorId": a.DoctorID,
		"startAt":  bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}, "startAt")
	if err != nil {
		return err
	}
	if err := check(existing); err != nil {
		return err
	}

	a.ID = uuid.New().String()
	a.CreatedAt = time.Now().UTC()
	if _, err := s.appts.InsertOne(ctx, toApptDoc(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert appointment: %w", model.ErrSlotTaken)
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *Store) AppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	var d apptDoc
	if err := s.appts.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, findOneErr(err)
	}
	a := d.model()
	return &a, nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	res, err := s.appts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) AppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return s.findAppointments(ctx, bson.M{"patientId": patientID}, "createdAt")
}

func (s *Store) AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	return s.findAppointments(ctx, bson.M{"doctorId": doctorID}, "createdAt")
}

func (s *Store) AllAppointments(ctx context.Context) ([]model.Appointment, error) {
	return s.findAppointments(ctx, bson.M{}, "createdAt")
}
