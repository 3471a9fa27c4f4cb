// Package memstore keeps users, refresh tokens, appointments and doctor
// availability in process memory. It backs STORE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinic-booking-api/internal/model"
)

type Store struct {
	mu     sync.Mutex
	users  map[string]model.User
	tokens map[string]model.RefreshToken
	appts  map[string]model.Appointment
	order  []string // appointment insertion order
	avail  map[string]model.Availability
	now    func() time.Time
}

func New() *Store {
	return &Store{
		users:  make(map[string]model.User),
		tokens: make(map[string]model.RefreshToken),
		appts:  make(map[string]model.Appointment),
		avail:  make(map[string]model.Availability),
		now:    time.Now,
	}
}

// ---- users ----

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if strings.EqualFold(ex.Email, u.Email) {
			return model.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	return nil
}

func (s *Store) UserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return model.ErrNotFound
	}
	for id, ex := range s.users {
		if id != u.ID && strings.EqualFold(ex.Email, u.Email) {
			return model.ErrDuplicate
		}
	}
	cur.Name, cur.Email, cur.Specialty = u.Name, u.Email, u.Specialty
	cur.UpdatedAt = s.now()
	s.users[u.ID] = cur
	*u = cur
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) UsersByRole(_ context.Context, role model.Role) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---- refresh tokens ----

func (s *Store) CreateRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.tokens[id] = model.RefreshToken{ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: s.now()}
	return id, nil
}

func (s *Store) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rt := range s.tokens {
		if rt.TokenHash == tokenHash {
			return &rt, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) RotateRefreshToken(_ context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.tokens[oldID]
	if !ok || old.Revoked {
		return model.ErrNotFound
	}
	old.Revoked = true
	old.ReplacedBy = &newID
	s.tokens[oldID] = old
	s.tokens[newID] = model.RefreshToken{ID: newID, UserID: userID, TokenHash: newHash, ExpiresAt: newExpiry, CreatedAt: s.now()}
	return nil
}

func (s *Store) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rt := range s.tokens {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			s.tokens[id] = rt
		}
	}
	return nil
}

// ---- appointments ----

// Reserve holds the store lock across load, check and insert.
func (s *Store) Reserve(_ context.Context, a *model.Appointment, from, to time.Time, check func([]model.Appointment) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing []model.Appointment
	for _, id := range s.order {
		ex := s.appts[id]
		if ex.DoctorID == a.DoctorID && !ex.Date.Before(from) && ex.Date.Before(to) {
			existing = append(existing, ex)
		}
	}
	if err := check(existing); err != nil {
		return err
	}

	a.ID = uuid.New().String()
	a.CreatedAt = s.now()
	s.appts[a.ID] = *a
	s.order = append(s.order, a.ID)
	return nil
}

func (s *Store) AppointmentByID(_ context.Context, id string) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

func (s *Store) DeleteAppointment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appts[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.appts, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) AppointmentsByPatient(_ context.Context, patientID string) ([]model.Appointment, error) {
	return s.filter(func(a model.Appointment) bool { return a.PatientID == patientID }), nil
}

func (s *Store) AppointmentsByDoctor(_ context.Context, doctorID string) ([]model.Appointment, error) {
	return s.filter(func(a model.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (s *Store) AllAppointments(_ context.Context) ([]model.Appointment, error) {
	return s.filter(func(model.Appointment) bool { return true }), nil
}

func (s *Store) filter(keep func(model.Appointment) bool) []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Appointment{}
	for _, id := range s.order {
		if a := s.appts[id]; keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// ---- availability ----

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (s *Store) AddAvailability(_ context.Context, av *model.Availability, check func([]model.Availability) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := []model.Availability{}
	for _, w := range s.avail {
		if w.DoctorID == av.DoctorID && sameDay(w.Date, av.Date) {
			existing = append(existing, w)
		}
	}
	sortAvailability(existing)
	if err := check(existing); err != nil {
		return err
	}

	av.ID = uuid.New().String()
	av.CreatedAt = s.now()
	s.avail[av.ID] = *av
	return nil
}

func (s *Store) AvailabilityByID(_ context.Context, id string) (*model.Availability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	av, ok := s.avail[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &av, nil
}

func (s *Store) DeleteAvailability(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.avail[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.avail, id)
	return nil
}

func (s *Store) AvailabilityByDoctor(_ context.Context, doctorID string) ([]model.Availability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Availability{}
	for _, w := range s.avail {
		if w.DoctorID == doctorID {
			out = append(out, w)
		}
	}
	sortAvailability(out)
	return out, nil
}

// sortAvailability orders by day, then start time.
func sortAvailability(ws []model.Availability) {
	sort.Slice(ws, func(i, j int) bool {
		if !ws[i].Date.Equal(ws[j].Date) {
			return ws[i].Date.Before(ws[j].Date)
		}
		return ws[i].StartTime < ws[j].StartTime
	})
}
