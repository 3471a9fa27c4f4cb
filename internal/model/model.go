package model

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	// the store's uniqueness backstop rejected an overlapping slot
	ErrSlotTaken = errors.New("slot already taken")
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole accepts the legacy "user" spelling for patients.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "patient", "user":
		return RolePatient, true
	case "doctor":
		return RoleDoctor, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	Specialty    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

// SlotLength is the fixed duration of every appointment.
const SlotLength = time.Hour

type Appointment struct {
	ID          string
	Title       string
	Date        time.Time // slot start instant
	Time        string    // "HH:MM"
	Description string
	PatientID   string
	PatientName string
	DoctorID    string
	DoctorName  string
	CreatedAt   time.Time
}

// StartIn rebuilds the slot start from the stored calendar day (as seen in
// loc) and Time, falling back to Date when Time is malformed.
func (a *Appointment) StartIn(loc *time.Location) time.Time {
	t, err := time.Parse("15:04", a.Time)
	if err != nil {
		return a.Date
	}
	y, m, d := a.Date.In(loc).Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}

func (a *Appointment) Start() time.Time {
	return a.StartIn(a.Date.Location())
}

func (a *Appointment) End() time.Time {
	return a.Start().Add(SlotLength)
}

// Availability is a window on one calendar day during which a doctor
// accepts patients. Times are "HH:MM" on the clinic clock.
type Availability struct {
	ID        string
	DoctorID  string
	Date      time.Time // midnight of the day
	StartTime string
	EndTime   string
	CreatedAt time.Time
}
