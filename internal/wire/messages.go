package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Empty is used where an RPC takes or returns nothing.
type Empty struct{}

func (*Empty) Marshal() []byte        { return nil }
func (*Empty) Unmarshal([]byte) error { return nil }

// ---- auth ----

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

func (m *RegisterRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Email)
	b = appendString(b, 2, m.Password)
	b = appendString(b, 3, m.Name)
	return b
}

func (m *RegisterRequest) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		switch num {
		case 1:
			m.Email = string(raw)
		case 2:
			m.Password = string(raw)
		case 3:
			m.Name = string(raw)
		}
		return nil
	})
}

type LoginRequest struct {
	Email    string
	Password string
}

func (m *LoginRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Email)
	b = appendString(b, 2, m.Password)
	return b
}

func (m *LoginRequest) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		switch num {
		case 1:
			m.Email = string(raw)
		case 2:
			m.Password = string(raw)
		}
		return nil
	})
}

type RefreshTokenRequest struct {
	RefreshToken string
}

func (m *RefreshTokenRequest) Marshal() []byte {
	return appendString(nil, 1, m.RefreshToken)
}

func (m *RefreshTokenRequest) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		if num == 1 {
			m.RefreshToken = string(raw)
		}
		return nil
	})
}

// AuthResponse answers Register, Login and RefreshToken.
type AuthResponse struct {
	AccessToken  string
	RefreshToken string
	UserId       string
	Name         string
	Role         string
}

func (m *AuthResponse) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.AccessToken)
	b = appendString(b, 2, m.RefreshToken)
	b = appendString(b, 3, m.UserId)
	b = appendString(b, 4, m.Name)
	b = appendString(b, 5, m.Role)
	return b
}

func (m *AuthResponse) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		switch num {
		case 1:
			m.AccessToken = string(raw)
		case 2:
			m.RefreshToken = string(raw)
		case 3:
			m.UserId = string(raw)
		case 4:
			m.Name = string(raw)
		case 5:
			m.Role = string(raw)
		}
		return nil
	})
}

// ---- users ----

type User struct {
	Id        string
	Email     string
	Name      string
	Role      string
	Specialty string
	CreatedAt *timestamppb.Timestamp
}

func (m *User) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.Email)
	b = appendString(b, 3, m.Name)
	b = appendString(b, 4, m.Role)
	b = appendString(b, 5, m.Specialty)
	b = appendTimestamp(b, 6, m.CreatedAt)
	return b
}

func (m *User) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) (err error) {
		switch num {
		case 1:
			m.Id = string(raw)
		case 2:
			m.Email = string(raw)
		case 3:
			m.Name = string(raw)
		case 4:
			m.Role = string(raw)
		case 5:
			m.Specialty = string(raw)
		case 6:
			m.CreatedAt, err = parseTimestamp(raw)
		}
		return err
	})
}

type UpdateProfileRequest struct {
	Name      string
	Email     string
	Specialty string
}

func (m *UpdateProfileRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Name)
	b = appendString(b, 2, m.Email)
	b = appendString(b, 3, m.Specialty)
	return b
}

func (m *UpdateProfileRequest) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		switch num {
		case 1:
			m.Name = string(raw)
		case 2:
			m.Email = string(raw)
		case 3:
			m.Specialty = string(raw)
		}
		return nil
	})
}

type ListDoctorsResponse struct {
	Doctors []*User
}

func (m *ListDoctorsResponse) Marshal() []byte {
	var b []byte
	for _, d := range m.Doctors {
		if d != nil {
			b = appendMessage(b, 1, d)
		}
	}
	return b
}

func (m *ListDoctorsResponse) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		if num != 1 {
			return nil
		}
		d := &User{}
		if err := d.Unmarshal(raw); err != nil {
			return err
		}
		m.Doctors = append(m.Doctors, d)
		return nil
	})
}

type CreateDoctorRequest struct {
	Name      string
	Email     string
	Password  string
	Specialty string
}

func (m *CreateDoctorRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Name)
	b = appendString(b, 2, m.Email)
	b = appendString(b, 3, m.Password)
	b = appendString(b, 4, m.Specialty)
	return b
}

func (m *CreateDoctorRequest) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		switch num {
		case 1:
			m.Name = string(raw)
		case 2:
			m.Email = string(raw)
		case 3:
			m.Password = string(raw)
		case 4:
			m.Specialty = string(raw)
		}
		return nil
	})
}

// IdRequest names a single record; DeleteDoctor and CancelAppointment take it.
type IdRequest struct {
	Id string
}

func (m *IdRequest) Marshal() []byte {
	return appendString(nil, 1, m.Id)
}

func (m *IdRequest) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		if num == 1 {
			m.Id = string(raw)
		}
		return nil
	})
}

// ---- appointments ----

type Appointment struct {
	Id          string
	Title       string
	Date        string // YYYY-MM-DD in clinic time
	Time        string // HH:MM
	Description string
	PatientId   string
	PatientName string
	DoctorId    string
	DoctorName  string
	StartTime   *timestamppb.Timestamp
	EndTime     *timestamppb.Timestamp
	CreatedAt   *timestamppb.Timestamp
}

func (m *Appointment) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.Title)
	b = appendString(b, 3, m.Date)
	b = appendString(b, 4, m.Time)
	b = appendString(b, 5, m.Description)
	b = appendString(b, 6, m.PatientId)
	b = appendString(b, 7, m.PatientName)
	b = appendString(b, 8, m.DoctorId)
	b = appendString(b, 9, m.DoctorName)
	b = appendTimestamp(b, 10, m.StartTime)
	b = appendTimestamp(b, 11, m.EndTime)
	b = appendTimestamp(b, 12, m.CreatedAt)
	return b
}

func (m *Appointment) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) (err error) {
		switch num {
		case 1:
			m.Id = string(raw)
		case 2:
			m.Title = string(raw)
		case 3:
			m.Date = string(raw)
		case 4:
			m.Time = string(raw)
		case 5:
			m.Description = string(raw)
		case 6:
			m.PatientId = string(raw)
		case 7:
			m.PatientName = string(raw)
		case 8:
			m.DoctorId = string(raw)
		case 9:
			m.DoctorName = string(raw)
		case 10:
			m.StartTime, err = parseTimestamp(raw)
		case 11:
			m.EndTime, err = parseTimestamp(raw)
		case 12:
			m.CreatedAt, err = parseTimestamp(raw)
		}
		return err
	})
}

type BookAppointmentRequest struct {
	Title       string
	Date        string
	Time        string
	Description string
	DoctorId    string
}

func (m *BookAppointmentRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Title)
	b = appendString(b, 2, m.Date)
	b = appendString(b, 3, m.Time)
	b = appendString(b, 4, m.Description)
	b = appendString(b, 5, m.DoctorId)
	return b
}

func (m *BookAppointmentRequest) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		switch num {
		case 1:
			m.Title = string(raw)
		case 2:
			m.Date = string(raw)
		case 3:
			m.Time = string(raw)
		case 4:
			m.Description = string(raw)
		case 5:
			m.DoctorId = string(raw)
		}
		return nil
	})
}

type AppointmentResponse struct {
	Appointment *Appointment
}

func (m *AppointmentResponse) Marshal() []byte {
	if m.Appointment == nil {
		return nil
	}
	return appendMessage(nil, 1, m.Appointment)
}

func (m *AppointmentResponse) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		if num != 1 {
			return nil
		}
		m.Appointment = &Appointment{}
		return m.Appointment.Unmarshal(raw)
	})
}

// ListAppointmentsRequest.Scope is "mine", "doctor" or "all".
type ListAppointmentsRequest struct {
	Scope    string
	DoctorId string
}

func (m *ListAppointmentsRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Scope)
	b = appendString(b, 2, m.DoctorId)
	return b
}

func (m *ListAppointmentsRequest) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		switch num {
		case 1:
			m.Scope = string(raw)
		case 2:
			m.DoctorId = string(raw)
		}
		return nil
	})
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment
}

func (m *ListAppointmentsResponse) Marshal() []byte {
	var b []byte
	for _, a := range m.Appointments {
		if a != nil {
			b = appendMessage(b, 1, a)
		}
	}
	return b
}

func (m *ListAppointmentsResponse) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		if num != 1 {
			return nil
		}
		a := &Appointment{}
		if err := a.Unmarshal(raw); err != nil {
			return err
		}
		m.Appointments = append(m.Appointments, a)
		return nil
	})
}

// ---- availability ----

type Availability struct {
	Id        string
	DoctorId  string
	Date      string // YYYY-MM-DD in clinic time
	StartTime string // HH:MM
	EndTime   string // HH:MM
	CreatedAt *timestamppb.Timestamp
}

func (m *Availability) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.DoctorId)
	b = appendString(b, 3, m.Date)
	b = appendString(b, 4, m.StartTime)
	b = appendString(b, 5, m.EndTime)
	b = appendTimestamp(b, 6, m.CreatedAt)
	return b
}

func (m *Availability) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) (err error) {
		switch num {
		case 1:
			m.Id = string(raw)
		case 2:
			m.DoctorId = string(raw)
		case 3:
			m.Date = string(raw)
		case 4:
			m.StartTime = string(raw)
		case 5:
			m.EndTime = string(raw)
		case 6:
			m.CreatedAt, err = parseTimestamp(raw)
		}
		return err
	})
}

type SetAvailabilityRequest struct {
	DoctorId  string
	Date      string
	StartTime string
	EndTime   string
}

func (m *SetAvailabilityRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.DoctorId)
	b = appendString(b, 2, m.Date)
	b = appendString(b, 3, m.StartTime)
	b = appendString(b, 4, m.EndTime)
	return b
}

func (m *SetAvailabilityRequest) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		switch num {
		case 1:
			m.DoctorId = string(raw)
		case 2:
			m.Date = string(raw)
		case 3:
			m.StartTime = string(raw)
		case 4:
			m.EndTime = string(raw)
		}
		return nil
	})
}

type AvailabilityResponse struct {
	Availability *Availability
}

func (m *AvailabilityResponse) Marshal() []byte {
	if m.Availability == nil {
		return nil
	}
	return appendMessage(nil, 1, m.Availability)
}

func (m *AvailabilityResponse) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		if num != 1 {
			return nil
		}
		m.Availability = &Availability{}
		return m.Availability.Unmarshal(raw)
	})
}

type ListAvailabilityRequest struct {
	DoctorId string
}

func (m *ListAvailabilityRequest) Marshal() []byte {
	return appendString(nil, 1, m.DoctorId)
}

func (m *ListAvailabilityRequest) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		if num == 1 {
			m.DoctorId = string(raw)
		}
		return nil
	})
}

type ListAvailabilityResponse struct {
	Availability []*Availability
}

func (m *ListAvailabilityResponse) Marshal() []byte {
	var b []byte
	for _, a := range m.Availability {
		if a != nil {
			b = appendMessage(b, 1, a)
		}
	}
	return b
}

func (m *ListAvailabilityResponse) Unmarshal(b []byte) error {
	return decode(b, func(num protowire.Number, raw []byte) error {
		if num != 1 {
			return nil
		}
		a := &Availability{}
		if err := a.Unmarshal(raw); err != nil {
			return err
		}
		m.Availability = append(m.Availability, a)
		return nil
	})
}
