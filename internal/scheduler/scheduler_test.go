package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"clinic-booking-api/internal/memstore"
	"clinic-booking-api/internal/metrics"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/scheduler"
)

type fixture struct {
	st      *memstore.Store
	sched   *scheduler.Scheduler
	patient scheduler.Caller
	other   scheduler.Caller
	admin   scheduler.Caller
	doctor  scheduler.Caller
	doctor2 scheduler.Caller
}

func newFixture(t *testing.T, opts ...scheduler.Option) *fixture {
	t.Helper()
	st := memstore.New()
	ctx := context.Background()

	mk := func(name string, role model.Role) scheduler.Caller {
		u := &model.User{Email: name + "@clinic.test", Name: name, Role: role}
		require.NoError(t, st.CreateUser(ctx, u))
		return scheduler.Caller{ID: u.ID, Role: role}
	}

	opts = append([]scheduler.Option{
		scheduler.WithLogger(zaptest.NewLogger(t)),
		scheduler.WithMetrics(metrics.NewBooking(prometheus.NewRegistry())),
	}, opts...)

	return &fixture{
		st:      st,
		sched:   scheduler.New(st, st, opts...),
		patient: mk("pat", model.RolePatient),
		other:   mk("oth", model.RolePatient),
		admin:   mk("adm", model.RoleAdmin),
		doctor:  mk("doc", model.RoleDoctor),
		doctor2: mk("doc2", model.RoleDoctor),
	}
}

func (f *fixture) req(date, clock string) scheduler.BookingRequest {
	return scheduler.BookingRequest{Title: "Cleaning", Date: date, Time: clock, DoctorID: f.doctor.ID}
}

func TestBookSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.sched.Book(ctx, scheduler.BookingRequest{
		Title: "Cleaning", Date: "2025-06-10", Time: "10:00", Description: "sensitive tooth", DoctorID: f.doctor.ID,
	}, f.patient)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Cleaning", a.Title)
	assert.Equal(t, "sensitive tooth", a.Description)
	assert.Equal(t, "10:00", a.Time)
	assert.Equal(t, f.patient.ID, a.PatientID)
	assert.Equal(t, "pat", a.PatientName)
	assert.Equal(t, f.doctor.ID, a.DoctorID)
	assert.Equal(t, "doc", a.DoctorName)
	assert.True(t, a.Date.Equal(time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Hour, a.End().Sub(a.Start()))
}

func TestBookAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sched.Book(ctx, f.req("2025-06-10", "10:00"), f.doctor)
	assert.ErrorIs(t, err, scheduler.ErrForbidden)

	_, err = f.sched.Book(ctx, f.req("2025-06-10", "10:00"), f.admin)
	assert.NoError(t, err, "admins book as themselves")
}

func TestBookReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ghost := scheduler.Caller{ID: "missing", Role: model.RolePatient}
	_, err := f.sched.Book(ctx, f.req("2025-06-10", "10:00"), ghost)
	assert.ErrorIs(t, err, scheduler.ErrNotFound)

	r := f.req("2025-06-10", "10:00")
	r.DoctorID = "missing"
	_, err = f.sched.Book(ctx, r, f.patient)
	assert.ErrorIs(t, err, scheduler.ErrNotFound)

	r.DoctorID = f.other.ID
	_, err = f.sched.Book(ctx, r, f.patient)
	assert.ErrorIs(t, err, scheduler.ErrInvalidRole)
}

func TestBookRequestShape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  scheduler.BookingRequest
		want error
	}{
		{"empty title", scheduler.BookingRequest{Date: "2025-06-10", Time: "10:00", DoctorID: f.doctor.ID}, scheduler.ErrInvalidRequest},
		{"blank title", scheduler.BookingRequest{Title: "   ", Date: "2025-06-10", Time: "10:00", DoctorID: f.doctor.ID}, scheduler.ErrInvalidRequest},
		{"blank doctor", scheduler.BookingRequest{Title: "X", Date: "2025-06-10", Time: "10:00", DoctorID: " \t"}, scheduler.ErrInvalidRequest},
		{"empty time", scheduler.BookingRequest{Title: "X", Date: "2025-06-10", DoctorID: f.doctor.ID}, scheduler.ErrInvalidRequest},
		{"empty doctor", scheduler.BookingRequest{Title: "X", Date: "2025-06-10", Time: "10:00"}, scheduler.ErrInvalidRequest},
		{"garbage time", f.req("2025-06-10", "ten"), scheduler.ErrInvalidRequest},
		{"garbage date", f.req("next tuesday", "10:00"), scheduler.ErrInvalidDate},
		{"impossible date", f.req("2025-02-30", "10:00"), scheduler.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sched.Book(ctx, tt.req, f.patient)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, err := f.st.AllAppointments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "rejections must not write")
}

func TestBookClinicHours(t *testing.T) {
	tests := []struct {
		clock string
		ok    bool
	}{
		{"09:00", true},
		{"22:00", true},
		{"22:30", false},
		{"22:01", false},
		{"23:00", false},
		{"08:59", false},
		{"00:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.sched.Book(context.Background(), f.req("2025-06-10", tt.clock), f.patient)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, scheduler.ErrOutOfHours)
			}
		})
	}
}

func TestBookOverlap(t *testing.T) {
	tests := []struct {
		clock string
		want  error
	}{
		{"10:30", scheduler.ErrSlotConflict},
		{"10:00", scheduler.ErrSlotConflict},
		{"09:30", scheduler.ErrSlotConflict},
		{"09:00", nil},
		{"11:00", nil},
	}
	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			_, err := f.sched.Book(ctx, f.req("2025-06-10", "10:00"), f.patient)
			require.NoError(t, err)

			_, err = f.sched.Book(ctx, f.req("2025-06-10", tt.clock), f.other)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestBookConflictIsScopedToDoctorAndDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sched.Book(ctx, f.req("2025-06-10", "10:00"), f.patient)
	require.NoError(t, err)

	r := f.req("2025-06-10", "10:00")
	r.DoctorID = f.doctor2.ID
	_, err = f.sched.Book(ctx, r, f.patient)
	assert.NoError(t, err, "different doctor")

	_, err = f.sched.Book(ctx, f.req("2025-06-11", "10:00"), f.patient)
	assert.NoError(t, err, "different day")
}

func TestBookRejectionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sched.Book(ctx, f.req("2025-06-10", "10:00"), f.patient)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = f.sched.Book(ctx, f.req("2025-06-10", "10:30"), f.other)
		assert.ErrorIs(t, err, scheduler.ErrSlotConflict)
	}
	all, err := f.st.AllAppointments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBookDisjointIntervals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// walk every 15 minutes of the day; whatever gets accepted must be disjoint
	for m := 9 * 60; m <= 22*60; m += 15 {
		clock := fmt.Sprintf("%02d:%02d", m/60, m%60)
		_, err := f.sched.Book(ctx, f.req("2025-06-10", clock), f.patient)
		if err != nil {
			require.ErrorIs(t, err, scheduler.ErrSlotConflict, clock)
		}
	}

	booked, err := f.sched.List(ctx, scheduler.Scope{Kind: scheduler.ScopeDoctor}, f.doctor)
	require.NoError(t, err)
	assert.Len(t, booked, 14) // 09:00 .. 22:00 on the hour
	for i := range booked {
		for j := i + 1; j < len(booked); j++ {
			a, b := booked[i], booked[j]
			overlap := a.Start().Before(b.End()) && b.Start().Before(a.End())
			assert.False(t, overlap, "%s overlaps %s", a.Time, b.Time)
		}
	}
}

func TestBookRFC3339DateUsesClinicDay(t *testing.T) {
	loc := time.FixedZone("clinic", 3*3600)
	f := newFixture(t, scheduler.WithLocation(loc))

	// 22:30Z on the 9th is already the 10th at the clinic
	a, err := f.sched.Book(context.Background(), f.req("2025-06-09T22:30:00Z", "10:00"), f.patient)
	require.NoError(t, err)
	assert.True(t, a.Date.Equal(time.Date(2025, 6, 10, 10, 0, 0, 0, loc)))
}

func TestBookKeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	for _, date := range []string{"2025-03-09", "2025-11-02"} {
		t.Run(date, func(t *testing.T) {
			f := newFixture(t, scheduler.WithLocation(ny))
			ctx := context.Background()

			a, err := f.sched.Book(ctx, f.req(date, "10:00"), f.patient)
			require.NoError(t, err)
			assert.Equal(t, "10:00", a.Time)
			assert.Equal(t, 10, a.Date.In(ny).Hour())
			assert.True(t, a.Date.Equal(a.StartIn(ny)))

			late, err := f.sched.Book(ctx, f.req(date, "22:00"), f.patient)
			require.NoError(t, err)
			assert.Equal(t, "22:00", late.Time)
			end := late.StartIn(ny).Add(model.SlotLength)
			assert.Equal(t, date+" 23:00", end.Format("2006-01-02 15:04"))

			_, err = f.sched.Book(ctx, f.req(date, "10:30"), f.other)
			assert.ErrorIs(t, err, scheduler.ErrSlotConflict)
			_, err = f.sched.Book(ctx, f.req(date, "11:00"), f.other)
			assert.NoError(t, err)
		})
	}
}

func TestBookConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// alternate exact and partial overlaps of the same hour
			clock := "14:00"
			if i%2 == 1 {
				clock = "14:30"
			}
			_, err := f.sched.Book(ctx, f.req("2025-06-10", clock), f.patient)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, scheduler.ErrSlotConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
}

func TestNameSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.sched.Book(ctx, f.req("2025-06-10", "10:00"), f.patient)
	require.NoError(t, err)

	doc, err := f.st.UserByID(ctx, f.doctor.ID)
	require.NoError(t, err)
	doc.Name = "Dr. Renamed"
	require.NoError(t, f.st.UpdateUser(ctx, doc))

	got, err := f.st.AppointmentByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "doc", got.DoctorName)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.sched.Book(ctx, f.req("2025-06-10", "10:00"), f.patient)
	require.NoError(t, err)

	assert.ErrorIs(t, f.sched.Cancel(ctx, a.ID, f.other), scheduler.ErrForbidden)
	assert.ErrorIs(t, f.sched.Cancel(ctx, a.ID, f.doctor2), scheduler.ErrForbidden)
	assert.ErrorIs(t, f.sched.Cancel(ctx, "missing", f.admin), scheduler.ErrNotFound)

	require.NoError(t, f.sched.Cancel(ctx, a.ID, f.patient))
	assert.ErrorIs(t, f.sched.Cancel(ctx, a.ID, f.patient), scheduler.ErrNotFound)

	scopes := []struct {
		scope  scheduler.Scope
		caller scheduler.Caller
	}{
		{scheduler.Scope{Kind: scheduler.ScopeMine}, f.patient},
		{scheduler.Scope{Kind: scheduler.ScopeDoctor, DoctorID: f.doctor.ID}, f.doctor},
		{scheduler.Scope{Kind: scheduler.ScopeDoctor, DoctorID: f.doctor.ID}, f.admin},
		{scheduler.Scope{Kind: scheduler.ScopeAll}, f.admin},
	}
	for _, s := range scopes {
		list, err := f.sched.List(ctx, s.scope, s.caller)
		require.NoError(t, err)
		for _, x := range list {
			assert.NotEqual(t, a.ID, x.ID)
		}
	}
}

func TestCancelByDoctorAndAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.sched.Book(ctx, f.req("2025-06-10", "10:00"), f.patient)
	require.NoError(t, err)
	b, err := f.sched.Book(ctx, f.req("2025-06-10", "12:00"), f.patient)
	require.NoError(t, err)

	assert.NoError(t, f.sched.Cancel(ctx, a.ID, f.doctor))
	assert.NoError(t, f.sched.Cancel(ctx, b.ID, f.admin))

	// the freed slot is bookable again
	_, err = f.sched.Book(ctx, f.req("2025-06-10", "10:00"), f.other)
	assert.NoError(t, err)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.sched.Book(ctx, f.req("2025-06-10", "10:00"), f.patient)
	require.NoError(t, err)
	theirs, err := f.sched.Book(ctx, f.req("2025-06-10", "12:00"), f.other)
	require.NoError(t, err)
	r := f.req("2025-06-10", "12:00")
	r.DoctorID = f.doctor2.ID
	elsewhere, err := f.sched.Book(ctx, r, f.patient)
	require.NoError(t, err)

	ids := func(list []model.Appointment) []string {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, a.ID)
		}
		return out
	}

	got, err := f.sched.List(ctx, scheduler.Scope{Kind: scheduler.ScopeMine}, f.patient)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{mine.ID, elsewhere.ID}, ids(got))

	got, err = f.sched.List(ctx, scheduler.Scope{Kind: scheduler.ScopeDoctor}, f.doctor)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{mine.ID, theirs.ID}, ids(got))

	got, err = f.sched.List(ctx, scheduler.Scope{Kind: scheduler.ScopeDoctor, DoctorID: f.doctor2.ID}, f.admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{elsewhere.ID}, ids(got))

	got, err = f.sched.List(ctx, scheduler.Scope{Kind: scheduler.ScopeAll}, f.admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{mine.ID, theirs.ID, elsewhere.ID}, ids(got))

	_, err = f.sched.List(ctx, scheduler.Scope{Kind: scheduler.ScopeAll}, f.patient)
	assert.ErrorIs(t, err, scheduler.ErrForbidden)
	_, err = f.sched.List(ctx, scheduler.Scope{Kind: scheduler.ScopeDoctor, DoctorID: f.doctor2.ID}, f.doctor)
	assert.ErrorIs(t, err, scheduler.ErrForbidden)
	_, err = f.sched.List(ctx, scheduler.Scope{Kind: scheduler.ScopeDoctor, DoctorID: f.doctor.ID}, f.patient)
	assert.ErrorIs(t, err, scheduler.ErrForbidden)
	_, err = f.sched.List(ctx, scheduler.Scope{Kind: scheduler.ScopeMine}, f.doctor)
	assert.ErrorIs(t, err, scheduler.ErrForbidden)
}

type brokenStore struct{ *memstore.Store }

func (brokenStore) Reserve(context.Context, *model.Appointment, time.Time, time.Time, func([]model.Appointment) error) error {
	return errors.New("connection reset")
}

type takenStore struct{ *memstore.Store }

func (takenStore) Reserve(context.Context, *model.Appointment, time.Time, time.Time, func([]model.Appointment) error) error {
	return fmt.Errorf("insert appointment: %w", model.ErrSlotTaken)
}

func TestBookStoreFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := scheduler.New(brokenStore{f.st}, f.st)
	_, err := s.Book(ctx, f.req("2025-06-10", "10:00"), f.patient)
	assert.ErrorIs(t, err, scheduler.ErrStoreUnavailable)

	s = scheduler.New(takenStore{f.st}, f.st)
	_, err = s.Book(ctx, f.req("2025-06-10", "10:00"), f.patient)
	assert.ErrorIs(t, err, scheduler.ErrSlotConflict)
	assert.ErrorIs(t, err, model.ErrSlotTaken)
}
