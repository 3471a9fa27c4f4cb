package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-booking-api/internal/scheduler"
)

func window(date, from, to string) scheduler.AvailabilityRequest {
	return scheduler.AvailabilityRequest{Date: date, StartTime: from, EndTime: to}
}

func TestSetAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	av, err := f.sched.SetAvailability(ctx, window("2025-06-10", "9:00", "12:00"), f.doctor)
	require.NoError(t, err)
	assert.NotEmpty(t, av.ID)
	assert.Equal(t, f.doctor.ID, av.DoctorID)
	assert.Equal(t, "09:00", av.StartTime)
	assert.Equal(t, "12:00", av.EndTime)
	assert.Equal(t, "2025-06-10", av.Date.Format(time.DateOnly))

	tests := []struct {
		name   string
		req    scheduler.AvailabilityRequest
		caller scheduler.Caller
		want   error
	}{
		{"patient", window("2025-06-10", "13:00", "14:00"), f.patient, scheduler.ErrForbidden},
		{"admin", window("2025-06-10", "13:00", "14:00"), f.admin, scheduler.ErrForbidden},
		{"other doctor id", scheduler.AvailabilityRequest{DoctorID: f.doctor2.ID, Date: "2025-06-10", StartTime: "13:00", EndTime: "14:00"}, f.doctor, scheduler.ErrForbidden},
		{"missing end", window("2025-06-10", "13:00", ""), f.doctor, scheduler.ErrInvalidRequest},
		{"blank date", window("  ", "13:00", "14:00"), f.doctor, scheduler.ErrInvalidRequest},
		{"end before start", window("2025-06-10", "14:00", "13:00"), f.doctor, scheduler.ErrInvalidRequest},
		{"empty window", window("2025-06-10", "14:00", "14:00"), f.doctor, scheduler.ErrInvalidRequest},
		{"garbage clock", window("2025-06-10", "noon", "14:00"), f.doctor, scheduler.ErrInvalidRequest},
		{"before opening", window("2025-06-10", "08:00", "10:00"), f.doctor, scheduler.ErrOutOfHours},
		{"past closing", window("2025-06-10", "22:00", "23:30"), f.doctor, scheduler.ErrOutOfHours},
		{"bad date", window("10/06/2025", "13:00", "14:00"), f.doctor, scheduler.ErrInvalidDate},
		{"inside", window("2025-06-10", "10:00", "11:00"), f.doctor, scheduler.ErrSlotConflict},
		{"same start", window("2025-06-10", "09:00", "09:30"), f.doctor, scheduler.ErrSlotConflict},
		{"covers", window("2025-06-10", "09:00", "13:00"), f.doctor, scheduler.ErrSlotConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sched.SetAvailability(ctx, tt.req, tt.caller)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// adjacent windows, other days and other doctors do not collide
	_, err = f.sched.SetAvailability(ctx, window("2025-06-10", "12:00", "15:00"), f.doctor)
	assert.NoError(t, err)
	_, err = f.sched.SetAvailability(ctx, window("2025-06-11", "09:00", "12:00"), f.doctor)
	assert.NoError(t, err)
	_, err = f.sched.SetAvailability(ctx, window("2025-06-10", "09:00", "12:00"), f.doctor2)
	assert.NoError(t, err)
}

func TestListAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, w := range []scheduler.AvailabilityRequest{
		window("2025-06-11", "09:00", "10:00"),
		window("2025-06-10", "15:00", "17:00"),
		window("2025-06-10", "09:00", "12:00"),
	} {
		_, err := f.sched.SetAvailability(ctx, w, f.doctor)
		require.NoError(t, err)
	}

	for _, c := range []scheduler.Caller{f.patient, f.admin} {
		got, err := f.sched.ListAvailability(ctx, f.doctor.ID, c)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "2025-06-10 09:00", got[0].Date.Format(time.DateOnly)+" "+got[0].StartTime)
		assert.Equal(t, "2025-06-10 15:00", got[1].Date.Format(time.DateOnly)+" "+got[1].StartTime)
		assert.Equal(t, "2025-06-11 09:00", got[2].Date.Format(time.DateOnly)+" "+got[2].StartTime)
	}

	own, err := f.sched.ListAvailability(ctx, "", f.doctor)
	require.NoError(t, err)
	assert.Len(t, own, 3)

	_, err = f.sched.ListAvailability(ctx, f.doctor.ID, f.doctor2)
	assert.ErrorIs(t, err, scheduler.ErrForbidden)
	_, err = f.sched.ListAvailability(ctx, "", f.patient)
	assert.ErrorIs(t, err, scheduler.ErrInvalidRequest)
	_, err = f.sched.ListAvailability(ctx, "missing", f.patient)
	assert.ErrorIs(t, err, scheduler.ErrNotFound)
	_, err = f.sched.ListAvailability(ctx, f.other.ID, f.patient)
	assert.ErrorIs(t, err, scheduler.ErrInvalidRole)

	none, err := f.sched.ListAvailability(ctx, f.doctor2.ID, f.patient)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRemoveAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	av, err := f.sched.SetAvailability(ctx, window("2025-06-10", "09:00", "12:00"), f.doctor)
	require.NoError(t, err)

	assert.ErrorIs(t, f.sched.RemoveAvailability(ctx, av.ID, f.patient), scheduler.ErrForbidden)
	assert.ErrorIs(t, f.sched.RemoveAvailability(ctx, av.ID, f.doctor2), scheduler.ErrForbidden)
	require.NoError(t, f.sched.RemoveAvailability(ctx, av.ID, f.doctor))
	assert.ErrorIs(t, f.sched.RemoveAvailability(ctx, av.ID, f.doctor), scheduler.ErrNotFound)

	// the freed window can be declared again, and admins may remove it
	again, err := f.sched.SetAvailability(ctx, window("2025-06-10", "10:00", "11:00"), f.doctor)
	require.NoError(t, err)
	assert.NoError(t, f.sched.RemoveAvailability(ctx, again.ID, f.admin))
}
