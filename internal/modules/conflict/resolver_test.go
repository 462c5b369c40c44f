package conflict

import (
	"context"
	"errors"
	"testing"
	"time"

	"gigmarket/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rows []domain.Commitment
	err  error
}

func (f *fakeSource) ListCommitments(_ context.Context, workerID int64, statuses []domain.ApplicantStatus, from, to time.Time) ([]domain.Commitment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Commitment
	for _, c := range f.rows {
		if c.WorkerID != workerID {
			continue
		}
		match := false
		for _, s := range statuses {
			if c.Status == s {
				match = true
			}
		}
		if !match {
			continue
		}
		if !from.IsZero() && c.ServiceDate.Before(from) {
			continue
		}
		if !to.IsZero() && !c.ServiceDate.Before(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func TestResolver_DayBoundsUsesLocation(t *testing.T) {
	almaty := time.FixedZone("ALMT", 5*3600)
	r := NewResolver(&fakeSource{}, almaty)

	// 2024-06-09 21:00 UTC is already June 10 in Almaty.
	start, end := r.DayBounds(time.Date(2024, 6, 9, 21, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 6, 9, 19, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 10, 19, 0, 0, 0, time.UTC), end)
	assert.Equal(t, "2024-06-10", r.DayKey(time.Date(2024, 6, 9, 21, 0, 0, 0, time.UTC)))
}

func TestResolver_SameDayIgnoresTimeOfDay(t *testing.T) {
	r := NewResolver(&fakeSource{}, time.UTC)

	assert.True(t, r.SameDay(
		time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC),
	))
	assert.False(t, r.SameDay(
		time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC),
	))
}

func TestResolver_AcceptedOnDay(t *testing.T) {
	day := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{rows: []domain.Commitment{
		{ApplicantID: 1, OrderID: 10, WorkerID: 7, Status: domain.ApplicantAccepted, ServiceDate: day},
		{ApplicantID: 2, OrderID: 11, WorkerID: 7, Status: domain.ApplicantAccepted, ServiceDate: day.Add(24 * time.Hour)},
		{ApplicantID: 3, OrderID: 12, WorkerID: 7, Status: domain.ApplicantPending, ServiceDate: day.Add(5 * time.Hour)},
		{ApplicantID: 4, OrderID: 13, WorkerID: 8, Status: domain.ApplicantAccepted, ServiceDate: day},
	}}
	r := NewResolver(src, time.UTC)

	accepted, err := r.AcceptedOnDay(context.Background(), 7, day.Add(3*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, int64(1), accepted[0].ApplicantID)

	accepted, err = r.AcceptedOnDay(context.Background(), 7, day, 1)
	require.NoError(t, err)
	assert.Empty(t, accepted)

	pending, err := r.PendingOnDay(context.Background(), 7, day, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(3), pending[0].ApplicantID)

	busy, err := r.HasAcceptedOnDay(context.Background(), 8, day, 0)
	require.NoError(t, err)
	assert.True(t, busy)
}

func TestResolver_BusyDays(t *testing.T) {
	day := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{rows: []domain.Commitment{
		{ApplicantID: 1, WorkerID: 7, Status: domain.ApplicantAccepted, ServiceDate: day},
		{ApplicantID: 2, WorkerID: 7, Status: domain.ApplicantAccepted, ServiceDate: day.AddDate(0, 0, -3)},
		{ApplicantID: 3, WorkerID: 7, Status: domain.ApplicantPending, ServiceDate: day.AddDate(0, 0, 1)},
	}}
	r := NewResolver(src, time.UTC)

	set, err := r.BusyDays(context.Background(), 7, day.Add(-2*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, set.Len())
	assert.True(t, set.Contains(time.Date(2024, 6, 10, 22, 0, 0, 0, time.UTC)))
	assert.False(t, set.Contains(day.AddDate(0, 0, 1)))
	assert.False(t, DaySet{}.Contains(day))
}

func TestResolver_PropagatesSourceErrors(t *testing.T) {
	r := NewResolver(&fakeSource{err: domain.ErrDependencyUnavailable}, time.UTC)

	_, err := r.AcceptedOnDay(context.Background(), 7, time.Now(), 0)
	assert.True(t, errors.Is(err, domain.ErrDependencyUnavailable))

	_, err = r.BusyDays(context.Background(), 7, time.Now())
	assert.True(t, errors.Is(err, domain.ErrDependencyUnavailable))
}

func TestAcceptedBefore_FirstCommittedWins(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	later := t0.Add(time.Second)

	commitments := []domain.Commitment{
		{ApplicantID: 5, AcceptedAt: &t0},
		{ApplicantID: 9, AcceptedAt: &later},
		{ApplicantID: 3, AcceptedAt: nil},
	}

	// applicant 9 accepted after 5, so 5 and the legacy row block it
	blocking := AcceptedBefore(commitments, 9, later)
	require.Len(t, blocking, 2)
	assert.Equal(t, int64(5), blocking[0].ApplicantID)
	assert.Equal(t, int64(3), blocking[1].ApplicantID)

	// applicant 5 only sees the legacy row; 9 came later
	blocking = AcceptedBefore(commitments[:2], 5, t0)
	assert.Empty(t, blocking)

	// equal timestamps: lower id wins
	same := []domain.Commitment{{ApplicantID: 4, AcceptedAt: &t0}}
	assert.Len(t, AcceptedBefore(same, 6, t0), 1)
	assert.Empty(t, AcceptedBefore([]domain.Commitment{{ApplicantID: 6, AcceptedAt: &t0}}, 4, t0))
}
