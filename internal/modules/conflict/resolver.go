package conflict

import (
	"context"
	"time"

	"gigmarket/internal/domain"
)

const dayLayout = "2006-01-02"

type CommitmentSource interface {
	ListCommitments(ctx context.Context, workerID int64, statuses []domain.ApplicantStatus, from, to time.Time) ([]domain.Commitment, error)
}

// Resolver answers calendar questions about a worker. It never writes.
//
// Calendar days are evaluated in the configured location, so two service
// dates conflict when they fall on the same local date regardless of time.
type Resolver struct {
	source CommitmentSource
	loc    *time.Location
}

func NewResolver(source CommitmentSource, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{source: source, loc: loc}
}

func (r *Resolver) Location() *time.Location { return r.loc }

// DayBounds returns the half-open UTC range [start, end) covering the local
// calendar day of t.
func (r *Resolver) DayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(r.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

func (r *Resolver) DayKey(t time.Time) string {
	return t.In(r.loc).Format(dayLayout)
}

func (r *Resolver) SameDay(a, b time.Time) bool {
	return r.DayKey(a) == r.DayKey(b)
}

// AcceptedOnDay lists the worker's accepted commitments on the calendar day
// of day, skipping excludeApplicantID.
func (r *Resolver) AcceptedOnDay(ctx context.Context, workerID int64, day time.Time, excludeApplicantID int64) ([]domain.Commitment, error) {
	return r.onDay(ctx, workerID, domain.ApplicantAccepted, day, excludeApplicantID)
}

// PendingOnDay lists the worker's pending applications on the calendar day
// of day, skipping excludeApplicantID.
func (r *Resolver) PendingOnDay(ctx context.Context, workerID int64, day time.Time, excludeApplicantID int64) ([]domain.Commitment, error) {
	return r.onDay(ctx, workerID, domain.ApplicantPending, day, excludeApplicantID)
}

func (r *Resolver) HasAcceptedOnDay(ctx context.Context, workerID int64, day time.Time, excludeApplicantID int64) (bool, error) {
	found, err := r.AcceptedOnDay(ctx, workerID, day, excludeApplicantID)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (r *Resolver) onDay(ctx context.Context, workerID int64, status domain.ApplicantStatus, day time.Time, excludeApplicantID int64) ([]domain.Commitment, error) {
	start, end := r.DayBounds(day)
	found, err := r.source.ListCommitments(ctx, workerID, []domain.ApplicantStatus{status}, start, end)
	if err != nil {
		return nil, err
	}
	out := found[:0]
	for _, c := range found {
		if c.ApplicantID != excludeApplicantID {
			out = append(out, c)
		}
	}
	return out, nil
}

// BusyDays collects the days on which the worker holds an accepted
// commitment, starting from the calendar day of from.
func (r *Resolver) BusyDays(ctx context.Context, workerID int64, from time.Time) (DaySet, error) {
	start, _ := r.DayBounds(from)
	found, err := r.source.ListCommitments(ctx, workerID, []domain.ApplicantStatus{domain.ApplicantAccepted}, start, time.Time{})
	if err != nil {
		return DaySet{}, err
	}
	set := DaySet{loc: r.loc, days: make(map[string]struct{}, len(found))}
	for _, c := range found {
		set.days[c.ServiceDate.In(r.loc).Format(dayLayout)] = struct{}{}
	}
	return set, nil
}

// DaySet is a set of local calendar days.
type DaySet struct {
	loc  *time.Location
	days map[string]struct{}
}

func (s DaySet) Contains(t time.Time) bool {
	if len(s.days) == 0 {
		return false
	}
	_, ok := s.days[t.In(s.loc).Format(dayLayout)]
	return ok
}

func (s DaySet) Len() int { return len(s.days) }

// AcceptedBefore keeps the commitments whose acceptance committed before
// self's. Ties on the timestamp go to the lower applicant id. Commitments
// without a timestamp predate ordering and always count as earlier.
func AcceptedBefore(commitments []domain.Commitment, selfID int64, selfAcceptedAt time.Time) []domain.Commitment {
	var out []domain.Commitment
	for _, c := range commitments {
		if c.ApplicantID == selfID {
			continue
		}
		if c.AcceptedAt == nil {
			out = append(out, c)
			continue
		}
		at := *c.AcceptedAt
		if at.Before(selfAcceptedAt) || (at.Equal(selfAcceptedAt) && c.ApplicantID < selfID) {
			out = append(out, c)
		}
	}
	return out
}
