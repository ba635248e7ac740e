package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/models"
)

// Monday 2026-10-19, 10:00 UTC.
var testNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeGateway struct {
	mu        sync.Mutex
	records   []models.RawClassInstance
	fetchErr  error
	mutateErr error
	fetches   int
	plans     []models.BulkPlan
	calls     []string
	// beforeFetch runs outside the lock with the 1-based fetch number.
	beforeFetch func(n int)
}

func (f *fakeGateway) FetchInstances(_ context.Context, _ models.Window) ([]models.RawClassInstance, error) {
	f.mu.Lock()
	f.fetches++
	n := f.fetches
	hook := f.beforeFetch
	f.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]models.RawClassInstance{}, f.records...), nil
}

func (f *fakeGateway) MutateInstances(_ context.Context, plan models.BulkPlan) (*models.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	f.plans = append(f.plans, plan)
	return &models.MutationResult{Matched: 2, AffectedUserIDs: []string{"member-1"}}, nil
}

func (f *fakeGateway) record(action, instanceID, userID string) (*models.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	f.calls = append(f.calls, action+":"+instanceID+":"+userID)
	for i := range f.records {
		if f.records[i].ID != instanceID {
			continue
		}
		switch action {
		case "enroll":
			f.records[i].EnrolledUsers = append(f.records[i].EnrolledUsers, userID)
		case "join_waitlist":
			f.records[i].Waitlist = append(f.records[i].Waitlist, userID)
		}
	}
	return &models.MutationResult{Matched: 1}, nil
}

func (f *fakeGateway) Enroll(_ context.Context, instanceID, userID string) (*models.MutationResult, error) {
	return f.record("enroll", instanceID, userID)
}

func (f *fakeGateway) Unenroll(_ context.Context, instanceID, userID string) (*models.MutationResult, error) {
	return f.record("unenroll", instanceID, userID)
}

func (f *fakeGateway) JoinWaitlist(_ context.Context, instanceID, userID string) (*models.MutationResult, error) {
	return f.record("join_waitlist", instanceID, userID)
}

func (f *fakeGateway) LeaveWaitlist(_ context.Context, instanceID, userID string) (*models.MutationResult, error) {
	return f.record("leave_waitlist", instanceID, userID)
}

func (f *fakeGateway) planCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plans)
}

type recordingNotifier struct {
	mu        sync.Mutex
	proposals []string
}

func (n *recordingNotifier) NotifyExtensionProposed(_ context.Context, sessionID string, series models.SeriesDescriptor, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.proposals = append(n.proposals, sessionID+"/"+series.ID)
	return nil
}

func rawFixed(id, date string) models.RawClassInstance {
	return models.RawClassInstance{
		ID:             id,
		Name:           "Funcional",
		ClassType:      &models.ClassType{ID: "A", Name: "Funcional"},
		Date:           date,
		StartTime:      "08:00",
		EndTime:        "09:00",
		Capacity:       10,
		Teacher:        &models.TeacherRef{ID: "t1", Name: "Martín"},
		EnrollmentMode: "fixed",
		Status:         "active",
	}
}

func rawOpen(id, date string, capacity int, enrolled ...string) models.RawClassInstance {
	r := rawFixed(id, date)
	r.Name = "Yoga"
	r.ClassType = &models.ClassType{ID: "B", Name: "Yoga"}
	r.StartTime = "19:00"
	r.EndTime = "20:00"
	r.EnrollmentMode = "open"
	r.Capacity = capacity
	r.EnrolledUsers = enrolled
	return r
}

func newTestStore(gw InstanceGateway) *SnapshotStore {
	return NewSnapshotStore(gw, nil, NewMetricsService(), zap.NewNop(), fixedClock, SnapshotConfig{PastDays: 7, FutureDays: 62, Location: time.UTC})
}

const fixedSeriesID = "Funcional|A|08:00|09:00"
