package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/class-series-api/internal/models"
)

func TestClassifyFillBands(t *testing.T) {
	now := at(monday, 7, 0)
	cases := []struct {
		name     string
		capacity int
		enrolled int
		want     models.EnrollmentState
	}{
		{"near full at 80%", 10, 8, models.StateNearFull},
		{"full at capacity", 10, 10, models.StateFull},
		{"sparse under 40%", 10, 3, models.StateSparse},
		{"filling under 70%", 10, 5, models.StateFilling},
		{"open between 70% and 80%", 10, 7, models.StateOpen},
		{"filling at 40%", 10, 4, models.StateFilling},
		{"zero capacity", 0, 0, models.StateSparse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inst := fixedInstance("i", monday)
			inst.Capacity = tc.capacity
			inst.EnrolledUsers = users(tc.enrolled)

			got := Classify(inst, "viewer", now, time.UTC)
			assert.Equal(t, tc.want, got.State)
			assert.Equal(t, tc.want, got.Availability)
		})
	}
}

func TestClassifyZeroCapacityHasZeroRatio(t *testing.T) {
	inst := fixedInstance("i", monday)
	inst.Capacity = 0
	inst.EnrolledUsers = users(2)

	got := Classify(inst, "viewer", at(monday, 7, 0), time.UTC)
	assert.Equal(t, 0.0, got.FillRatio)
}

func TestClassifyPrecedence(t *testing.T) {
	inst := fixedInstance("i", monday)
	inst.EnrolledUsers = append(users(9), "viewer")
	inst.Waitlist = []string{"viewer"}

	assert.Equal(t, models.StateEnrolled, Classify(inst, "viewer", at(monday, 7, 0), time.UTC).State)

	finished := Classify(inst, "viewer", at(monday, 9, 1), time.UTC)
	assert.Equal(t, models.StateFinished, finished.State)
	assert.Empty(t, finished.Actions)

	inst.Status = models.InstanceStatusCancelled
	cancelled := Classify(inst, "viewer", at(monday, 7, 0), time.UTC)
	assert.Equal(t, models.StateCancelled, cancelled.State)
	assert.Equal(t, models.StateFull, cancelled.Availability)
	assert.Empty(t, cancelled.Actions)

	// Cancellation also wins over a finished class.
	assert.Equal(t, models.StateCancelled, Classify(inst, "viewer", at(tuesday, 7, 0), time.UTC).State)
}

func TestClassifyWaitlistedBeforeFull(t *testing.T) {
	inst := fixedInstance("i", monday)
	inst.EnrolledUsers = users(10)
	inst.Waitlist = []string{"viewer"}

	got := Classify(inst, "viewer", at(monday, 7, 0), time.UTC)
	assert.Equal(t, models.StateWaitlisted, got.State)
	assert.Equal(t, []models.Action{models.ActionLeaveWaitlist}, got.Actions)

	other := Classify(inst, "someone-else", at(monday, 7, 0), time.UTC)
	assert.Equal(t, models.StateFull, other.State)
	assert.True(t, other.Allows(models.ActionJoinWaitlist))
	assert.False(t, other.Allows(models.ActionEnroll))
}

func TestClassifyFinishedUsesStudioZone(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	inst := fixedInstance("i", monday)
	// 11:30 UTC is 08:30 in the studio, class ends 09:00 local.
	now := time.Date(2026, 10, 19, 11, 30, 0, 0, time.UTC)

	assert.NotEqual(t, models.StateFinished, Classify(inst, "viewer", now, loc).State)
	assert.Equal(t, models.StateFinished, Classify(inst, "viewer", now, time.UTC).State)
}

func TestLegalActions(t *testing.T) {
	assert.Equal(t, []models.Action{models.ActionEnroll}, LegalActions(models.StateNearFull))
	assert.Equal(t, []models.Action{models.ActionEnroll}, LegalActions(models.StateSparse))
	assert.Equal(t, []models.Action{models.ActionUnenroll}, LegalActions(models.StateEnrolled))
	assert.Empty(t, LegalActions(models.StateFinished))
}
