package engine

import (
	"time"

	"github.com/noah-isme/class-series-api/internal/models"
)

// Fill ratio band edges.
const (
	nearFullRatio = 0.8
	fillingRatio  = 0.7
	sparseRatio   = 0.4
)

// FillRatio is enrolled seats over capacity, 0 when capacity is 0.
func FillRatio(inst models.ClassInstance) float64 {
	if inst.Capacity <= 0 {
		return 0
	}
	return float64(len(inst.EnrolledUsers)) / float64(inst.Capacity)
}

// Availability maps a fill ratio onto its band.
func Availability(ratio float64) models.EnrollmentState {
	switch {
	case ratio >= 1:
		return models.StateFull
	case ratio >= nearFullRatio:
		return models.StateNearFull
	case ratio < sparseRatio:
		return models.StateSparse
	case ratio < fillingRatio:
		return models.StateFilling
	default:
		return models.StateOpen
	}
}

// Classify derives the enrollment state of inst for userID at now.
// Precedence: cancelled, finished, enrolled, waitlisted, fill bands.
func Classify(inst models.ClassInstance, userID string, now time.Time, loc *time.Location) models.Classification {
	ratio := FillRatio(inst)
	availability := Availability(ratio)

	var state models.EnrollmentState
	switch {
	case inst.IsCancelled():
		state = models.StateCancelled
	case now.After(EndTimestamp(inst.Date, inst.EndTime, loc)):
		state = models.StateFinished
	case inst.IsEnrolled(userID):
		state = models.StateEnrolled
	case inst.IsWaitlisted(userID):
		state = models.StateWaitlisted
	default:
		state = availability
	}

	return models.Classification{
		State:        state,
		FillRatio:    ratio,
		Availability: availability,
		Actions:      LegalActions(state),
	}
}

// LegalActions lists what a viewer may do in state.
func LegalActions(state models.EnrollmentState) []models.Action {
	switch state {
	case models.StateOpen, models.StateSparse, models.StateFilling, models.StateNearFull:
		return []models.Action{models.ActionEnroll}
	case models.StateFull:
		return []models.Action{models.ActionJoinWaitlist}
	case models.StateEnrolled:
		return []models.Action{models.ActionUnenroll}
	case models.StateWaitlisted:
		return []models.Action{models.ActionLeaveWaitlist}
	default:
		return []models.Action{}
	}
}

// ClassifyAll classifies every instance for userID.
func ClassifyAll(instances []models.ClassInstance, userID string, now time.Time, loc *time.Location) []models.InstanceView {
	views := make([]models.InstanceView, 0, len(instances))
	for _, inst := range instances {
		views = append(views, models.InstanceView{
			ClassInstance:  inst,
			Classification: Classify(inst, userID, now, loc),
		})
	}
	return views
}
