package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

func sampleSeries() models.RecurringSeries {
	return models.RecurringSeries{
		ID:                "Funcional|A|08:00|09:00",
		Name:              "Funcional",
		ClassType:         &models.ClassType{ID: "A", Name: "Funcional"},
		StartTime:         "08:00",
		EndTime:           "09:00",
		Capacity:          10,
		Weekdays:          []time.Weekday{time.Monday, time.Wednesday},
		Teachers:          []models.TeacherRef{{ID: "t1"}},
		LastScheduledDate: nextMonday,
	}
}

func TestPlanEditOmitsUnchangedFields(t *testing.T) {
	planner := NewPlanner(time.UTC)
	changes := models.SeriesChanges{
		StartTime: "08:00",
		EndTime:   "09:30",
		Capacity:  10,
		Teachers:  []models.TeacherRef{{ID: "t1"}},
		Weekdays:  []time.Weekday{time.Wednesday, time.Monday, time.Friday},
	}

	plan, err := planner.PlanEdit(sampleSeries(), changes, at(tuesday, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, models.BulkEdit, plan.Kind)
	assert.Equal(t, "Funcional", plan.Filter.Name)
	assert.Equal(t, "A", plan.Filter.ClassTypeID)
	assert.Equal(t, "08:00", plan.Filter.StartTime)
	require.NotNil(t, plan.Filter.DateFrom)
	assert.Equal(t, tuesday, *plan.Filter.DateFrom)

	assert.Nil(t, plan.Payload.StartTime)
	require.NotNil(t, plan.Payload.EndTime)
	assert.Equal(t, "09:30", *plan.Payload.EndTime)
	assert.Nil(t, plan.Payload.Capacity)
	assert.Nil(t, plan.Payload.Teachers)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, plan.Payload.Weekdays)
}

func TestPlanEditRejectsNoop(t *testing.T) {
	_, err := NewPlanner(time.UTC).PlanEdit(sampleSeries(), models.SeriesChanges{StartTime: "08:00"}, at(tuesday, 12, 0))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestPlanEditRejectsInvertedRange(t *testing.T) {
	_, err := NewPlanner(time.UTC).PlanEdit(sampleSeries(), models.SeriesChanges{StartTime: "10:00"}, at(tuesday, 12, 0))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestPlannerRefusesMalformedSeries(t *testing.T) {
	planner := NewPlanner(time.UTC)
	series := sampleSeries()
	series.ClassType = nil

	_, err := planner.PlanEdit(series, models.SeriesChanges{Capacity: 12}, at(tuesday, 12, 0))
	assert.True(t, errors.Is(err, appErrors.ErrMalformedSeries))

	_, err = planner.PlanExtend(series, nextMonday.AddDate(0, 1, 0))
	assert.True(t, errors.Is(err, appErrors.ErrMalformedSeries))

	_, err = planner.PlanDelete(series, at(tuesday, 12, 0))
	assert.True(t, errors.Is(err, appErrors.ErrMalformedSeries))

	series = sampleSeries()
	series.StartTime = ""
	_, err = planner.PlanDelete(series, at(tuesday, 12, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_time")
}

func TestPlanExtend(t *testing.T) {
	planner := NewPlanner(time.UTC)
	newEnd := time.Date(2026, 11, 26, 15, 0, 0, 0, time.UTC)

	plan, err := planner.PlanExtend(sampleSeries(), newEnd)
	require.NoError(t, err)
	assert.Equal(t, models.BulkExtend, plan.Kind)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, plan.Filter.Weekdays)
	assert.Nil(t, plan.Filter.DateFrom)
	require.NotNil(t, plan.Payload.NewEndDate)
	assert.Equal(t, time.Date(2026, 11, 26, 0, 0, 0, 0, time.UTC), *plan.Payload.NewEndDate)

	_, err = planner.PlanExtend(sampleSeries(), nextMonday)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidDateRange))
	_, err = planner.PlanExtend(sampleSeries(), monday)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidDateRange))
}

func TestPlanDeleteTargetsFutureInstances(t *testing.T) {
	plan, err := NewPlanner(time.UTC).PlanDelete(sampleSeries(), at(tuesday, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, models.BulkDelete, plan.Kind)
	require.NotNil(t, plan.Filter.DateFrom)
	assert.Equal(t, tuesday, *plan.Filter.DateFrom)
	assert.True(t, plan.Payload.IsEmpty())
}

func TestPlanDayOperations(t *testing.T) {
	planner := NewPlanner(time.UTC)

	cancel := planner.PlanCancelDay(at(wednesday, 15, 0), true)
	assert.Equal(t, models.BulkCancelDay, cancel.Kind)
	require.NotNil(t, cancel.Filter.Date)
	assert.Equal(t, wednesday, *cancel.Filter.Date)
	require.NotNil(t, cancel.Payload.RefundCredits)
	assert.True(t, *cancel.Payload.RefundCredits)
	assert.Empty(t, cancel.Filter.Name)

	reactivate := planner.PlanReactivateDay(wednesday)
	assert.Equal(t, models.BulkReactivateDay, reactivate.Kind)
	assert.True(t, reactivate.Payload.IsEmpty())
}
