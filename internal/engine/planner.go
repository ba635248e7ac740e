package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

// Planner turns bulk intents into filter and payload pairs. It never
// enumerates instance ids; the collaborator applies the filter.
type Planner struct {
	loc *time.Location
}

// NewPlanner builds a planner that resolves "today" in loc.
func NewPlanner(loc *time.Location) *Planner {
	if loc == nil {
		loc = time.UTC
	}
	return &Planner{loc: loc}
}

// PlanEdit updates every instance of the series from today on. Only the
// fields that differ from the series are sent.
func (p *Planner) PlanEdit(series models.RecurringSeries, changes models.SeriesChanges, now time.Time) (models.BulkPlan, error) {
	if err := requireIdentity(series); err != nil {
		return models.BulkPlan{}, err
	}
	if changes.StartTime != "" && !models.ValidClock(changes.StartTime) {
		return models.BulkPlan{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q", changes.StartTime))
	}
	if changes.EndTime != "" && !models.ValidClock(changes.EndTime) {
		return models.BulkPlan{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end time %q", changes.EndTime))
	}

	var payload models.BulkPayload
	if changes.StartTime != "" && changes.StartTime != series.StartTime {
		v := changes.StartTime
		payload.StartTime = &v
	}
	if changes.EndTime != "" && changes.EndTime != series.EndTime {
		v := changes.EndTime
		payload.EndTime = &v
	}
	start, end := series.StartTime, series.EndTime
	if payload.StartTime != nil {
		start = *payload.StartTime
	}
	if payload.EndTime != nil {
		end = *payload.EndTime
	}
	if start >= end {
		return models.BulkPlan{}, appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}
	if changes.Capacity > 0 && changes.Capacity != series.Capacity {
		v := changes.Capacity
		payload.Capacity = &v
	}
	if len(changes.Teachers) > 0 && !sameTeachers(changes.Teachers, series.Teachers) {
		payload.Teachers = append([]models.TeacherRef(nil), changes.Teachers...)
	}
	if len(changes.Weekdays) > 0 {
		weekdays, err := normalizeWeekdays(changes.Weekdays)
		if err != nil {
			return models.BulkPlan{}, err
		}
		if !sameWeekdays(weekdays, series.Weekdays) {
			payload.Weekdays = weekdays
		}
	}
	if payload.IsEmpty() {
		return models.BulkPlan{}, appErrors.Clone(appErrors.ErrValidation, "no changes to apply")
	}

	today := Today(now, p.loc)
	return models.BulkPlan{
		Kind: models.BulkEdit,
		Filter: models.BulkFilter{
			Name:        series.Name,
			ClassTypeID: series.ClassTypeID(),
			StartTime:   series.StartTime,
			DateFrom:    &today,
		},
		Payload: payload,
	}, nil
}

// PlanExtend extends the series' weekday streams up to newEndDate.
func (p *Planner) PlanExtend(series models.RecurringSeries, newEndDate time.Time) (models.BulkPlan, error) {
	if err := requireIdentity(series); err != nil {
		return models.BulkPlan{}, err
	}
	end := models.DateOf(newEndDate)
	if !end.After(series.LastScheduledDate) {
		return models.BulkPlan{}, appErrors.Clone(appErrors.ErrInvalidDateRange, fmt.Sprintf(
			"new end date %s must be after %s", models.FormatDate(end), models.FormatDate(series.LastScheduledDate)))
	}
	return models.BulkPlan{
		Kind: models.BulkExtend,
		Filter: models.BulkFilter{
			Name:        series.Name,
			ClassTypeID: series.ClassTypeID(),
			StartTime:   series.StartTime,
			Weekdays:    append([]time.Weekday(nil), series.Weekdays...),
		},
		Payload: models.BulkPayload{NewEndDate: &end},
	}, nil
}

// PlanDelete removes every future instance of the series.
func (p *Planner) PlanDelete(series models.RecurringSeries, now time.Time) (models.BulkPlan, error) {
	if err := requireIdentity(series); err != nil {
		return models.BulkPlan{}, err
	}
	today := Today(now, p.loc)
	return models.BulkPlan{
		Kind: models.BulkDelete,
		Filter: models.BulkFilter{
			Name:        series.Name,
			ClassTypeID: series.ClassTypeID(),
			StartTime:   series.StartTime,
			DateFrom:    &today,
		},
	}, nil
}

// PlanCancelDay cancels every instance on date.
func (p *Planner) PlanCancelDay(date time.Time, refundCredits bool) models.BulkPlan {
	day := models.DateOf(date)
	refund := refundCredits
	return models.BulkPlan{
		Kind:    models.BulkCancelDay,
		Filter:  models.BulkFilter{Date: &day},
		Payload: models.BulkPayload{RefundCredits: &refund},
	}
}

// PlanReactivateDay restores every cancelled instance on date.
func (p *Planner) PlanReactivateDay(date time.Time) models.BulkPlan {
	day := models.DateOf(date)
	return models.BulkPlan{
		Kind:   models.BulkReactivateDay,
		Filter: models.BulkFilter{Date: &day},
	}
}

func requireIdentity(series models.RecurringSeries) error {
	var missing []string
	if strings.TrimSpace(series.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(series.ClassTypeID()) == "" {
		missing = append(missing, "class_type.id")
	}
	if strings.TrimSpace(series.StartTime) == "" {
		missing = append(missing, "start_time")
	}
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrMalformedSeries, "series is missing "+strings.Join(missing, ", "))
	}
	return nil
}

func normalizeWeekdays(days []time.Weekday) ([]time.Weekday, error) {
	set := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid weekday %d", d))
		}
		set[d] = struct{}{}
	}
	return sortedWeekdays(set), nil
}

func sameWeekdays(a, b []time.Weekday) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameTeachers(a, b []models.TeacherRef) bool {
	if len(a) != len(b) {
		return false
	}
	ids := func(list []models.TeacherRef) []string {
		out := make([]string, 0, len(list))
		for _, t := range list {
			out = append(out, t.ID)
		}
		sort.Strings(out)
		return out
	}
	left, right := ids(a), ids(b)
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}
