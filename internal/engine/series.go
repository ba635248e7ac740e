package engine

import (
	"sort"
	"time"

	"github.com/noah-isme/class-series-api/internal/models"
)

// GroupSeries folds fixed-mode instances dated today or later into
// recurring series keyed by name, class type and time range.
func GroupSeries(instances []models.ClassInstance, now time.Time, loc *time.Location) []models.RecurringSeries {
	if len(instances) == 0 {
		return []models.RecurringSeries{}
	}
	today := Today(now, loc)

	type accumulator struct {
		series   models.RecurringSeries
		weekdays map[time.Weekday]struct{}
	}
	byKey := make(map[models.SeriesKey]*accumulator)

	for _, inst := range instances {
		if inst.Date.Before(today) {
			continue
		}
		if inst.EnrollmentMode != models.EnrollmentModeFixed {
			continue
		}
		if inst.IsCancelled() {
			continue
		}

		key := models.KeyOf(inst)
		acc, ok := byKey[key]
		if !ok {
			acc = &accumulator{
				series: models.RecurringSeries{
					ID:                key.ID(),
					Name:              inst.Name,
					ClassType:         inst.ClassType,
					StartTime:         inst.StartTime,
					EndTime:           inst.EndTime,
					Capacity:          inst.Capacity,
					Teachers:          append([]models.TeacherRef(nil), inst.Teachers...),
					LastScheduledDate: inst.Date,
				},
				weekdays: make(map[time.Weekday]struct{}),
			}
			byKey[key] = acc
		}

		acc.weekdays[inst.Weekday] = struct{}{}
		acc.series.RemainingInstanceCount++
		if inst.Date.After(acc.series.LastScheduledDate) {
			acc.series.LastScheduledDate = inst.Date
		}
	}

	out := make([]models.RecurringSeries, 0, len(byKey))
	for _, acc := range byKey {
		acc.series.Weekdays = sortedWeekdays(acc.weekdays)
		out = append(out, acc.series)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FindSeries returns the series with the given id.
func FindSeries(series []models.RecurringSeries, id string) (models.RecurringSeries, bool) {
	for _, s := range series {
		if s.ID == id {
			return s, true
		}
	}
	return models.RecurringSeries{}, false
}

func sortedWeekdays(set map[time.Weekday]struct{}) []time.Weekday {
	days := make([]time.Weekday, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}
