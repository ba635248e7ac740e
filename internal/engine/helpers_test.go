package engine

import (
	"time"

	"github.com/noah-isme/class-series-api/internal/models"
)

var (
	monday     = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	tuesday    = monday.AddDate(0, 0, 1)
	wednesday  = monday.AddDate(0, 0, 2)
	nextMonday = monday.AddDate(0, 0, 7)
)

func at(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
}

func fixedInstance(id string, date time.Time) models.ClassInstance {
	return models.ClassInstance{
		ID:             id,
		Name:           "Funcional",
		ClassType:      &models.ClassType{ID: "A", Name: "Funcional"},
		Date:           date,
		StartTime:      "08:00",
		EndTime:        "09:00",
		Capacity:       10,
		Teachers:       []models.TeacherRef{{ID: "t1", Name: "Martín"}},
		EnrollmentMode: models.EnrollmentModeFixed,
		Weekday:        date.Weekday(),
		Status:         models.InstanceStatusActive,
	}
}

func users(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "user-" + string(rune('a'+i))
	}
	return out
}
