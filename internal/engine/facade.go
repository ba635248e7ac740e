package engine

import (
	"sort"
	"time"

	"github.com/noah-isme/class-series-api/internal/models"
	"github.com/noah-isme/class-series-api/pkg/textutil"
)

// AllTypes bypasses class type filtering.
const AllTypes = "all"

// Query combines the facade filters used by list screens.
type Query struct {
	Date        *time.Time
	ClassTypeID string
	Search      string
}

// FilterByDate keeps instances scheduled on date.
func FilterByDate(instances []models.ClassInstance, date time.Time) []models.ClassInstance {
	day := models.DateOf(date)
	out := make([]models.ClassInstance, 0, len(instances))
	for _, inst := range instances {
		if inst.Date.Equal(day) {
			out = append(out, inst)
		}
	}
	return out
}

// FilterByType keeps instances of class type typeID. AllTypes or an empty
// id returns the input unchanged.
func FilterByType(instances []models.ClassInstance, typeID string) []models.ClassInstance {
	if typeID == "" || typeID == AllTypes {
		return instances
	}
	out := make([]models.ClassInstance, 0, len(instances))
	for _, inst := range instances {
		if inst.ClassTypeID() == typeID {
			out = append(out, inst)
		}
	}
	return out
}

// Search matches term case-insensitively against name, type and teacher names.
func Search(instances []models.ClassInstance, term string) []models.ClassInstance {
	if textutil.Fold(term) == "" {
		return instances
	}
	out := make([]models.ClassInstance, 0, len(instances))
	for _, inst := range instances {
		if textutil.ContainsFold(term, searchFields(inst.Name, inst.ClassTypeName(), inst.Teachers)...) {
			out = append(out, inst)
		}
	}
	return out
}

// SortByStartTime returns a copy ordered by start time; ties keep input order.
func SortByStartTime(instances []models.ClassInstance) []models.ClassInstance {
	out := append([]models.ClassInstance(nil), instances...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// Apply runs the query filters and sorts the result.
func (q Query) Apply(instances []models.ClassInstance) []models.ClassInstance {
	out := instances
	if q.Date != nil {
		out = FilterByDate(out, *q.Date)
	}
	out = FilterByType(out, q.ClassTypeID)
	out = Search(out, q.Search)
	return SortByStartTime(out)
}

// ApplySeries runs the type and search filters over series.
func (q Query) ApplySeries(series []models.RecurringSeries) []models.RecurringSeries {
	out := make([]models.RecurringSeries, 0, len(series))
	for _, s := range series {
		if q.ClassTypeID != "" && q.ClassTypeID != AllTypes && s.ClassTypeID() != q.ClassTypeID {
			continue
		}
		if !textutil.ContainsFold(q.Search, searchFields(s.Name, s.ClassTypeName(), s.Teachers)...) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func searchFields(name, typeName string, teachers []models.TeacherRef) []string {
	fields := make([]string, 0, len(teachers)+2)
	fields = append(fields, name, typeName)
	for _, t := range teachers {
		fields = append(fields, t.Name)
	}
	return fields
}
