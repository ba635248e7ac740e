package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultInstanceName is used when a class instance arrives without a label.
const DefaultInstanceName = "Turno"

// EnrollmentMode describes how members obtain a seat.
type EnrollmentMode string

// Enrollment modes.
const (
	EnrollmentModeOpen  EnrollmentMode = "open"
	EnrollmentModeFixed EnrollmentMode = "fixed"
)

// InstanceStatus is the lifecycle status of a class instance.
type InstanceStatus string

// Instance statuses.
const (
	InstanceStatusActive    InstanceStatus = "active"
	InstanceStatusCancelled InstanceStatus = "cancelled"
)

// ClassType references the kind of class (e.g. functional, yoga).
type ClassType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeacherRef references a teacher with a display name.
type TeacherRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClassInstance is one concrete scheduled occurrence of a class.
type ClassInstance struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	ClassType      *ClassType     `json:"class_type,omitempty"`
	Date           time.Time      `json:"date"`
	StartTime      string         `json:"start_time"`
	EndTime        string         `json:"end_time"`
	Capacity       int            `json:"capacity"`
	Teachers       []TeacherRef   `json:"teachers"`
	EnrolledUsers  []string       `json:"enrolled_users"`
	Waitlist       []string       `json:"waitlist"`
	EnrollmentMode EnrollmentMode `json:"enrollment_mode"`
	Weekday        time.Weekday   `json:"weekday"`
	Status         InstanceStatus `json:"status"`
}

// ClassTypeID returns the class type id or an empty string when untyped.
func (c ClassInstance) ClassTypeID() string {
	if c.ClassType == nil {
		return ""
	}
	return c.ClassType.ID
}

// ClassTypeName returns the class type display name or an empty string.
func (c ClassInstance) ClassTypeName() string {
	if c.ClassType == nil {
		return ""
	}
	return c.ClassType.Name
}

// IsCancelled reports whether the instance was cancelled.
func (c ClassInstance) IsCancelled() bool {
	return c.Status == InstanceStatusCancelled
}

// IsEnrolled reports whether userID holds a seat.
func (c ClassInstance) IsEnrolled(userID string) bool {
	return containsID(c.EnrolledUsers, userID)
}

// IsWaitlisted reports whether userID is waiting for a seat.
func (c ClassInstance) IsWaitlisted(userID string) bool {
	return containsID(c.Waitlist, userID)
}

func containsID(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// RawClassInstance is the shape class instances arrive in from storage or
// the wire. It still carries the legacy single-teacher field.
type RawClassInstance struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	ClassType      *ClassType   `json:"class_type,omitempty"`
	Date           string       `json:"date"`
	StartTime      string       `json:"start_time"`
	EndTime        string       `json:"end_time"`
	Capacity       int          `json:"capacity"`
	Teacher        *TeacherRef  `json:"teacher,omitempty"`
	Teachers       []TeacherRef `json:"teachers,omitempty"`
	EnrolledUsers  []string     `json:"enrolled_users"`
	Waitlist       []string     `json:"waitlist"`
	EnrollmentMode string       `json:"enrollment_mode"`
	Weekday        *int         `json:"weekday,omitempty"`
	Status         string       `json:"status"`
}

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidClock reports whether v is a zero-padded 24h "HH:MM" value.
func ValidClock(v string) bool {
	return clockPattern.MatchString(v)
}

// Normalize converts a raw record into a ClassInstance. The legacy single
// teacher becomes a one-element set, an empty name becomes
// DefaultInstanceName and a missing weekday is taken from the date.
func (r RawClassInstance) Normalize() (ClassInstance, error) {
	if strings.TrimSpace(r.ID) == "" {
		return ClassInstance{}, fmt.Errorf("class instance without id")
	}
	date, err := ParseDate(strings.TrimSpace(r.Date))
	if err != nil {
		return ClassInstance{}, fmt.Errorf("class instance %s: %w", r.ID, err)
	}
	if !ValidClock(r.StartTime) || !ValidClock(r.EndTime) {
		return ClassInstance{}, fmt.Errorf("class instance %s: invalid time range %q-%q", r.ID, r.StartTime, r.EndTime)
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = DefaultInstanceName
	}

	var classType *ClassType
	if r.ClassType != nil && (r.ClassType.ID != "" || r.ClassType.Name != "") {
		ct := *r.ClassType
		classType = &ct
	}

	weekday := date.Weekday()
	if r.Weekday != nil && *r.Weekday >= 0 && *r.Weekday <= 6 {
		weekday = time.Weekday(*r.Weekday)
	}

	mode := EnrollmentModeOpen
	if EnrollmentMode(strings.ToLower(r.EnrollmentMode)) == EnrollmentModeFixed {
		mode = EnrollmentModeFixed
	}
	status := InstanceStatusActive
	if InstanceStatus(strings.ToLower(r.Status)) == InstanceStatusCancelled {
		status = InstanceStatusCancelled
	}

	capacity := r.Capacity
	if capacity < 0 {
		capacity = 0
	}

	return ClassInstance{
		ID:             r.ID,
		Name:           name,
		ClassType:      classType,
		Date:           date,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Capacity:       capacity,
		Teachers:       normalizeTeachers(r.Teacher, r.Teachers),
		EnrolledUsers:  uniqueIDs(r.EnrolledUsers),
		Waitlist:       uniqueIDs(r.Waitlist),
		EnrollmentMode: mode,
		Weekday:        weekday,
		Status:         status,
	}, nil
}

func normalizeTeachers(legacy *TeacherRef, teachers []TeacherRef) []TeacherRef {
	out := make([]TeacherRef, 0, len(teachers)+1)
	seen := make(map[string]struct{}, len(teachers)+1)
	add := func(t TeacherRef) {
		if t.ID == "" && t.Name == "" {
			return
		}
		key := t.ID
		if key == "" {
			key = "name:" + t.Name
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	for _, t := range teachers {
		add(t)
	}
	if len(out) == 0 && legacy != nil {
		add(*legacy)
	}
	return out
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Snapshot is one atomically obtained, immutable view of the class instances
// of a window. Version grows monotonically across refreshes.
type Snapshot struct {
	Version   uint64          `json:"version"`
	Window    Window          `json:"window"`
	FetchedAt time.Time       `json:"fetched_at"`
	Instances []ClassInstance `json:"instances"`
}

// Find returns the instance with the given id.
func (s *Snapshot) Find(id string) (ClassInstance, bool) {
	if s == nil {
		return ClassInstance{}, false
	}
	for _, inst := range s.Instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return ClassInstance{}, false
}
