package models

import (
	"strings"
	"time"
)

// SeriesKey is the structural key recurring instances are grouped by.
// Teacher identity is deliberately not part of it.
type SeriesKey struct {
	Name        string `json:"name"`
	ClassTypeID string `json:"class_type_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// KeyOf returns the grouping key of an instance.
func KeyOf(inst ClassInstance) SeriesKey {
	return SeriesKey{
		Name:        inst.Name,
		ClassTypeID: inst.ClassTypeID(),
		StartTime:   inst.StartTime,
		EndTime:     inst.EndTime,
	}
}

// ID renders the key as a stable series identifier.
func (k SeriesKey) ID() string {
	return strings.Join([]string{k.Name, k.ClassTypeID, k.StartTime, k.EndTime}, "|")
}

// RecurringSeries is a derived aggregate of fixed-mode instances sharing a
// SeriesKey. It is recomputed on every read and never persisted.
type RecurringSeries struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	ClassType              *ClassType     `json:"class_type,omitempty"`
	StartTime              string         `json:"start_time"`
	EndTime                string         `json:"end_time"`
	Capacity               int            `json:"capacity"`
	Weekdays               []time.Weekday `json:"weekdays"`
	Teachers               []TeacherRef   `json:"teachers"`
	RemainingInstanceCount int            `json:"remaining_instance_count"`
	LastScheduledDate      time.Time      `json:"last_scheduled_date"`
}

// ClassTypeID returns the class type id or an empty string.
func (s RecurringSeries) ClassTypeID() string {
	if s.ClassType == nil {
		return ""
	}
	return s.ClassType.ID
}

// ClassTypeName returns the class type display name or an empty string.
func (s RecurringSeries) ClassTypeName() string {
	if s.ClassType == nil {
		return ""
	}
	return s.ClassType.Name
}

// SeriesDescriptor is the minimal identification of a series handed to
// collaborators that surface extension proposals.
type SeriesDescriptor struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	ClassTypeID       string         `json:"class_type_id"`
	ClassTypeName     string         `json:"class_type_name,omitempty"`
	StartTime         string         `json:"start_time"`
	EndTime           string         `json:"end_time"`
	Weekdays          []time.Weekday `json:"weekdays"`
	LastScheduledDate time.Time      `json:"last_scheduled_date"`
}

// Descriptor returns the collaborator-facing description of the series.
func (s RecurringSeries) Descriptor() SeriesDescriptor {
	return SeriesDescriptor{
		ID:                s.ID,
		Name:              s.Name,
		ClassTypeID:       s.ClassTypeID(),
		ClassTypeName:     s.ClassTypeName(),
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		Weekdays:          append([]time.Weekday(nil), s.Weekdays...),
		LastScheduledDate: s.LastScheduledDate,
	}
}

// ExtensionProposal suggests extending an expiring series.
type ExtensionProposal struct {
	Series             SeriesDescriptor `json:"series"`
	ProposedNewEndDate time.Time        `json:"proposed_new_end_date"`
	DetectedAt         time.Time        `json:"detected_at"`
}
