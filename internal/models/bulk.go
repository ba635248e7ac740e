package models

import "time"

// BulkKind names a bulk operation.
type BulkKind string

// Bulk operation kinds.
const (
	BulkEdit          BulkKind = "edit"
	BulkExtend        BulkKind = "extend"
	BulkDelete        BulkKind = "delete"
	BulkCancelDay     BulkKind = "cancel_day"
	BulkReactivateDay BulkKind = "reactivate_day"
)

// BulkFilter selects the instances a mutation applies to. The collaborator
// applies it server-side; unset fields do not constrain the match.
type BulkFilter struct {
	Name        string         `json:"name,omitempty"`
	ClassTypeID string         `json:"class_type_id,omitempty"`
	StartTime   string         `json:"start_time,omitempty"`
	DateFrom    *time.Time     `json:"date_from,omitempty"`
	Date        *time.Time     `json:"date,omitempty"`
	Weekdays    []time.Weekday `json:"weekdays,omitempty"`
}

// BulkPayload carries only the fields a mutation changes.
type BulkPayload struct {
	StartTime     *string        `json:"start_time,omitempty"`
	EndTime       *string        `json:"end_time,omitempty"`
	Capacity      *int           `json:"capacity,omitempty"`
	Teachers      []TeacherRef   `json:"teachers,omitempty"`
	Weekdays      []time.Weekday `json:"weekdays,omitempty"`
	NewEndDate    *time.Time     `json:"new_end_date,omitempty"`
	RefundCredits *bool          `json:"refund_credits,omitempty"`
}

// IsEmpty reports whether the payload changes nothing.
func (p BulkPayload) IsEmpty() bool {
	return p.StartTime == nil && p.EndTime == nil && p.Capacity == nil &&
		p.Teachers == nil && p.Weekdays == nil && p.NewEndDate == nil && p.RefundCredits == nil
}

// BulkPlan is a filter and payload ready for the mutation collaborator.
type BulkPlan struct {
	Kind    BulkKind    `json:"kind"`
	Filter  BulkFilter  `json:"filter"`
	Payload BulkPayload `json:"payload"`
}

// SeriesChanges is the user's edit intent for a series. Zero values mean
// "not changed".
type SeriesChanges struct {
	StartTime string
	EndTime   string
	Capacity  int
	Teachers  []TeacherRef
	Weekdays  []time.Weekday
}

// MutationResult is what the collaborator reports back after a mutation.
type MutationResult struct {
	Matched         int      `json:"matched"`
	Created         int      `json:"created,omitempty"`
	AffectedUserIDs []string `json:"affected_user_ids,omitempty"`
}
