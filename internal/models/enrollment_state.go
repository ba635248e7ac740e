package models

// EnrollmentState is the single derived state of an instance for a viewer.
type EnrollmentState string

// Enrollment states, see engine.Classify for precedence.
const (
	StateOpen       EnrollmentState = "open"
	StateNearFull   EnrollmentState = "near_full"
	StateSparse     EnrollmentState = "sparse"
	StateFilling    EnrollmentState = "filling"
	StateFull       EnrollmentState = "full"
	StateEnrolled   EnrollmentState = "enrolled"
	StateWaitlisted EnrollmentState = "waitlisted"
	StateCancelled  EnrollmentState = "cancelled"
	StateFinished   EnrollmentState = "finished"
)

// Action is something a viewer may do with an instance.
type Action string

// Enrollment actions.
const (
	ActionEnroll        Action = "enroll"
	ActionUnenroll      Action = "unenroll"
	ActionJoinWaitlist  Action = "join_waitlist"
	ActionLeaveWaitlist Action = "leave_waitlist"
)

// Classification is the classifier output for one instance and viewer.
type Classification struct {
	State     EnrollmentState `json:"state"`
	FillRatio float64         `json:"fill_ratio"`
	// Availability is the fill band regardless of the viewer's membership,
	// used for the occupancy badge.
	Availability EnrollmentState `json:"availability"`
	Actions      []Action        `json:"actions"`
}

// Allows reports whether action is legal for the classification.
func (c Classification) Allows(action Action) bool {
	for _, a := range c.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// InstanceView pairs an instance with its classification for rendering.
type InstanceView struct {
	ClassInstance
	Classification
}
