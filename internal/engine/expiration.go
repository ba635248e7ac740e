package engine

import (
	"time"

	"github.com/noah-isme/class-series-api/internal/models"
)

// NotifiedSet holds the series ids already proposed for extension in one
// session. It is not safe for concurrent use; the host scopes one set per
// session.
type NotifiedSet struct {
	ids map[string]struct{}
}

// NewNotifiedSet seeds a set with ids.
func NewNotifiedSet(ids ...string) *NotifiedSet {
	s := &NotifiedSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Has reports whether id was notified.
func (s *NotifiedSet) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Add marks id as notified and reports whether it was new. A nil set
// records nothing and treats every id as new.
func (s *NotifiedSet) Add(id string) bool {
	if s == nil {
		return true
	}
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Len returns the number of notified ids.
func (s *NotifiedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IsExpiring reports whether a series has exactly one instance left.
func IsExpiring(s models.RecurringSeries) bool {
	return s.RemainingInstanceCount == 1
}

// DetectExpiring returns a proposal for the first expiring series not yet in
// notified and records it there. A nil notified set means nothing was
// proposed yet and nothing is recorded. It returns nil when nothing is expiring.
func DetectExpiring(series []models.RecurringSeries, notified *NotifiedSet, now time.Time) *models.ExtensionProposal {
	for _, s := range series {
		if !IsExpiring(s) || notified.Has(s.ID) {
			continue
		}
		notified.Add(s.ID)
		return &models.ExtensionProposal{
			Series:             s.Descriptor(),
			ProposedNewEndDate: AddMonth(s.LastScheduledDate),
			DetectedAt:         now,
		}
	}
	return nil
}
