package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-series-api/internal/models"
)

func TestDetectExpiringIsOneShotPerSession(t *testing.T) {
	series := []models.RecurringSeries{
		{ID: "s1", Name: "Funcional", RemainingInstanceCount: 3, LastScheduledDate: nextMonday},
		{ID: "s2", Name: "Yoga", RemainingInstanceCount: 1, LastScheduledDate: nextMonday},
		{ID: "s3", Name: "Pilates", RemainingInstanceCount: 1, LastScheduledDate: wednesday},
	}
	notified := NewNotifiedSet()
	now := at(monday, 10, 0)

	first := DetectExpiring(series, notified, now)
	require.NotNil(t, first)
	assert.Equal(t, "s2", first.Series.ID)
	assert.Equal(t, time.Date(2026, 11, 26, 0, 0, 0, 0, time.UTC), first.ProposedNewEndDate)
	assert.True(t, notified.Has("s2"))

	second := DetectExpiring(series, notified, now)
	require.NotNil(t, second)
	assert.Equal(t, "s3", second.Series.ID)

	assert.Nil(t, DetectExpiring(series, notified, now))
	assert.Equal(t, 2, notified.Len())
}

func TestDetectExpiringIgnoresZeroRemaining(t *testing.T) {
	series := []models.RecurringSeries{{ID: "s1", RemainingInstanceCount: 0, LastScheduledDate: monday}}
	assert.Nil(t, DetectExpiring(series, NewNotifiedSet(), at(monday, 10, 0)))
}

func TestAddMonthOverflow(t *testing.T) {
	assert.Equal(t, time.Date(2027, 3, 3, 0, 0, 0, 0, time.UTC), AddMonth(time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2026, 11, 19, 0, 0, 0, 0, time.UTC), AddMonth(monday))
}

func TestDetectExpiringWithNilSet(t *testing.T) {
	series := []models.RecurringSeries{{ID: "s1", RemainingInstanceCount: 1, LastScheduledDate: monday}}

	var notified *NotifiedSet
	proposal := DetectExpiring(series, notified, at(monday, 10, 0))
	require.NotNil(t, proposal)
	assert.Equal(t, "s1", proposal.Series.ID)
	assert.Equal(t, 0, notified.Len())
	assert.True(t, notified.Add("s1"))
}
