package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

func TestSnapshotStoreSkipsMalformedRecords(t *testing.T) {
	bad := rawFixed("bad", "2026-13-40")
	noID := rawFixed("", "2026-10-19")
	gw := &fakeGateway{records: []models.RawClassInstance{rawFixed("ok", "2026-10-19"), bad, noID}}
	store := newTestStore(gw)

	snapshot, err := store.Current(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Instances, 1)
	assert.Equal(t, "ok", snapshot.Instances[0].ID)
	assert.Equal(t, []models.TeacherRef{{ID: "t1", Name: "Martín"}}, snapshot.Instances[0].Teachers)
	assert.Equal(t, uint64(1), snapshot.Version)
}

func TestSnapshotStoreWindowAroundToday(t *testing.T) {
	store := newTestStore(&fakeGateway{})
	window := store.Window()
	assert.Equal(t, "2026-10-12", models.FormatDate(window.From))
	assert.Equal(t, "2026-12-20", models.FormatDate(window.To))
}

func TestSnapshotStoreDiscardsSupersededRefresh(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{records: []models.RawClassInstance{rawFixed("a", "2026-10-19")}}
	gw.beforeFetch = func(n int) {
		if n == 1 {
			close(entered)
			<-release
		}
	}
	store := newTestStore(gw)

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = store.Refresh(context.Background())
	}()
	<-entered

	fresh, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), fresh.Version)

	close(release)
	wg.Wait()
	require.Error(t, slowErr)
	assert.True(t, errors.Is(slowErr, appErrors.ErrStaleSnapshot))

	current, err := store.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), current.Version)
}

func TestSnapshotStoreEnsureRejectsOldVersion(t *testing.T) {
	store := newTestStore(&fakeGateway{})
	first, err := store.Current(context.Background())
	require.NoError(t, err)
	_, err = store.Refresh(context.Background())
	require.NoError(t, err)

	_, err = store.Ensure(context.Background(), first.Version)
	assert.True(t, errors.Is(err, appErrors.ErrStaleSnapshot))

	current, err := store.Ensure(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), current.Version)
}

func TestSnapshotStorePassesGatewayErrorsThrough(t *testing.T) {
	boom := errors.New("collaborator down")
	store := newTestStore(&fakeGateway{fetchErr: boom})

	_, err := store.Current(context.Background())
	assert.Same(t, boom, err)
}

func TestSnapshotStoreRefetchesWhenWindowMoves(t *testing.T) {
	now := testNow
	gw := &fakeGateway{records: []models.RawClassInstance{rawFixed("a", "2026-10-19")}}
	store := NewSnapshotStore(gw, nil, nil, nil, func() time.Time { return now }, SnapshotConfig{PastDays: 7, FutureDays: 62})

	first, err := store.Current(context.Background())
	require.NoError(t, err)

	gw.records = append(gw.records, rawFixed("late", "2027-01-18"))
	now = now.AddDate(0, 0, 90)

	current, err := store.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, gw.fetches)
	assert.Greater(t, current.Version, first.Version)
	assert.Equal(t, "2027-01-10", models.FormatDate(current.Window.From))
	_, ok := current.Find("late")
	assert.True(t, ok)
}

func TestSnapshotStoreRefetchesAfterMaxAge(t *testing.T) {
	now := testNow
	gw := &fakeGateway{records: []models.RawClassInstance{rawFixed("a", "2026-10-19")}}
	store := NewSnapshotStore(gw, nil, nil, nil, func() time.Time { return now }, SnapshotConfig{PastDays: 7, FutureDays: 62, MaxAge: 30 * time.Second})

	_, err := store.Current(context.Background())
	require.NoError(t, err)

	now = now.Add(10 * time.Second)
	_, err = store.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gw.fetches)

	now = now.Add(30 * time.Second)
	current, err := store.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, gw.fetches)
	assert.Equal(t, uint64(2), current.Version)
}

func TestSnapshotStoreForceRefresh(t *testing.T) {
	gw := &fakeGateway{}
	store := newTestStore(gw)

	_, err := store.Current(context.Background())
	require.NoError(t, err)
	gw.records = []models.RawClassInstance{rawFixed("a", "2026-10-19")}

	snapshot, err := store.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, gw.fetches)
	assert.Len(t, snapshot.Instances, 1)
}
