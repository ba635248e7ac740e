package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

func newBulkFixture(records ...models.RawClassInstance) (*BulkService, *fakeGateway) {
	gw := &fakeGateway{records: records}
	store := newTestStore(gw)
	series := NewSeriesService(store, nil, zap.NewNop())
	return NewBulkService(series, store, gw, nil, NewMetricsService(), zap.NewNop()), gw
}

func TestBulkEditSendsOnlyChangedFields(t *testing.T) {
	svc, gw := newBulkFixture(rawFixed("a", "2026-10-19"), rawFixed("b", "2026-10-26"))

	result, err := svc.Edit(context.Background(), BulkEditRequest{SeriesID: fixedSeriesID, StartTime: "08:00", Capacity: 12})
	require.NoError(t, err)
	require.Equal(t, 1, gw.planCount())

	plan := gw.plans[0]
	assert.Equal(t, models.BulkEdit, plan.Kind)
	assert.Nil(t, plan.Payload.StartTime)
	require.NotNil(t, plan.Payload.Capacity)
	assert.Equal(t, 12, *plan.Payload.Capacity)
	assert.Equal(t, "Funcional", plan.Filter.Name)
	assert.Equal(t, "A", plan.Filter.ClassTypeID)
	require.NotNil(t, plan.Filter.DateFrom)
	assert.Equal(t, "2026-10-19", models.FormatDate(*plan.Filter.DateFrom))
	assert.Equal(t, []string{"member-1"}, result.Result.AffectedUserIDs)
	assert.Equal(t, uint64(2), result.SnapshotVersion)
}

func TestBulkMalformedSeriesNeverReachesGateway(t *testing.T) {
	untyped := rawFixed("a", "2026-10-26")
	untyped.ClassType = nil
	svc, gw := newBulkFixture(untyped)
	id := "Funcional||08:00|09:00"
	ctx := context.Background()

	_, err := svc.Edit(ctx, BulkEditRequest{SeriesID: id, Capacity: 20})
	assert.True(t, errors.Is(err, appErrors.ErrMalformedSeries))
	_, err = svc.Extend(ctx, BulkExtendRequest{SeriesID: id, NewEndDate: "2026-11-30"})
	assert.True(t, errors.Is(err, appErrors.ErrMalformedSeries))
	_, err = svc.Delete(ctx, BulkDeleteRequest{SeriesID: id})
	assert.True(t, errors.Is(err, appErrors.ErrMalformedSeries))

	assert.Equal(t, 0, gw.planCount())
}

func TestBulkExtendRequiresLaterEndDate(t *testing.T) {
	svc, gw := newBulkFixture(rawFixed("a", "2026-10-26"))

	_, err := svc.Extend(context.Background(), BulkExtendRequest{SeriesID: fixedSeriesID, NewEndDate: "2026-10-26"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidDateRange))

	result, err := svc.Extend(context.Background(), BulkExtendRequest{SeriesID: fixedSeriesID, NewEndDate: "2026-11-26"})
	require.NoError(t, err)
	assert.Equal(t, models.BulkExtend, result.Plan.Kind)
	require.NotNil(t, result.Plan.Payload.NewEndDate)
	assert.Equal(t, "2026-11-26", models.FormatDate(*result.Plan.Payload.NewEndDate))
	assert.Equal(t, []int{1}, weekdayInts(result.Plan.Filter.Weekdays))
	assert.Equal(t, 1, gw.planCount())
}

func TestBulkRequestValidation(t *testing.T) {
	svc, gw := newBulkFixture(rawFixed("a", "2026-10-26"))
	ctx := context.Background()

	_, err := svc.Edit(ctx, BulkEditRequest{SeriesID: fixedSeriesID, StartTime: "8am"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = svc.Extend(ctx, BulkExtendRequest{SeriesID: fixedSeriesID, NewEndDate: "26/11/2026"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = svc.Delete(ctx, BulkDeleteRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 0, gw.planCount())
}

func TestBulkUnknownSeriesAndStaleVersion(t *testing.T) {
	svc, _ := newBulkFixture(rawFixed("a", "2026-10-26"))
	ctx := context.Background()

	_, err := svc.Delete(ctx, BulkDeleteRequest{SeriesID: "nope"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = svc.Delete(ctx, BulkDeleteRequest{SeriesID: fixedSeriesID, SnapshotVersion: 99})
	assert.True(t, errors.Is(err, appErrors.ErrStaleSnapshot))
}

func TestBulkDayPlans(t *testing.T) {
	svc, gw := newBulkFixture()
	day, _ := models.ParseDate("2026-10-21")

	cancel, err := svc.CancelDay(context.Background(), day, true)
	require.NoError(t, err)
	assert.Equal(t, models.BulkCancelDay, cancel.Plan.Kind)
	require.NotNil(t, cancel.Plan.Payload.RefundCredits)
	assert.True(t, *cancel.Plan.Payload.RefundCredits)

	_, err = svc.ReactivateDay(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, models.BulkReactivateDay, gw.plans[1].Kind)
	require.NotNil(t, gw.plans[1].Filter.Date)
	assert.Equal(t, "2026-10-21", models.FormatDate(*gw.plans[1].Filter.Date))
}

func TestBulkGatewayErrorPassesThrough(t *testing.T) {
	svc, gw := newBulkFixture(rawFixed("a", "2026-10-26"))
	boom := errors.New("write failed")
	gw.mutateErr = boom

	_, err := svc.Delete(context.Background(), BulkDeleteRequest{SeriesID: fixedSeriesID})
	assert.Same(t, boom, err)
}

func weekdayInts(days []time.Weekday) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, int(d))
	}
	return out
}
