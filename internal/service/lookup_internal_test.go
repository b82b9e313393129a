package service

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/hours"
	"github.com/UnknownOlympus/pharmacy-locator/internal/metrics"
	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"github.com/UnknownOlympus/pharmacy-locator/internal/registry"
	"github.com/UnknownOlympus/pharmacy-locator/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 2024-06-04 is a Tuesday.
var tuesday = time.Date(2024, time.June, 4, 10, 0, 0, 0, time.UTC)

var (
	gwanakCoords  = &models.Coordinates{Latitude: 37.4784, Longitude: 126.9516}
	gwanakAddress = &models.Address{Region: "서울특별시", SubRegion: "관악구"}
	gwanakQuery   = registry.Query{
		Region:    "서울특별시",
		SubRegion: "관악구",
		Day:       models.Tuesday,
		MaxRows:   registry.DefaultMaxRows,
	}
)

type fixture struct {
	locator  *mocks.Locator
	geocoder *mocks.Provider
	gateway  *mocks.Gateway
	journal  *mocks.Interface
	metrics  *metrics.Metrics
	service  *LookupService
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()

	f := &fixture{
		locator:  mocks.NewLocator(t),
		geocoder: mocks.NewProvider(t),
		gateway:  mocks.NewGateway(t),
		journal:  mocks.NewInterface(t),
		metrics:  metrics.NewMetrics(prometheus.NewRegistry()),
	}
	f.service = NewLookupService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		f.locator,
		f.geocoder,
		f.gateway,
		f.metrics,
		Options{
			Timeout: timeout,
			Days:    hours.NewDayResolver(time.UTC, nil),
			Journal: f.journal,
			Now:     func() time.Time { return tuesday },
			NewID:   func() string { return "lookup-1" },
		},
	)

	return f
}

func (f *fixture) expectJournal(outcome models.Outcome) {
	f.journal.On("RecordLookup", mock.Anything, mock.MatchedBy(func(e models.LookupEntry) bool {
		return e.ID == "lookup-1" && e.Outcome == outcome && e.Day == models.Tuesday
	})).Return(nil).Once()
}

func envelopeOf(items ...registry.Item) *registry.Envelope {
	env := &registry.Envelope{
		Header: registry.Header{ResultCode: registry.SuccessCode, ResultMsg: "NORMAL SERVICE."},
		Body:   registry.Body{NumOfRows: "70", TotalCount: strconv.Itoa(len(items))},
	}
	switch len(items) {
	case 0:
	case 1:
		env.Body.Items = &registry.Items{Single: &items[0]}
	default:
		env.Body.Items = &registry.Items{Many: items}
	}
	return env
}

var (
	bongcheon = registry.Item{
		RNum:       "1",
		DutyName:   "온누리봉천약국",
		DutyAddr:   "서울특별시 관악구 봉천로 123",
		DutyTime2s: "0900",
		DutyTime2c: "1830",
	}
	sillim = registry.Item{
		RNum:     "2",
		DutyName: "신림중앙약국",
		DutyAddr: "서울특별시 관악구 신림로 45",
	}
)

func TestInitialize_PermissionDenied(t *testing.T) {
	f := newFixture(t, time.Second)
	f.locator.On("RequestPermission", mock.Anything).Return(false).Once()
	f.expectJournal(models.OutcomeFailure)

	err := f.service.Initialize(t.Context())

	require.ErrorIs(t, err, models.ErrPermissionDenied)
	snap := f.service.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, models.KindPermissionDenied, snap.ErrorKind)
	assert.Equal(t, "location: location permission denied", snap.Error)
	assert.Empty(t, snap.Pharmacies)
	assert.NotNil(t, snap.Pharmacies)
	assert.Nil(t, snap.Address)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.StageErrors.WithLabelValues("location", "permission_denied")), 0)
}

func TestInitialize_SingleItem(t *testing.T) {
	f := newFixture(t, time.Second)
	f.locator.On("RequestPermission", mock.Anything).Return(true).Once()
	f.locator.On("CurrentCoordinates", mock.Anything).Return(gwanakCoords, nil).Once()
	f.geocoder.On("ReverseGeocode", mock.Anything, *gwanakCoords).Return(gwanakAddress, nil).Once()
	f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).Return(envelopeOf(bongcheon), nil).Once()
	f.expectJournal(models.OutcomeSuccess)

	err := f.service.Initialize(t.Context())

	require.NoError(t, err)
	snap := f.service.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	assert.Equal(t, gwanakAddress, snap.Address)
	assert.Equal(t, models.Tuesday, snap.Day)
	assert.Equal(t, 1, snap.Total)
	require.Len(t, snap.Pharmacies, 1)
	assert.Equal(t, "09:00 - 18:30", f.service.BusinessHours(snap.Pharmacies[0]))
	assert.Equal(t, models.Hours{Start: "0900", End: "1830"}, f.service.ResolveHours(snap.Pharmacies[0]))
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.LookupCycles.WithLabelValues("initialize", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.PharmaciesSeen), 0)
}

func TestFetch_RecordWithoutHours(t *testing.T) {
	f := newFixture(t, time.Second)
	f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).Return(envelopeOf(bongcheon, sillim), nil).Once()
	f.expectJournal(models.OutcomeSuccess)

	require.NoError(t, f.service.Fetch(t.Context(), "서울특별시", "관악구"))

	p, ok := f.service.Pharmacy("2")
	require.True(t, ok)
	assert.Equal(t, hours.NoHoursMessage, f.service.BusinessHours(p))
	_, ok = f.service.Pharmacy("99")
	assert.False(t, ok)
	assert.Equal(t, gwanakAddress, f.service.Snapshot().Address)
}

func TestInitialize_RegistryError(t *testing.T) {
	f := newFixture(t, time.Second)
	f.locator.On("RequestPermission", mock.Anything).Return(true).Once()
	f.locator.On("CurrentCoordinates", mock.Anything).Return(gwanakCoords, nil).Once()
	f.geocoder.On("ReverseGeocode", mock.Anything, *gwanakCoords).Return(gwanakAddress, nil).Once()
	f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).Return(&registry.Envelope{
		Header: registry.Header{ResultCode: "01", ResultMsg: "INVALID_REQUEST"},
	}, nil).Once()
	f.expectJournal(models.OutcomeFailure)

	err := f.service.Initialize(t.Context())

	require.ErrorIs(t, err, models.ErrRegistry)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageRegistry, stageErr.Stage)

	snap := f.service.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, models.KindRegistry, snap.ErrorKind)
	assert.Contains(t, snap.Error, "INVALID_REQUEST")
	assert.Equal(t, "registry: INVALID_REQUEST", snap.Error)
}

func TestRefresh(t *testing.T) {
	t.Run("cached address skips location and geocoder", func(t *testing.T) {
		f := newFixture(t, time.Second)
		f.locator.On("RequestPermission", mock.Anything).Return(true).Once()
		f.locator.On("CurrentCoordinates", mock.Anything).Return(gwanakCoords, nil).Once()
		f.geocoder.On("ReverseGeocode", mock.Anything, *gwanakCoords).Return(gwanakAddress, nil).Once()
		f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).Return(envelopeOf(bongcheon), nil).Once()
		f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).
			Return(envelopeOf(bongcheon, sillim), nil).Once()
		f.journal.On("RecordLookup", mock.Anything, mock.Anything).Return(nil).Twice()

		require.NoError(t, f.service.Initialize(t.Context()))
		require.NoError(t, f.service.Refresh(t.Context()))

		f.locator.AssertNumberOfCalls(t, "CurrentCoordinates", 1)
		f.geocoder.AssertNumberOfCalls(t, "ReverseGeocode", 1)
		f.gateway.AssertNumberOfCalls(t, "FetchRegistry", 2)
		assert.Len(t, f.service.Snapshot().Pharmacies, 2)
	})

	t.Run("cached coordinates re-resolve the address", func(t *testing.T) {
		f := newFixture(t, time.Second)
		f.locator.On("RequestPermission", mock.Anything).Return(true).Once()
		f.locator.On("CurrentCoordinates", mock.Anything).Return(gwanakCoords, nil).Once()
		f.geocoder.On("ReverseGeocode", mock.Anything, *gwanakCoords).
			Return(nil, models.Wrap(models.ErrGeocodeFailure, assert.AnError)).Once()
		f.geocoder.On("ReverseGeocode", mock.Anything, *gwanakCoords).Return(gwanakAddress, nil).Once()
		f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).Return(envelopeOf(bongcheon), nil).Once()
		f.journal.On("RecordLookup", mock.Anything, mock.Anything).Return(nil).Twice()

		err := f.service.Initialize(t.Context())
		require.ErrorIs(t, err, models.ErrGeocodeFailure)
		assert.Equal(t, models.KindGeocodeFailure, f.service.Snapshot().ErrorKind)

		require.NoError(t, f.service.Refresh(t.Context()))

		f.locator.AssertNumberOfCalls(t, "RequestPermission", 1)
		assert.Equal(t, StatusReady, f.service.Snapshot().Status)
	})

	t.Run("nothing cached runs initialize", func(t *testing.T) {
		f := newFixture(t, time.Second)
		f.locator.On("RequestPermission", mock.Anything).Return(true).Once()
		f.locator.On("CurrentCoordinates", mock.Anything).
			Return(nil, models.Wrap(models.ErrLocationUnavailable, assert.AnError)).Once()
		f.expectJournal(models.OutcomeFailure)

		err := f.service.Refresh(t.Context())

		require.ErrorIs(t, err, models.ErrLocationUnavailable)
		snap := f.service.Snapshot()
		assert.Equal(t, models.KindLocationUnavailable, snap.ErrorKind)
		assert.Contains(t, snap.Error, "location: ")
	})
}

func TestFailureKeepsPreviousList(t *testing.T) {
	f := newFixture(t, time.Second)
	f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).Return(envelopeOf(bongcheon, sillim), nil).Once()
	f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).
		Return(nil, models.Wrap(models.ErrNetwork, assert.AnError)).Once()
	f.journal.On("RecordLookup", mock.Anything, mock.Anything).Return(nil).Twice()

	require.NoError(t, f.service.Fetch(t.Context(), "서울특별시", "관악구"))
	err := f.service.Refresh(t.Context())

	require.ErrorIs(t, err, models.ErrNetwork)
	snap := f.service.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, models.KindNetwork, snap.ErrorKind)
	assert.Len(t, snap.Pharmacies, 2)
}

func TestInFlightGuard(t *testing.T) {
	f := newFixture(t, time.Second)
	started := make(chan struct{})
	release := make(chan struct{})

	f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(envelopeOf(bongcheon), nil).Once()
	f.expectJournal(models.OutcomeSuccess)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = f.service.Fetch(context.Background(), "서울특별시", "관악구")
	}()

	<-started
	assert.True(t, f.service.Snapshot().Loading)
	require.ErrorIs(t, f.service.Refresh(t.Context()), ErrLookupInProgress)
	require.ErrorIs(t, f.service.Initialize(t.Context()), ErrLookupInProgress)
	assert.Equal(t, StatusLoading, f.service.Snapshot().Status)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.LookupInFlight), 0)

	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	snap := f.service.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Len(t, snap.Pharmacies, 1)
	assert.InDelta(t, 0, testutil.ToFloat64(f.metrics.LookupInFlight), 0)
}

func TestCycleTimeout(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).
		Return(func(ctx context.Context, _ registry.Query) (*registry.Envelope, error) {
			<-ctx.Done()
			return nil, models.Wrap(models.ErrNetwork, ctx.Err())
		}, nil).Once()
	f.expectJournal(models.OutcomeFailure)

	err := f.service.Fetch(t.Context(), "서울특별시", "관악구")

	require.ErrorIs(t, err, context.DeadlineExceeded)
	snap := f.service.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, models.KindTimeout, snap.ErrorKind)
	assert.Contains(t, snap.Error, "registry: context deadline exceeded")
}

func TestJournalFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, time.Second)
	f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).Return(envelopeOf(), nil).Once()
	f.journal.On("RecordLookup", mock.Anything, mock.MatchedBy(func(e models.LookupEntry) bool {
		return e.Trigger == models.TriggerFetch && e.Count == 0 && e.Region == "서울특별시"
	})).Return(assert.AnError).Once()

	require.NoError(t, f.service.Fetch(t.Context(), "서울특별시", "관악구"))

	snap := f.service.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Empty(t, snap.Pharmacies)
}

func TestJournalWriteReleasesGuard(t *testing.T) {
	f := newFixture(t, time.Second)
	f.service.journalTimeout = 50 * time.Millisecond
	recording := make(chan struct{})
	var hasDeadline bool

	f.gateway.On("FetchRegistry", mock.Anything, gwanakQuery).Return(envelopeOf(bongcheon), nil).Twice()
	f.journal.On("RecordLookup", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, hasDeadline = ctx.Deadline()
			close(recording)
			<-ctx.Done()
		}).
		Return(context.DeadlineExceeded).Once()
	f.expectJournal(models.OutcomeSuccess)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = f.service.Fetch(context.Background(), "서울특별시", "관악구")
	}()

	<-recording
	assert.False(t, f.service.Snapshot().Loading)
	require.NoError(t, f.service.Fetch(t.Context(), "서울특별시", "관악구"))

	wg.Wait()
	require.NoError(t, firstErr)
	assert.True(t, hasDeadline)
	assert.Equal(t, StatusReady, f.service.Snapshot().Status)
}

func TestJournalTimeoutDefault(t *testing.T) {
	svc := NewLookupService(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil, nil,
		metrics.NewMetrics(prometheus.NewRegistry()), Options{})

	assert.Equal(t, DefaultJournalTimeout, svc.journalTimeout)
	assert.Equal(t, DefaultTimeout, svc.timeout)
}

func TestStageError(t *testing.T) {
	err := stageError(StageGeocode, models.ErrGeocodeFailure)

	assert.Equal(t, "geocode: failed to resolve address", err.Error())
	assert.ErrorIs(t, err, models.ErrGeocodeFailure)
}
