// Package service coordinates location, reverse geocoding and the pharmacy
// registry into a single lookup cycle and owns the resulting state.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/geocoding"
	"github.com/UnknownOlympus/pharmacy-locator/internal/hours"
	"github.com/UnknownOlympus/pharmacy-locator/internal/location"
	"github.com/UnknownOlympus/pharmacy-locator/internal/metrics"
	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"github.com/UnknownOlympus/pharmacy-locator/internal/registry"
	"github.com/google/uuid"
)

// Status is the state of the lookup state machine.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

const (
	// DefaultTimeout bounds a whole lookup cycle when Options.Timeout is unset.
	DefaultTimeout = 30 * time.Second
	// DefaultJournalTimeout bounds one journal write when Options.JournalTimeout is unset.
	DefaultJournalTimeout = 5 * time.Second
)

// Gateway queries the pharmacy registry.
type Gateway interface {
	FetchRegistry(ctx context.Context, query registry.Query) (*registry.Envelope, error)
}

// Journal receives one entry per finished lookup cycle.
type Journal interface {
	RecordLookup(ctx context.Context, entry models.LookupEntry) error
}

// Options holds the optional collaborators of a LookupService.
type Options struct {
	MaxRows int           // MaxRows is the registry row cap, registry.DefaultMaxRows when zero.
	Timeout time.Duration // Timeout bounds one cycle, DefaultTimeout when zero.
	// JournalTimeout bounds one journal write, DefaultJournalTimeout when zero.
	JournalTimeout time.Duration
	Days           *hours.DayResolver // Days resolves the current day code, UTC weekdays when nil.
	Journal        Journal            // Journal is optional.
	Now            func() time.Time   // Now is the clock, time.Now when nil.
	NewID          func() string      // NewID generates journal entry IDs, uuid.NewString when nil.
}

// Snapshot is a copy of the service state at one instant.
type Snapshot struct {
	Status     Status            `json:"status"`
	Loading    bool              `json:"loading"`
	Error      string            `json:"error,omitempty"`
	ErrorKind  models.ErrorKind  `json:"errorKind,omitempty"`
	Address    *models.Address   `json:"address,omitempty"`
	Day        models.DayCode    `json:"day"`
	Pharmacies []models.Pharmacy `json:"pharmacies"`
	Total      int               `json:"totalCount"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// LookupService runs the location to registry pipeline. At most one cycle runs
// at a time; a trigger arriving meanwhile fails with ErrLookupInProgress.
type LookupService struct {
	log      *slog.Logger
	locator  location.Locator
	geocoder geocoding.Provider
	gateway  Gateway
	metrics  *metrics.Metrics
	journal  Journal
	days     *hours.DayResolver
	now      func() time.Time
	newID    func() string
	maxRows  int
	timeout  time.Duration

	journalTimeout time.Duration

	inFlight atomic.Bool

	mu         sync.RWMutex
	status     Status
	err        error
	coords     *models.Coordinates
	address    *models.Address
	pharmacies []models.Pharmacy
	total      int
	updatedAt  time.Time
}

// NewLookupService creates an idle LookupService.
func NewLookupService(
	log *slog.Logger,
	locator location.Locator,
	geocoder geocoding.Provider,
	gateway Gateway,
	metrics *metrics.Metrics,
	opts Options,
) *LookupService {
	svc := &LookupService{
		log:      log,
		locator:  locator,
		geocoder: geocoder,
		gateway:  gateway,
		metrics:  metrics,
		journal:  opts.Journal,
		days:     opts.Days,
		now:      opts.Now,
		newID:    opts.NewID,
		maxRows:  opts.MaxRows,
		timeout:  opts.Timeout,

		journalTimeout: opts.JournalTimeout,
		status:         StatusIdle,
		pharmacies:     []models.Pharmacy{},
	}
	if svc.days == nil {
		svc.days = hours.NewDayResolver(time.UTC, nil)
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}
	if svc.maxRows <= 0 {
		svc.maxRows = registry.DefaultMaxRows
	}
	if svc.timeout <= 0 {
		svc.timeout = DefaultTimeout
	}
	if svc.journalTimeout <= 0 {
		svc.journalTimeout = DefaultJournalTimeout
	}

	return svc
}

// cycle carries the values produced while one lookup runs.
type cycle struct {
	trigger models.Trigger
	day     models.DayCode
	address models.Address
	page    *registry.Page
}

// Initialize runs the full pipeline: permission, coordinates, address, registry.
func (s *LookupService) Initialize(ctx context.Context) error {
	return s.run(ctx, models.TriggerInitialize, s.initialize)
}

// Fetch queries the registry for an explicit region without touching the
// location source. On success the region becomes the cached address.
func (s *LookupService) Fetch(ctx context.Context, region, subRegion string) error {
	address := models.Address{Region: region, SubRegion: subRegion}
	return s.run(ctx, models.TriggerFetch, func(ctx context.Context, c *cycle) error {
		return s.fetch(ctx, c, address)
	})
}

// Refresh re-fetches with the cached address when there is one, re-resolves the
// address from cached coordinates otherwise, and falls back to Initialize when
// nothing is cached.
func (s *LookupService) Refresh(ctx context.Context) error {
	return s.run(ctx, models.TriggerRefresh, func(ctx context.Context, c *cycle) error {
		s.mu.RLock()
		address, coords := s.address, s.coords
		s.mu.RUnlock()

		switch {
		case address != nil:
			s.log.DebugContext(ctx, "Refreshing with cached address", "region", address.Region)
			return s.fetch(ctx, c, *address)
		case coords != nil:
			s.log.DebugContext(ctx, "Refreshing with cached coordinates")
			return s.resolveAndFetch(ctx, c, *coords)
		default:
			s.log.DebugContext(ctx, "Nothing cached, running full initialization")
			return s.initialize(ctx, c)
		}
	})
}

// Snapshot returns a copy of the current state.
func (s *LookupService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Status:     s.status,
		Loading:    s.status == StatusLoading,
		Day:        s.days.DayCode(s.now()),
		Pharmacies: append([]models.Pharmacy(nil), s.pharmacies...),
		Total:      s.total,
		UpdatedAt:  s.updatedAt,
	}
	if snap.Pharmacies == nil {
		snap.Pharmacies = []models.Pharmacy{}
	}
	if s.address != nil {
		address := *s.address
		snap.Address = &address
	}
	if s.err != nil {
		snap.Error = s.err.Error()
		snap.ErrorKind = models.KindOf(s.err)
	}

	return snap
}

// Pharmacy returns the held record with the given rnum.
func (s *LookupService) Pharmacy(rnum string) (models.Pharmacy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.pharmacies {
		if p.RNum == rnum {
			return p, true
		}
	}
	return models.Pharmacy{}, false
}

// Today returns the day code that applies now.
func (s *LookupService) Today() models.DayCode {
	return s.days.DayCode(s.now())
}

// ResolveHours returns the opening hours of p for the current day.
func (s *LookupService) ResolveHours(p models.Pharmacy) models.Hours {
	return hours.Resolve(p, s.Today())
}

// BusinessHours returns the formatted opening hours of p for the current day.
func (s *LookupService) BusinessHours(p models.Pharmacy) string {
	return hours.FormatHours(s.ResolveHours(p))
}

func (s *LookupService) run(
	ctx context.Context,
	trigger models.Trigger,
	step func(ctx context.Context, c *cycle) error,
) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.WarnContext(ctx, "Lookup trigger ignored, a cycle is already running", "trigger", trigger)
		return ErrLookupInProgress
	}

	startedAt := s.now()
	c := &cycle{trigger: trigger, day: s.days.DayCode(startedAt)}

	err := s.execute(ctx, c, step)

	// Journal writes happen outside the in-flight guard.
	s.record(ctx, c, startedAt, err)

	return err
}

// execute runs step under the cycle deadline and publishes its result. It
// releases the in-flight guard on return.
func (s *LookupService) execute(ctx context.Context, c *cycle, step func(ctx context.Context, c *cycle) error) error {
	defer s.inFlight.Store(false)

	s.metrics.LookupInFlight.Set(1)
	defer s.metrics.LookupInFlight.Set(0)

	s.mu.Lock()
	s.status = StatusLoading
	s.mu.Unlock()

	s.log.InfoContext(ctx, "Lookup cycle started", "trigger", c.trigger, "day", c.day)

	cycleCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := step(cycleCtx, c)
	cancel()

	if err != nil {
		s.failed(ctx, c, err)
	} else {
		s.succeeded(ctx, c)
	}

	return err
}

func (s *LookupService) initialize(ctx context.Context, c *cycle) error {
	if !s.locator.RequestPermission(ctx) {
		return stageError(StageLocation, models.ErrPermissionDenied)
	}

	start := time.Now()
	coords, err := s.locator.CurrentCoordinates(ctx)
	s.metrics.StageSeconds.WithLabelValues(string(StageLocation)).Observe(time.Since(start).Seconds())
	if err != nil {
		return stageError(StageLocation, timeoutAware(ctx, err))
	}

	s.mu.Lock()
	s.coords = coords
	s.mu.Unlock()

	return s.resolveAndFetch(ctx, c, *coords)
}

func (s *LookupService) resolveAndFetch(ctx context.Context, c *cycle, coords models.Coordinates) error {
	start := time.Now()
	address, err := s.geocoder.ReverseGeocode(ctx, coords)
	s.metrics.StageSeconds.WithLabelValues(string(StageGeocode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return stageError(StageGeocode, timeoutAware(ctx, err))
	}

	s.mu.Lock()
	s.address = address
	s.mu.Unlock()

	return s.fetch(ctx, c, *address)
}

func (s *LookupService) fetch(ctx context.Context, c *cycle, address models.Address) error {
	c.address = address

	start := time.Now()
	env, err := s.gateway.FetchRegistry(ctx, registry.Query{
		Region:    address.Region,
		SubRegion: address.SubRegion,
		Day:       c.day,
		MaxRows:   s.maxRows,
	})
	if err == nil {
		c.page, err = registry.Normalize(env)
	}
	s.metrics.StageSeconds.WithLabelValues(string(StageRegistry)).Observe(time.Since(start).Seconds())
	if err != nil {
		return stageError(StageRegistry, timeoutAware(ctx, err))
	}

	return nil
}

func (s *LookupService) succeeded(ctx context.Context, c *cycle) {
	address := c.address

	s.mu.Lock()
	s.status = StatusReady
	s.err = nil
	s.address = &address
	s.pharmacies = c.page.Pharmacies
	s.total = c.page.TotalCount
	s.updatedAt = s.now()
	s.mu.Unlock()

	s.metrics.LookupCycles.WithLabelValues(string(c.trigger), string(models.OutcomeSuccess)).Inc()
	s.metrics.PharmaciesSeen.Set(float64(len(c.page.Pharmacies)))

	s.log.InfoContext(ctx, "Lookup cycle finished",
		"trigger", c.trigger,
		"region", address.Region,
		"sub_region", address.SubRegion,
		"pharmacies", len(c.page.Pharmacies),
	)
}

// failed keeps the previously held record list.
func (s *LookupService) failed(ctx context.Context, c *cycle, err error) {
	s.mu.Lock()
	s.status = StatusFailed
	s.err = err
	s.mu.Unlock()

	kind := models.KindOf(err)
	stage := "unknown"
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		stage = string(stageErr.Stage)
	}

	s.metrics.LookupCycles.WithLabelValues(string(c.trigger), string(models.OutcomeFailure)).Inc()
	s.metrics.StageErrors.WithLabelValues(stage, string(kind)).Inc()

	s.log.ErrorContext(ctx, "Lookup cycle failed", "trigger", c.trigger, "kind", kind, "error", err)
}

func (s *LookupService) record(ctx context.Context, c *cycle, startedAt time.Time, err error) {
	if s.journal == nil {
		return
	}

	entry := models.LookupEntry{
		ID:        s.newID(),
		Trigger:   c.trigger,
		Region:    c.address.Region,
		SubRegion: c.address.SubRegion,
		Day:       c.day,
		Outcome:   models.OutcomeSuccess,
		StartedAt: startedAt,
		Duration:  s.now().Sub(startedAt),
	}
	if c.page != nil {
		entry.Count = len(c.page.Pharmacies)
	}
	if err != nil {
		entry.Outcome = models.OutcomeFailure
		entry.ErrorKind = models.KindOf(err)
		entry.Error = err.Error()
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.journalTimeout)
	defer cancel()

	if errRecord := s.journal.RecordLookup(recordCtx, entry); errRecord != nil {
		s.log.ErrorContext(ctx, "Failed to record lookup", "id", entry.ID, "error", errRecord)
	}
}

// timeoutAware reports a failure that happened after the cycle deadline as a
// timeout. The provider's own classification is kept only in the message.
func timeoutAware(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", context.DeadlineExceeded, err.Error())
	}
	return err
}
