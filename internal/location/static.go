package location

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

// StaticLocator reports a fixed coordinate, typically the configured position
// of a kiosk or the host running the service.
type StaticLocator struct {
	coords  models.Coordinates
	consent bool
	granted atomic.Bool
	log     *slog.Logger
}

// NewStaticLocator creates a locator that always answers with coords once
// permission has been granted.
func NewStaticLocator(coords models.Coordinates, consent bool, log *slog.Logger) *StaticLocator {
	return &StaticLocator{coords: coords, consent: consent, log: log}
}

// RequestPermission records the configured consent as the permission answer.
func (sl *StaticLocator) RequestPermission(ctx context.Context) bool {
	sl.granted.Store(sl.consent)
	sl.log.DebugContext(ctx, "Location permission requested", "granted", sl.consent)

	return sl.consent
}

// CurrentCoordinates returns the configured coordinate.
func (sl *StaticLocator) CurrentCoordinates(ctx context.Context) (*models.Coordinates, error) {
	if !sl.granted.Load() {
		return nil, models.ErrPermissionDenied
	}
	if err := ctx.Err(); err != nil {
		return nil, models.Wrap(models.ErrLocationUnavailable, err)
	}

	coords := sl.coords
	return &coords, nil
}
