// Package hours resolves which day code applies to an instant and which of a
// pharmacy's duty-time fields hold the opening hours for that day.
package hours

import (
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

var weekdayCodes = map[time.Weekday]models.DayCode{
	time.Monday:    models.Monday,
	time.Tuesday:   models.Tuesday,
	time.Wednesday: models.Wednesday,
	time.Thursday:  models.Thursday,
	time.Friday:    models.Friday,
	time.Saturday:  models.Saturday,
	time.Sunday:    models.Sunday,
}

// CurrentDayCode maps the calendar weekday of now to one of the seven ordinary
// day codes. It never returns models.Holiday; see HolidayCalendar.
func CurrentDayCode(now time.Time) models.DayCode {
	return weekdayCodes[now.Weekday()]
}

// HolidayCalendar reports public holidays. The registry publishes a separate
// hour set for holidays, but no calendar source is wired in by default.
type HolidayCalendar interface {
	IsHoliday(t time.Time) bool
}

// DayResolver resolves the day code in a fixed time zone, optionally consulting
// a holiday calendar.
type DayResolver struct {
	loc      *time.Location
	holidays HolidayCalendar
}

// NewDayResolver returns a resolver for loc. A nil location means UTC and a nil
// calendar means holidays are never reported.
func NewDayResolver(loc *time.Location, holidays HolidayCalendar) *DayResolver {
	if loc == nil {
		loc = time.UTC
	}
	return &DayResolver{loc: loc, holidays: holidays}
}

// DayCode returns the day code that applies to now in the resolver's time zone.
func (r *DayResolver) DayCode(now time.Time) models.DayCode {
	local := now.In(r.loc)
	if r.holidays != nil && r.holidays.IsHoliday(local) {
		return models.Holiday
	}
	return CurrentDayCode(local)
}
