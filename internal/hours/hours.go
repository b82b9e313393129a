package hours

import (
	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

// NoHoursMessage is shown when either end of a day's hours is missing.
const NoHoursMessage = "영업시간 정보 없음"

type fieldPair struct {
	start func(p *models.Pharmacy) string
	end   func(p *models.Pharmacy) string
}

// dutyFields maps each day code to the record fields holding its hours.
var dutyFields = map[models.DayCode]fieldPair{
	models.Monday: {
		start: func(p *models.Pharmacy) string { return p.DutyTime1s },
		end:   func(p *models.Pharmacy) string { return p.DutyTime1c },
	},
	models.Tuesday: {
		start: func(p *models.Pharmacy) string { return p.DutyTime2s },
		end:   func(p *models.Pharmacy) string { return p.DutyTime2c },
	},
	models.Wednesday: {
		start: func(p *models.Pharmacy) string { return p.DutyTime3s },
		end:   func(p *models.Pharmacy) string { return p.DutyTime3c },
	},
	models.Thursday: {
		start: func(p *models.Pharmacy) string { return p.DutyTime4s },
		end:   func(p *models.Pharmacy) string { return p.DutyTime4c },
	},
	models.Friday: {
		start: func(p *models.Pharmacy) string { return p.DutyTime5s },
		end:   func(p *models.Pharmacy) string { return p.DutyTime5c },
	},
	models.Saturday: {
		start: func(p *models.Pharmacy) string { return p.DutyTime6s },
		end:   func(p *models.Pharmacy) string { return p.DutyTime6c },
	},
	models.Sunday: {
		start: func(p *models.Pharmacy) string { return p.DutyTime7s },
		end:   func(p *models.Pharmacy) string { return p.DutyTime7c },
	},
	models.Holiday: {
		start: func(p *models.Pharmacy) string { return p.DutyTime8s },
		end:   func(p *models.Pharmacy) string { return p.DutyTime8c },
	},
}

// Resolve returns the raw start and end time of the pharmacy for day.
// Unknown day codes resolve to empty hours.
func Resolve(pharmacy models.Pharmacy, day models.DayCode) models.Hours {
	fields, ok := dutyFields[day]
	if !ok {
		return models.Hours{}
	}

	return models.Hours{Start: fields.start(&pharmacy), End: fields.end(&pharmacy)}
}

// Format renders hours as "HH:MM - HH:MM". Values that are not exactly four
// characters long are passed through untouched.
func Format(start, end string) string {
	if start == "" || end == "" {
		return NoHoursMessage
	}

	return formatTime(start) + " - " + formatTime(end)
}

// FormatHours is Format applied to a models.Hours value.
func FormatHours(h models.Hours) string {
	return Format(h.Start, h.End)
}

func formatTime(value string) string {
	const clockLen = 4
	if len(value) != clockLen {
		return value
	}
	return value[:2] + ":" + value[2:]
}
