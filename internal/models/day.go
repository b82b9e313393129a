package models

import "fmt"

// DayCode identifies which of the registry's eight hour-field sets applies.
// The string value is the tag the registry expects in the QT query parameter.
type DayCode string

const (
	Monday    DayCode = "1"
	Tuesday   DayCode = "2"
	Wednesday DayCode = "3"
	Thursday  DayCode = "4"
	Friday    DayCode = "5"
	Saturday  DayCode = "6"
	Sunday    DayCode = "7"
	Holiday   DayCode = "8"
)

// DayCodes lists every day code, weekdays first.
var DayCodes = []DayCode{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday, Holiday}

var dayNames = map[DayCode]string{
	Monday:    "monday",
	Tuesday:   "tuesday",
	Wednesday: "wednesday",
	Thursday:  "thursday",
	Friday:    "friday",
	Saturday:  "saturday",
	Sunday:    "sunday",
	Holiday:   "holiday",
}

// ParseDayCode accepts either the numeric tag ("1".."8") or the lowercase day name.
func ParseDayCode(value string) (DayCode, error) {
	if _, ok := dayNames[DayCode(value)]; ok {
		return DayCode(value), nil
	}
	for code, name := range dayNames {
		if name == value {
			return code, nil
		}
	}

	return "", fmt.Errorf("unknown day code %q", value)
}

// Valid reports whether the code is one of the eight known tags.
func (d DayCode) Valid() bool {
	_, ok := dayNames[d]
	return ok
}

// Name returns the lowercase day name, or an empty string for unknown codes.
func (d DayCode) Name() string {
	return dayNames[d]
}

func (d DayCode) String() string {
	return string(d)
}
