package models

import "time"

// Trigger names the operation that started a lookup cycle.
type Trigger string

const (
	TriggerInitialize Trigger = "initialize"
	TriggerFetch      Trigger = "fetch"
	TriggerRefresh    Trigger = "refresh"
)

// Outcome is the terminal state of a lookup cycle.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// LookupEntry is one journal row describing a finished lookup cycle.
type LookupEntry struct {
	ID        string        `json:"id"`
	Trigger   Trigger       `json:"trigger"`
	Region    string        `json:"region"`
	SubRegion string        `json:"subRegion"`
	Day       DayCode       `json:"day"`
	Count     int           `json:"count"`
	Outcome   Outcome       `json:"outcome"`
	ErrorKind ErrorKind     `json:"errorKind,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}
