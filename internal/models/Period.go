package models

import (
	"errors"
	"fmt"
	"time"
)

type PeriodKind string

const (
	PeriodDay  PeriodKind = "day"
	PeriodWeek PeriodKind = "week"
)

var ErrInvalidPeriod = errors.New("invalid period selector")

// Period selects one displayed bucket: a calendar day, or a week by its
// Sunday start date.
type Period struct {
	Kind PeriodKind `json:"kind"`
	Date string     `json:"date"`
}

func DayPeriod(date string) Period  { return Period{Kind: PeriodDay, Date: date} }
func WeekPeriod(start string) Period { return Period{Kind: PeriodWeek, Date: start} }

func (p Period) Validate() error {
	if p.Kind != PeriodDay && p.Kind != PeriodWeek {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, p.Kind)
	}
	if _, err := time.Parse(DateLayout, p.Date); err != nil {
		return fmt.Errorf("%w: bad date %q", ErrInvalidPeriod, p.Date)
	}
	return nil
}

func (p Period) String() string {
	return string(p.Kind) + ":" + p.Date
}

// Participant is one row of a drill-down answer.
type Participant struct {
	Key               IdentityKey `json:"key"`
	UserName          string      `json:"user_name"`
	ConversationCount int         `json:"conversation_count"`
}
