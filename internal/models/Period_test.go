package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriod_Validate(t *testing.T) {
	assert.NoError(t, DayPeriod("2024-03-11").Validate())
	assert.NoError(t, WeekPeriod("2024-03-10").Validate())

	assert.ErrorIs(t, DayPeriod("11/03/2024").Validate(), ErrInvalidPeriod)
	assert.ErrorIs(t, DayPeriod("2024-02-30").Validate(), ErrInvalidPeriod)
	assert.ErrorIs(t, Period{Kind: "month", Date: "2024-03-01"}.Validate(), ErrInvalidPeriod)
	assert.ErrorIs(t, Period{}.Validate(), ErrInvalidPeriod)
}

func TestPeriod_String(t *testing.T) {
	assert.Equal(t, "day:2024-03-11", DayPeriod("2024-03-11").String())
	assert.Equal(t, "week:2024-03-10", WeekPeriod("2024-03-10").String())
}
