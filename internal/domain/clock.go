package domain

import "time"

// Clock yields the clinic-local current time and calendar dates.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{loc: loc, now: time.Now}
}

// FixedClock always reports t, converted to loc. Used in tests.
func FixedClock(t time.Time, loc *time.Location) Clock {
	c := NewClock(loc)
	c.now = func() time.Time { return t }
	return c
}

func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	loc := c.loc
	if loc == nil {
		loc = time.UTC
	}
	return c.now().In(loc)
}

// Today is the clinic-local date as YYYY-MM-DD.
func (c Clock) Today() string { return c.Now().Format(time.DateOnly) }

func (c Clock) Tomorrow() string { return c.Now().AddDate(0, 0, 1).Format(time.DateOnly) }

func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}
