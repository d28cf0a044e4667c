package market

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Clock is a wall-clock time of day in minutes after midnight.
type Clock int

// ParseClock reads a "15:04" wall-clock time.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("bad clock %q: %w", s, err)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Session is an exchange's regular trading window. Open and Close are
// both inclusive.
type Session struct {
	Location *time.Location
	Open     Clock
	Close    Clock
}

const (
	ExchangeTimezone = "America/New_York"
	SessionOpen      = "09:30"
	SessionClose     = "16:00"
)

// NewSession builds a session from an IANA timezone and "15:04" open and
// close clocks.
func NewSession(tz, open, close string) (Session, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Session{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	o, err := ParseClock(open)
	if err != nil {
		return Session{}, err
	}
	c, err := ParseClock(close)
	if err != nil {
		return Session{}, err
	}
	if c < o {
		return Session{}, fmt.Errorf("session close %s is before open %s", c, o)
	}
	return Session{Location: loc, Open: o, Close: c}, nil
}

// DefaultSession is the NASDAQ regular session, 09:30-16:00 New York time.
func DefaultSession() Session {
	s, err := NewSession(ExchangeTimezone, SessionOpen, SessionClose)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Session) local(t time.Time) time.Time {
	if s.Location == nil {
		return t.UTC()
	}
	return t.In(s.Location)
}

// IsBusinessDay reports whether t falls on Monday through Friday in
// exchange time.
func (s Session) IsBusinessDay(t time.Time) bool {
	wd := s.local(t).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Contains reports whether t is a business day bar inside the session.
func (s Session) Contains(t time.Time) bool {
	if !s.IsBusinessDay(t) {
		return false
	}
	lt := s.local(t)
	c := Clock(lt.Hour()*60 + lt.Minute())
	return c >= s.Open && c <= s.Close
}

// Date returns exchange-local midnight of the day t falls on.
func (s Session) Date(t time.Time) time.Time {
	lt := s.local(t)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, lt.Location())
}
