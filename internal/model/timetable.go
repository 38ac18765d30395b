package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClockTime is a time of day, stored as seconds since midnight.
type ClockTime int

const secondsPerDay = 24 * 60 * 60

// NewClockTime builds a ClockTime from its components.
func NewClockTime(hour, minute, second int) ClockTime {
	return ClockTime(hour*3600 + minute*60 + second)
}

// ParseClockTime accepts "HH:MM" or "HH:MM:SS".
func ParseClockTime(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewClockTime(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q, want HH:MM or HH:MM:SS", s)
}

// Add returns c shifted by d, truncated to whole seconds.
func (c ClockTime) Add(d time.Duration) ClockTime {
	return c + ClockTime(d/time.Second)
}

// Valid reports whether c falls inside one day.
func (c ClockTime) Valid() bool {
	return c >= 0 && c < secondsPerDay
}

// Microseconds is the representation used by PostgreSQL TIME columns.
func (c ClockTime) Microseconds() int64 {
	return int64(c) * int64(time.Second/time.Microsecond)
}

// ClockTimeFromMicroseconds is the inverse of Microseconds.
func ClockTimeFromMicroseconds(us int64) ClockTime {
	return ClockTime(us / int64(time.Second/time.Microsecond))
}

func (c ClockTime) String() string {
	s := int(c)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TimetableEntry is a weekly recurring slot of a class.
// DayOfWeek is 0 for Monday through 6 for Sunday.
type TimetableEntry struct {
	ID        int       `json:"id"`
	ClassID   int       `json:"class_id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime ClockTime `json:"start_time"`
	EndTime   ClockTime `json:"end_time"`
}

// CreateTimetableEntryRequest is the payload for adding a slot.
type CreateTimetableEntryRequest struct {
	ClassID   int        `json:"class_id" binding:"required,min=1,max=2147483647"`
	DayOfWeek *int       `json:"day_of_week" binding:"required"`
	StartTime *ClockTime `json:"start_time" binding:"required"`
	EndTime   *ClockTime `json:"end_time" binding:"required"`
}

// UpdateTimetableEntryRequest is a partial update of a slot.
type UpdateTimetableEntryRequest struct {
	DayOfWeek Optional[int]       `json:"day_of_week"`
	StartTime Optional[ClockTime] `json:"start_time"`
	EndTime   Optional[ClockTime] `json:"end_time"`
}
