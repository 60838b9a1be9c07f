package scheduler

import (
	"errors"
	"fmt"
)

// ErrEmptyWindow means the working day has no teaching hours.
var ErrEmptyWindow = errors.New("preferred start time must be before preferred end time")

const (
	DefaultMaxDailyHours      = 6
	DefaultPreferredStartTime = 8
	DefaultPreferredEndTime   = 18
	DefaultMaxSessionsPerDay  = 1
)

// Settings tunes one allocation run. It is passed by value and never mutated by the engine.
type Settings struct {
	PrioritizeRoomSize      bool `json:"prioritizeRoomSize"`
	AvoidBackToBack         bool `json:"avoidBackToBack"`
	BalanceLecturerLoad     bool `json:"balanceLecturerLoad"`
	MaxDailyHours           int  `json:"maxDailyHours"`
	PreferredStartTime      int  `json:"preferredStartTime"`
	PreferredEndTime        int  `json:"preferredEndTime"`
	AllowWeekends           bool `json:"allowWeekends"`
	SpreadCoursesAcrossDays bool `json:"spreadCoursesAcrossDays"`
	MaxSessionsPerDay       int  `json:"maxSessionsPerDay"`
	RespectCreditHours      bool `json:"respectCreditHours"`
	ConsiderRoomCapacity    bool `json:"considerRoomCapacity"`
}

// DefaultSettings returns the settings used when a program has none stored.
func DefaultSettings() Settings {
	return Settings{
		MaxDailyHours:      DefaultMaxDailyHours,
		PreferredStartTime: DefaultPreferredStartTime,
		PreferredEndTime:   DefaultPreferredEndTime,
		MaxSessionsPerDay:  DefaultMaxSessionsPerDay,
		RespectCreditHours: true,
	}
}

// Normalize fills zero values with defaults and clamps the working day to 0..24.
func (s Settings) Normalize() Settings {
	if s.MaxDailyHours <= 0 {
		s.MaxDailyHours = DefaultMaxDailyHours
	}
	if s.MaxSessionsPerDay <= 0 {
		s.MaxSessionsPerDay = DefaultMaxSessionsPerDay
	}
	if s.PreferredStartTime == 0 && s.PreferredEndTime == 0 {
		s.PreferredStartTime = DefaultPreferredStartTime
		s.PreferredEndTime = DefaultPreferredEndTime
	}
	s.PreferredStartTime = clampHour(s.PreferredStartTime)
	s.PreferredEndTime = clampHour(s.PreferredEndTime)
	return s
}

// CheckWindow reports ErrEmptyWindow when the normalised working day is empty,
// which would leave no slot for any session.
func (s Settings) CheckWindow() error {
	n := s.Normalize()
	if n.PreferredStartTime >= n.PreferredEndTime {
		return fmt.Errorf("%w (start %d, end %d)", ErrEmptyWindow, n.PreferredStartTime, n.PreferredEndTime)
	}
	return nil
}

// SessionLength is the divisor used to turn credit hours into weekly sessions.
func (s Settings) SessionLength() int {
	if s.RespectCreditHours {
		return 2
	}
	return 3
}

// SessionsNeeded returns ceil(creditHours / sessionLength).
func (s Settings) SessionsNeeded(creditHours int) int {
	length := s.SessionLength()
	if creditHours <= 0 {
		return 0
	}
	return (creditHours + length - 1) / length
}

func clampHour(hour int) int {
	if hour < 0 {
		return 0
	}
	if hour > 24 {
		return 24
	}
	return hour
}
