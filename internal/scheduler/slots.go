package scheduler

var (
	weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}
	weekend  = []Day{Saturday, Sunday}
)

// ActiveDays returns the day set for the settings in Monday-first order.
func ActiveDays(settings Settings) []Day {
	days := make([]Day, 0, len(weekdays)+len(weekend))
	days = append(days, weekdays...)
	if settings.AllowWeekends {
		days = append(days, weekend...)
	}
	return days
}

// BuildSlotUniverse enumerates every candidate cell, day-major then by
// ascending hour. This is the allocator's scan order.
func BuildSlotUniverse(settings Settings) []TimeSlot {
	days := ActiveDays(settings)
	start, end := settings.PreferredStartTime, settings.PreferredEndTime
	if end <= start {
		return nil
	}
	slots := make([]TimeSlot, 0, len(days)*(end-start))
	for _, day := range days {
		for hour := start; hour < end; hour++ {
			slots = append(slots, TimeSlot{Day: day, StartHour: hour, EndHour: hour + 1})
		}
	}
	return slots
}
