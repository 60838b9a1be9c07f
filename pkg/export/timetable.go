package export

import (
	"sort"
	"strconv"
	"strings"
)

// Timetable column headers in list layout.
var TimetableHeaders = []string{"Day", "Start", "End", "Course", "Lecturer", "Room", "Year", "Semester"}

// TimetableRow is one scheduled session, already resolved to display names.
type TimetableRow struct {
	Day      string
	DayOrder int
	Start    string
	End      string
	Course   string
	Lecturer string
	Room     string
	Year     int
	Semester int
}

// TimetableDataset lays sessions out one per line ordered by day then start.
func TimetableDataset(rows []TimetableRow) Dataset {
	sorted := sortedRows(rows)
	data := Dataset{Headers: TimetableHeaders, Rows: make([]map[string]string, 0, len(sorted))}
	for _, row := range sorted {
		data.Rows = append(data.Rows, map[string]string{
			"Day":      row.Day,
			"Start":    row.Start,
			"End":      row.End,
			"Course":   row.Course,
			"Lecturer": row.Lecturer,
			"Room":     row.Room,
			"Year":     strconv.Itoa(row.Year),
			"Semester": strconv.Itoa(row.Semester),
		})
	}
	return data
}

// GridDataset lays sessions out as a weekly grid: one line per start time and
// one column per day. Sessions sharing a cell are joined with " / ".
func GridDataset(rows []TimetableRow, days []string) Dataset {
	headers := append([]string{"Time"}, days...)
	cells := make(map[string]map[string][]string)
	var times []string
	for _, row := range sortedRows(rows) {
		key := row.Start + "-" + row.End
		if _, ok := cells[key]; !ok {
			cells[key] = make(map[string][]string)
			times = append(times, key)
		}
		label := row.Course + " (" + row.Room + ")"
		cells[key][row.Day] = append(cells[key][row.Day], label)
	}
	sort.Strings(times)

	data := Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(times))}
	for _, t := range times {
		line := map[string]string{"Time": t}
		for _, day := range days {
			line[day] = strings.Join(cells[t][day], " / ")
		}
		data.Rows = append(data.Rows, line)
	}
	return data
}

func sortedRows(rows []TimetableRow) []TimetableRow {
	sorted := make([]TimetableRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DayOrder != sorted[j].DayOrder {
			return sorted[i].DayOrder < sorted[j].DayOrder
		}
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}
