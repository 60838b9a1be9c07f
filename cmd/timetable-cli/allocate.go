package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/scheduler"
	"github.com/noah-isme/sma-timetable/pkg/csvinput"
	"github.com/noah-isme/sma-timetable/pkg/export"
	"github.com/noah-isme/sma-timetable/pkg/storage"
)

// errCancelled is returned when the run was interrupted before finishing.
var errCancelled = errors.New("allocation cancelled")

type allocateOptions struct {
	coursesPath     string
	lecturersPath   string
	roomsPath       string
	unavailablePath string
	outDir          string
	format          string
	layout          string
	delimiter       string
	programID       string
	programName     string
	studentCount    int
	settings        scheduler.Settings
}

var allocateOpts = allocateOptions{settings: scheduler.DefaultSettings()}

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Allocate courses from CSV inputs and write the timetable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log := newLogger()
		defer log.Sync() //nolint:errcheck
		return runAllocate(ctx, allocateOpts, cmd.OutOrStdout(), log)
	},
}

func init() {
	f := allocateCmd.Flags()
	f.StringVar(&allocateOpts.coursesPath, "courses", "", "courses CSV file")
	f.StringVar(&allocateOpts.lecturersPath, "lecturers", "", "lecturers CSV file")
	f.StringVar(&allocateOpts.roomsPath, "rooms", "", "rooms CSV file")
	f.StringVar(&allocateOpts.unavailablePath, "unavailable", "", "lecturer unavailability CSV file")
	f.StringVar(&allocateOpts.outDir, "out", "./out", "output directory")
	f.StringVar(&allocateOpts.format, "format", "csv", "timetable format: csv or pdf")
	f.StringVar(&allocateOpts.layout, "layout", "list", "timetable layout: list or grid")
	f.StringVar(&allocateOpts.delimiter, "delimiter", ",", "input field delimiter")
	f.StringVar(&allocateOpts.programID, "program", "", "program id stamped on entries")
	f.StringVar(&allocateOpts.programName, "program-name", "", "program name used in report titles")
	f.IntVar(&allocateOpts.studentCount, "students", 0, "program student count")

	s := &allocateOpts.settings
	f.BoolVar(&s.PrioritizeRoomSize, "prioritize-room-size", s.PrioritizeRoomSize, "prefer the smallest room that fits")
	f.BoolVar(&s.AvoidBackToBack, "avoid-back-to-back", s.AvoidBackToBack, "keep a free hour around each lecturer session")
	f.BoolVar(&s.BalanceLecturerLoad, "balance-load", s.BalanceLecturerLoad, "assign the least loaded lecturer")
	f.IntVar(&s.MaxDailyHours, "max-daily-hours", s.MaxDailyHours, "lecturer daily hour cap")
	f.IntVar(&s.PreferredStartTime, "start-hour", s.PreferredStartTime, "first teaching hour")
	f.IntVar(&s.PreferredEndTime, "end-hour", s.PreferredEndTime, "hour teaching ends")
	f.BoolVar(&s.AllowWeekends, "allow-weekends", s.AllowWeekends, "schedule on Saturday and Sunday")
	f.BoolVar(&s.SpreadCoursesAcrossDays, "spread", s.SpreadCoursesAcrossDays, "cap sessions of a course per day")
	f.IntVar(&s.MaxSessionsPerDay, "max-sessions-per-day", s.MaxSessionsPerDay, "per-course daily cap when spreading")
	f.BoolVar(&s.RespectCreditHours, "respect-credit-hours", s.RespectCreditHours, "derive session count from credit hours")
	f.BoolVar(&s.ConsiderRoomCapacity, "consider-room-capacity", s.ConsiderRoomCapacity, "skip rooms smaller than the program student count (--students)")

	for _, name := range []string{"courses", "lecturers", "rooms"} {
		_ = allocateCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(allocateCmd)
}

func runAllocate(ctx context.Context, opts allocateOptions, stdout io.Writer, log *zap.Logger) error {
	format := strings.ToLower(opts.format)
	if format != "csv" && format != "pdf" {
		return fmt.Errorf("unsupported format %q", opts.format)
	}
	layout := strings.ToLower(opts.layout)
	if layout != "list" && layout != "grid" {
		return fmt.Errorf("unsupported layout %q", opts.layout)
	}
	if err := opts.settings.CheckWindow(); err != nil {
		return fmt.Errorf("--start-hour/--end-hour: %w", err)
	}

	input, err := loadInput(opts)
	if err != nil {
		return err
	}
	store, err := storage.NewLocalStorage(opts.outDir)
	if err != nil {
		return err
	}

	log.Info("allocation started",
		zap.Int("courses", len(input.Courses)),
		zap.Int("lecturers", len(input.Lecturers)),
		zap.Int("rooms", len(input.Rooms)),
	)
	started := time.Now()
	result := scheduler.Allocate(ctx, input, scheduler.WithProgress(func(done, total int) {
		log.Debug("allocation progress", zap.Int("done", done), zap.Int("total", total))
	}))
	summary := scheduler.Summarize(result, input.Lecturers)
	log.Info("allocation finished",
		zap.String("status", string(result.Status)),
		zap.Int("sessions", len(result.Entries)),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Duration("took", time.Since(started)),
	)

	body, err := renderTimetable(input, result.Entries, format, layout, opts.programName)
	if err != nil {
		return err
	}
	timetablePath, err := store.Save("timetable."+format, body)
	if err != nil {
		return err
	}

	var conflicts bytes.Buffer
	if err := csvinput.WriteConflicts(&conflicts, result.Conflicts); err != nil {
		return err
	}
	conflictsPath, err := store.Save("conflicts.csv", conflicts.Bytes())
	if err != nil {
		return err
	}
	log.Info("outputs written", zap.String("timetable", timetablePath), zap.String("conflicts", conflictsPath))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if result.Status == scheduler.StatusCancelled {
		return errCancelled
	}
	return nil
}

func loadInput(opts allocateOptions) (scheduler.Input, error) {
	delim := ','
	if opts.delimiter != "" {
		delim = []rune(opts.delimiter)[0]
	}
	loader := csvinput.NewLoader(delim)

	courses, err := csvinput.Open(opts.coursesPath, loader.Courses)
	if err != nil {
		return scheduler.Input{}, err
	}
	lecturers, err := csvinput.Open(opts.lecturersPath, loader.Lecturers)
	if err != nil {
		return scheduler.Input{}, err
	}
	rooms, err := csvinput.Open(opts.roomsPath, loader.Rooms)
	if err != nil {
		return scheduler.Input{}, err
	}
	if opts.unavailablePath != "" {
		_, err := csvinput.Open(opts.unavailablePath, func(r io.Reader) (struct{}, error) {
			return struct{}{}, loader.ApplyUnavailability(r, lecturers)
		})
		if err != nil {
			return scheduler.Input{}, err
		}
	}

	return scheduler.Input{
		Program:   scheduler.Program{ID: opts.programID, Name: opts.programName, StudentCount: opts.studentCount},
		Courses:   courses,
		Lecturers: lecturers,
		Rooms:     rooms,
		Settings:  opts.settings,
	}, nil
}

func renderTimetable(input scheduler.Input, entries []scheduler.ScheduleEntry, format, layout, programName string) ([]byte, error) {
	rows := timetableRows(input, entries)
	var data export.Dataset
	if layout == "grid" {
		days := []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"}
		if input.Settings.AllowWeekends {
			days = append(days, "SATURDAY", "SUNDAY")
		}
		data = export.GridDataset(rows, days)
	} else {
		data = export.TimetableDataset(rows)
	}

	if format == "pdf" {
		title := "Weekly Timetable"
		if programName != "" {
			title += " - " + programName
		}
		pdf := export.NewPDFExporter()
		if layout == "grid" {
			pdf = pdf.Landscape()
		}
		return pdf.Render(data, title)
	}
	return export.NewCSVExporter().Render(data)
}

func timetableRows(input scheduler.Input, entries []scheduler.ScheduleEntry) []export.TimetableRow {
	courses := make(map[string]string, len(input.Courses))
	for _, c := range input.Courses {
		courses[c.ID] = c.Name
	}
	lecturers := make(map[string]string, len(input.Lecturers))
	for _, l := range input.Lecturers {
		lecturers[l.ID] = l.Name
	}
	rooms := make(map[string]string, len(input.Rooms))
	for _, r := range input.Rooms {
		rooms[r.ID] = r.Name
	}

	rows := make([]export.TimetableRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, export.TimetableRow{
			Day:      e.Day.String(),
			DayOrder: int(e.Day),
			Start:    e.StartTime,
			End:      e.EndTime,
			Course:   courses[e.CourseID],
			Lecturer: lecturers[e.LecturerID],
			Room:     rooms[e.RoomID],
			Year:     e.Year,
			Semester: e.Semester,
		})
	}
	return rows
}
