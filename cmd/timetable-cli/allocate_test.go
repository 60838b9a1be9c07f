package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/scheduler"
)

func writeInputs(t *testing.T) allocateOptions {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}
	return allocateOptions{
		coursesPath:     write("courses.csv", "id,program_id,name,credit_hours,year,semester,lecturer_id,expected_students\nc1,p1,Algorithms,3,1,1,l1,40\nc2,p1,Databases,3,1,1,l1,40\n"),
		lecturersPath:   write("lecturers.csv", "id,name,max_daily_hours\nl1,Ana,4\n"),
		roomsPath:       write("rooms.csv", "id,name,capacity\nr1,Hall,60\n"),
		unavailablePath: write("unavailable.csv", "lecturer_id,day,hour\nl1,MONDAY,8\n"),
		outDir:          filepath.Join(dir, "out"),
		format:          "csv",
		layout:          "list",
		delimiter:       ",",
		programID:       "p1",
		settings:        scheduler.DefaultSettings(),
	}
}

func TestRunAllocateWritesOutputs(t *testing.T) {
	opts := writeInputs(t)
	var stdout bytes.Buffer

	require.NoError(t, runAllocate(context.Background(), opts, &stdout, zap.NewNop()))

	timetable, err := os.ReadFile(filepath.Join(opts.outDir, "timetable.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(timetable)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Day,Start,End,Course,Lecturer,Room,Year,Semester", lines[0])
	assert.NotContains(t, string(timetable), "MONDAY,08:00")

	conflicts, err := os.ReadFile(filepath.Join(opts.outDir, "conflicts.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(conflicts), "kind,course_id,lecturer_id,session,dimension,message"))

	var summary scheduler.Summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, 2, summary.Courses)
	assert.Equal(t, 4, summary.SessionsScheduled)
}

func TestRunAllocatePDFGrid(t *testing.T) {
	opts := writeInputs(t)
	opts.format = "pdf"
	opts.layout = "grid"

	require.NoError(t, runAllocate(context.Background(), opts, &bytes.Buffer{}, zap.NewNop()))
	body, err := os.ReadFile(filepath.Join(opts.outDir, "timetable.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestRunAllocateRejectsBadOptions(t *testing.T) {
	opts := writeInputs(t)
	opts.format = "xlsx"
	assert.Error(t, runAllocate(context.Background(), opts, &bytes.Buffer{}, zap.NewNop()))

	opts = writeInputs(t)
	opts.roomsPath = filepath.Join(t.TempDir(), "missing.csv")
	assert.Error(t, runAllocate(context.Background(), opts, &bytes.Buffer{}, zap.NewNop()))

	opts = writeInputs(t)
	opts.settings.PreferredStartTime = 20
	err := runAllocate(context.Background(), opts, &bytes.Buffer{}, zap.NewNop())
	assert.ErrorIs(t, err, scheduler.ErrEmptyWindow)
	_, statErr := os.Stat(filepath.Join(opts.outDir, "timetable.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunAllocateCancelled(t *testing.T) {
	opts := writeInputs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runAllocate(ctx, opts, &bytes.Buffer{}, zap.NewNop())
	assert.ErrorIs(t, err, errCancelled)
	_, statErr := os.Stat(filepath.Join(opts.outDir, "conflicts.csv"))
	assert.NoError(t, statErr)
}
