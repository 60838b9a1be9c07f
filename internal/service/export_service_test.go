package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/export"
)

type entryReaderStub struct {
	views []models.TimetableEntryView
}

func (s entryReaderStub) ListEntries(ctx context.Context, programID string) ([]models.TimetableEntryView, error) {
	return s.views, nil
}

type pdfRecorder struct {
	title string
	data  export.Dataset
}

func (p *pdfRecorder) Render(data export.Dataset, title string) ([]byte, error) {
	p.title = title
	p.data = data
	return []byte("%PDF-stub"), nil
}

func sampleViews() []models.TimetableEntryView {
	return []models.TimetableEntryView{
		{TimetableEntry: models.TimetableEntry{DayOfWeek: 3, StartTime: "10:00", EndTime: "11:00", Year: 1, Semester: 1}, CourseName: "Databases", LecturerName: "Budi", RoomName: "Lab"},
		{TimetableEntry: models.TimetableEntry{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00", Year: 1, Semester: 1}, CourseName: "Algorithms", LecturerName: "Ana", RoomName: "Hall"},
	}
}

func newExportFixture(pdf pdfRenderer) *ExportService {
	programs := &programRepoStub{program: &models.Program{ID: "p1", Code: "CS 2024", Name: "Computer Science"}}
	return NewExportService(entryReaderStub{views: sampleViews()}, programs, ExportConfig{}, zap.NewNop(), nil, pdf)
}

func TestExportServiceCSVList(t *testing.T) {
	svc := newExportFixture(nil)

	result, err := svc.ExportTimetable(context.Background(), "p1", dto.TimetableExportQuery{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "timetable_CS_2024_list_"))
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(result.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,End,Course,Lecturer,Room,Year,Semester", lines[0])
	assert.Equal(t, "MONDAY,08:00,09:00,Algorithms,Ana,Hall,1,1", lines[1])
	assert.Equal(t, "WEDNESDAY,10:00,11:00,Databases,Budi,Lab,1,1", lines[2])
}

func TestExportServicePDFGrid(t *testing.T) {
	recorder := &pdfRecorder{}
	svc := newExportFixture(recorder)

	result, err := svc.ExportTimetable(context.Background(), "p1", dto.TimetableExportQuery{Format: "pdf", Layout: "grid"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Body, []byte("%PDF")))
	assert.Equal(t, "Weekly Timetable - Computer Science", recorder.title)
	assert.Equal(t, []string{"Time", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"}, recorder.data.Headers)
	require.Len(t, recorder.data.Rows, 2)
	assert.Equal(t, "Algorithms (Hall)", recorder.data.Rows[0]["MONDAY"])
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportFixture(nil)

	_, err := svc.ExportTimetable(context.Background(), "p1", dto.TimetableExportQuery{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedFormat.Code, appErrors.FromError(err).Code)

	_, err = svc.ExportTimetable(context.Background(), "missing", dto.TimetableExportQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGridDaysIncludesUsedWeekendDays(t *testing.T) {
	rows := []export.TimetableRow{{DayOrder: 6}}
	assert.Equal(t, []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}, gridDays(rows))
}
