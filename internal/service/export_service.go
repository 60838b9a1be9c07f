package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/export"
)

const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportLayoutList = "list"
	ExportLayoutGrid = "grid"
)

type timetableEntryReader interface {
	ListEntries(ctx context.Context, programID string) ([]models.TimetableEntryView, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	PDFTitle string
}

// ExportResult is a rendered timetable ready to be sent as an attachment.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders persisted timetables as CSV or PDF.
type ExportService struct {
	entries   timetableEntryReader
	programs  programLookup
	csv       csvRenderer
	pdf       pdfRenderer
	gridPDF   pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(entries timetableEntryReader, programs programLookup, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PDFTitle == "" {
		cfg.PDFTitle = "Weekly Timetable"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	gridPDF := pdf
	if pdf == nil {
		base := export.NewPDFExporter()
		pdf = base
		gridPDF = base.Landscape()
	}
	return &ExportService{
		entries:   entries,
		programs:  programs,
		csv:       csv,
		pdf:       pdf,
		gridPDF:   gridPDF,
		validator: validator.New(),
		logger:    logger,
		cfg:       cfg,
	}
}

// ExportTimetable renders a program's persisted timetable.
func (s *ExportService) ExportTimetable(ctx context.Context, programID string, query dto.TimetableExportQuery) (*ExportResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, "unsupported export format or layout")
	}
	format := strings.ToLower(query.Format)
	if format == "" {
		format = ExportFormatCSV
	}
	layout := strings.ToLower(query.Layout)
	if layout == "" {
		layout = ExportLayoutList
	}

	program, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		return nil, notFoundOrInternal(err, "program not found", "failed to load program")
	}
	views, err := s.entries.ListEntries(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	rows := TimetableRows(views)
	var dataset export.Dataset
	if layout == ExportLayoutGrid {
		dataset = export.GridDataset(rows, gridDays(rows))
	} else {
		dataset = export.TimetableDataset(rows)
	}

	result := &ExportResult{Filename: buildFilename(program.Code, layout, format)}
	switch format {
	case ExportFormatCSV:
		result.ContentType = "text/csv"
		result.Body, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		result.ContentType = "application/pdf"
		title := fmt.Sprintf("%s - %s", s.cfg.PDFTitle, program.Name)
		if layout == ExportLayoutGrid {
			result.Body, err = s.gridPDF.Render(dataset, title)
		} else {
			result.Body, err = s.pdf.Render(dataset, title)
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported format %s", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	s.logger.Debug("timetable exported",
		zap.String("program_id", programID),
		zap.String("format", format),
		zap.String("layout", layout),
		zap.Int("entries", len(views)),
	)
	return result, nil
}

// TimetableRows converts persisted entries into export rows.
func TimetableRows(views []models.TimetableEntryView) []export.TimetableRow {
	rows := make([]export.TimetableRow, 0, len(views))
	for _, view := range views {
		rows = append(rows, export.TimetableRow{
			Day:      scheduler.Day(view.DayOfWeek).String(),
			DayOrder: view.DayOfWeek,
			Start:    view.StartTime,
			End:      view.EndTime,
			Course:   view.CourseName,
			Lecturer: view.LecturerName,
			Room:     view.RoomName,
			Year:     view.Year,
			Semester: view.Semester,
		})
	}
	return rows
}

// gridDays lists Monday to Friday plus any weekend day that has sessions.
func gridDays(rows []export.TimetableRow) []string {
	weekend := map[scheduler.Day]bool{}
	for _, row := range rows {
		day := scheduler.Day(row.DayOrder)
		if day == scheduler.Saturday || day == scheduler.Sunday {
			weekend[day] = true
		}
	}
	days := make([]string, 0, 7)
	for day := scheduler.Monday; day <= scheduler.Sunday; day++ {
		if day >= scheduler.Saturday && !weekend[day] {
			continue
		}
		days = append(days, day.String())
	}
	return days
}

func buildFilename(programCode, layout, format string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("timetable_%s_%s_%s.%s", sanitizeFilename(programCode), layout, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
