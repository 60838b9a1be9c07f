package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// ProgramRepository reads programs and their courses.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// FindByID loads a program. sql.ErrNoRows is returned untouched.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	const query = `SELECT id, code, name, student_count, created_at, updated_at FROM programs WHERE id = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find program: %w", err)
	}
	return &program, nil
}

// ListCourses returns the program's courses, optionally narrowed to a cohort.
// Rows come back in a stable order so repeated runs see identical input.
func (r *ProgramRepository) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	conditions := []string{"program_id = $1"}
	args := []interface{}{filter.ProgramID}
	if filter.Year != nil {
		args = append(args, *filter.Year)
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.Semester != nil {
		args = append(args, *filter.Semester)
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)))
	}

	query := `SELECT id, program_id, code, name, credit_hours, year, semester, lecturer_id, expected_students, created_at, updated_at
FROM courses WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY code ASC, id ASC`

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
