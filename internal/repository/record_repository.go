package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edanalytica/gradelens-backend/internal/dataset"
)

// RecordRepository reads and writes the grade warehouse. It doubles as the
// warehouse dataset.Source: rows come back in insertion order (by id) so the
// rollup's first-seen semantics match the original spreadsheet order.
type RecordRepository struct {
	db *pgxpool.Pool
}

// NewRecordRepository creates a RecordRepository backed by the given pool.
func NewRecordRepository(db *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{db: db}
}

// Describe identifies the source for logs and dataset metadata.
func (r *RecordRepository) Describe() string { return "warehouse:grade_records" }

// Rows loads every grade record, ordered by id. Only raw columns are stored;
// derived fields are computed downstream at build time.
func (r *RecordRepository) Rows(ctx context.Context) ([]dataset.Row, error) {
	const query = `
		SELECT student_id, registration_year, birth_year, gender, origin,
		       department, COALESCE(major_type, ''), major, semester, credits, grade
		FROM grade_records
		ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query grade records: %w", err)
	}
	defer rows.Close()

	var out []dataset.Row
	for rows.Next() {
		var row dataset.Row
		if err := rows.Scan(
			&row.StudentID,
			&row.RegistrationYear,
			&row.BirthYear,
			&row.Gender,
			&row.Origin,
			&row.Department,
			&row.MajorType,
			&row.Major,
			&row.Semester,
			&row.Credits,
			&row.Grade,
		); err != nil {
			return nil, fmt.Errorf("scan grade record: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grade records: %w", err)
	}
	return out, nil
}

// CopyRows bulk-inserts raw rows with COPY. Missing grades are stored as
// NULL so the load pipeline can count them as dropped later.
func (r *RecordRepository) CopyRows(ctx context.Context, rows []dataset.Row) (int64, error) {
	columns := []string{
		"student_id", "registration_year", "birth_year", "gender", "origin",
		"department", "major_type", "major", "semester", "credits", "grade",
	}
	copied, err := r.db.CopyFrom(
		ctx,
		pgx.Identifier{"grade_records"},
		columns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			row := rows[i]
			var majorType any
			if row.MajorType != "" {
				majorType = row.MajorType
			}
			var grade any
			if row.Grade != nil {
				grade = *row.Grade
			}
			return []any{
				row.StudentID,
				row.RegistrationYear,
				row.BirthYear,
				row.Gender,
				row.Origin,
				row.Department,
				majorType,
				row.Major,
				row.Semester,
				row.Credits,
				grade,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy grade records: %w", err)
	}
	return copied, nil
}

// Truncate removes every grade record, typically before a full re-ingest.
func (r *RecordRepository) Truncate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `TRUNCATE grade_records RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate grade records: %w", err)
	}
	return nil
}

// Count returns the number of stored grade records.
func (r *RecordRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM grade_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count grade records: %w", err)
	}
	return n, nil
}
