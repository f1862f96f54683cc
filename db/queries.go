package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/policy"
	"github.com/finnjohnston/enrollment/requirement"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const listSubjects = `SELECT code, name FROM subjects ORDER BY code`
const insertSubject = `INSERT INTO subjects (code, name) VALUES ($1, $2) ON CONFLICT (code) DO UPDATE SET name=EXCLUDED.name WHERE EXCLUDED.name <> ''`

const listCourses = `SELECT code, subject_code, catalog_number, title, credits, level, tags, prerequisites, corequisites, description FROM courses ORDER BY subject_code, catalog_number`
const insertCourse = `INSERT INTO courses (code, subject_code, catalog_number, title, credits, level, tags, prerequisites, corequisites, description) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) ON CONFLICT (code) DO UPDATE SET title=EXCLUDED.title, credits=EXCLUDED.credits, level=EXCLUDED.level, tags=EXCLUDED.tags, prerequisites=EXCLUDED.prerequisites, corequisites=EXCLUDED.corequisites, description=EXCLUDED.description`

const listPrograms = `SELECT definition FROM programs ORDER BY name`
const insertProgram = `INSERT INTO programs (name, definition) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET definition=EXCLUDED.definition`

const listPolicies = `SELECT definition FROM policies ORDER BY position`
const deletePolicies = `DELETE FROM policies`
const insertPolicy = `INSERT INTO policies (position, definition) VALUES ($1, $2)`

func insertCallback(ct pgconn.CommandTag) error {
	return nil
}

func (d *Database) ListSubjects(ctx context.Context) ([]Subject, error) {
	rows, err := d.Pool.Query(ctx, listSubjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var subject Subject
		if err := rows.Scan(&subject.Code, &subject.Name); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subjects, nil
}

func (d *Database) InsertSubjects(ctx context.Context, subjects []Subject) error {
	if len(subjects) == 0 {
		return nil
	}

	batch := pgx.Batch{}
	var queuedQueries []*pgx.QueuedQuery

	for _, subject := range subjects {
		queuedQueries = append(queuedQueries, batch.Queue(insertSubject, subject.Code, subject.Name))
	}

	for _, queuedQuery := range queuedQueries {
		queuedQuery.Exec(insertCallback)
	}

	if err := d.Pool.SendBatch(ctx, &batch).Close(); err != nil {
		return err
	}

	return nil
}

// Records implements catalog.Source.
func (d *Database) Records(ctx context.Context) ([]catalog.Record, error) {
	rows, err := d.Pool.Query(ctx, listCourses)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var records []catalog.Record
	for rows.Next() {
		var row courseRow
		if err := rows.Scan(
			&row.Code,
			&row.SubjectCode,
			&row.CatalogNumber,
			&row.Title,
			&row.Credits,
			&row.Level,
			&row.Tags,
			&row.Prerequisites,
			&row.Corequisites,
			&row.Description,
		); err != nil {
			return nil, err
		}
		record, err := row.record()
		if err != nil {
			return nil, fmt.Errorf("course %s: %w", row.Code, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// InsertCourses upserts records together with the subjects they name. Every
// record is validated before anything is sent.
func (d *Database) InsertCourses(ctx context.Context, records []catalog.Record) error {
	if len(records) == 0 {
		return nil
	}

	subjects, err := SubjectsOf(records)
	if err != nil {
		return err
	}
	rows := make([]courseRow, 0, len(records))
	for _, record := range records {
		row, err := toRow(record)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if err := d.InsertSubjects(ctx, subjects); err != nil {
		return err
	}

	batch := pgx.Batch{}
	var queuedQueries []*pgx.QueuedQuery

	for _, row := range rows {
		queuedQueries = append(
			queuedQueries,
			batch.Queue(
				insertCourse,
				row.Code,
				row.SubjectCode,
				row.CatalogNumber,
				row.Title,
				row.Credits,
				row.Level,
				row.Tags,
				row.Prerequisites,
				row.Corequisites,
				row.Description,
			),
		)
	}

	for _, queuedQuery := range queuedQueries {
		queuedQuery.Exec(insertCallback)
	}

	if err := d.Pool.SendBatch(ctx, &batch).Close(); err != nil {
		return err
	}

	return nil
}

// ProgramSpecs implements requirement.Source.
func (d *Database) ProgramSpecs(ctx context.Context) ([]requirement.ProgramSpec, error) {
	rows, err := d.Pool.Query(ctx, listPrograms)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	var specs []requirement.ProgramSpec
	for rows.Next() {
		var definition []byte
		if err := rows.Scan(&definition); err != nil {
			return nil, err
		}
		var spec requirement.ProgramSpec
		if err := json.Unmarshal(definition, &spec); err != nil {
			return nil, fmt.Errorf("failed to decode program: %w", err)
		}
		specs = append(specs, spec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return specs, nil
}

func (d *Database) InsertPrograms(ctx context.Context, specs []requirement.ProgramSpec) error {
	if len(specs) == 0 {
		return nil
	}

	// Build first so a malformed program never reaches the table.
	if _, err := requirement.BuildPrograms(specs); err != nil {
		return err
	}

	batch := pgx.Batch{}
	var queuedQueries []*pgx.QueuedQuery

	for _, spec := range specs {
		definition, err := json.Marshal(spec)
		if err != nil {
			return err
		}
		queuedQueries = append(queuedQueries, batch.Queue(insertProgram, spec.Name, definition))
	}

	for _, queuedQuery := range queuedQueries {
		queuedQuery.Exec(insertCallback)
	}

	if err := d.Pool.SendBatch(ctx, &batch).Close(); err != nil {
		return err
	}

	return nil
}

// Policies implements policy.Source.
func (d *Database) Policies(ctx context.Context) ([]policy.Policy, error) {
	rows, err := d.Pool.Query(ctx, listPolicies)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []policy.Policy
	for rows.Next() {
		var definition []byte
		if err := rows.Scan(&definition); err != nil {
			return nil, err
		}
		var p policy.Policy
		if err := json.Unmarshal(definition, &p); err != nil {
			return nil, fmt.Errorf("failed to decode policy: %w", err)
		}
		policies = append(policies, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return policies, nil
}

// ReplacePolicies swaps the stored policies for the given list in one
// transaction. Order is kept since policies are checked in sequence.
func (d *Database) ReplacePolicies(ctx context.Context, policies []policy.Policy) error {
	definitions := make([][]byte, len(policies))
	for i, p := range policies {
		definition, err := json.Marshal(p)
		if err != nil {
			return err
		}
		definitions[i] = definition
	}

	return pgx.BeginFunc(ctx, d.Pool, func(tx pgx.Tx) error {
		batch := pgx.Batch{}
		batch.Queue(deletePolicies).Exec(insertCallback)
		for i, definition := range definitions {
			batch.Queue(insertPolicy, i, definition).Exec(insertCallback)
		}
		return tx.SendBatch(ctx, &batch).Close()
	})
}
