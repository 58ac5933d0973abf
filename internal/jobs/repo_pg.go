package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Insert(ctx context.Context, job Job) error {
	skillsJSON, err := json.Marshal(job.RequiredSkills)
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	const query = `
INSERT INTO jobs (id, title, company, location, job_type, salary, description, required_skills, visa_sponsorship, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  company = EXCLUDED.company,
  location = EXCLUDED.location,
  job_type = EXCLUDED.job_type,
  salary = EXCLUDED.salary,
  description = EXCLUDED.description,
  required_skills = EXCLUDED.required_skills,
  visa_sponsorship = EXCLUDED.visa_sponsorship`
	_, err = r.DB.ExecContext(ctx, query,
		job.ID,
		job.Title,
		job.Company,
		job.Location,
		job.JobType,
		nullableString(job.Salary),
		job.Description,
		skillsJSON,
		job.VisaSponsorship,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	const query = `
SELECT id, title, company, location, job_type, salary, description, required_skills, visa_sponsorship, created_at
FROM jobs
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, jobID)
	job, err := scanJob(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

func (r *PGRepo) List(ctx context.Context, limit int) ([]Job, error) {
	const query = `
SELECT id, title, company, location, job_type, salary, description, required_skills, visa_sponsorship, created_at
FROM jobs
ORDER BY created_at DESC
LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *PGRepo) SetEmbedding(ctx context.Context, jobID string, embedding []float32) error {
	const query = `UPDATE jobs SET embedding = $2 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, jobID, pgvector.NewVector(embedding))
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

// RankByEmbedding scores the given jobs by cosine similarity against the
// query vector. Jobs without an embedding are left out.
func (r *PGRepo) RankByEmbedding(ctx context.Context, embedding []float32, jobIDs []string, limit int) ([]Similarity, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}
	idsJSON, err := json.Marshal(jobIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal job ids: %w", err)
	}
	const query = `
SELECT id, 1 - (embedding <=> $1) AS score
FROM jobs
WHERE embedding IS NOT NULL
  AND id IN (SELECT jsonb_array_elements_text($2::jsonb))
ORDER BY embedding <=> $1
LIMIT $3`
	rows, err := r.DB.QueryContext(ctx, query, pgvector.NewVector(embedding), idsJSON, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Similarity
	for rows.Next() {
		var s Similarity
		if err := rows.Scan(&s.JobID, &s.Score); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanJob(scan func(dest ...any) error) (Job, error) {
	var job Job
	var salary sql.NullString
	var skillsJSON []byte
	if err := scan(
		&job.ID,
		&job.Title,
		&job.Company,
		&job.Location,
		&job.JobType,
		&salary,
		&job.Description,
		&skillsJSON,
		&job.VisaSponsorship,
		&job.CreatedAt,
	); err != nil {
		return Job{}, err
	}
	if salary.Valid {
		job.Salary = salary.String
	}
	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &job.RequiredSkills); err != nil {
			return Job{}, fmt.Errorf("unmarshal skills: %w", err)
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
