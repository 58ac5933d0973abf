package applyqueue

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Insert(ctx context.Context, item Item) error {
	const query = `
INSERT INTO queue_items (id, user_id, job_id, job_title, company, match_score, status, cover_letter, error_message, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		item.ID,
		item.UserID,
		item.JobID,
		item.JobTitle,
		item.Company,
		item.MatchScore,
		item.Status,
		nullableString(item.CoverLetter),
		nullableString(item.ErrorMessage),
	)
	if err != nil && strings.Contains(err.Error(), "idx_queue_items_user_job") {
		return ErrDuplicate
	}
	return err
}

func (r *PGRepo) FindOne(ctx context.Context, userID, jobID string) (Item, error) {
	const query = selectColumns + `
WHERE user_id = $1 AND job_id = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID, jobID))
}

func (r *PGRepo) GetByID(ctx context.Context, userID, itemID string) (Item, error) {
	const query = selectColumns + `
WHERE user_id = $1 AND id = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID, itemID))
}

func (r *PGRepo) UpdateStatus(ctx context.Context, itemID string, update StatusUpdate) error {
	const query = `
UPDATE queue_items
SET status = $2,
    cover_letter = COALESCE($3, cover_letter),
    error_message = $4,
    updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		itemID,
		update.Status,
		nullableString(update.CoverLetter),
		nullableString(update.ErrorMessage),
	)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Item, error) {
	const query = selectColumns + `
WHERE user_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, userID, itemID string) error {
	const query = `DELETE FROM queue_items WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, itemID)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) DeleteAll(ctx context.Context, userID string) (int, error) {
	const query = `DELETE FROM queue_items WHERE user_id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(rows), nil
}

func (r *PGRepo) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	const query = `
SELECT status, COUNT(*)
FROM queue_items
WHERE user_id = $1
GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

const selectColumns = `
SELECT id, user_id, job_id, job_title, company, match_score, status, cover_letter, error_message, created_at, updated_at
FROM queue_items`

func (r *PGRepo) scanOne(row *sql.Row) (Item, error) {
	item, err := scanItem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func scanItem(scan func(dest ...any) error) (Item, error) {
	var item Item
	var coverLetter sql.NullString
	var errorMessage sql.NullString
	if err := scan(
		&item.ID,
		&item.UserID,
		&item.JobID,
		&item.JobTitle,
		&item.Company,
		&item.MatchScore,
		&item.Status,
		&coverLetter,
		&errorMessage,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return Item{}, err
	}
	if coverLetter.Valid {
		item.CoverLetter = coverLetter.String
	}
	if errorMessage.Valid {
		item.ErrorMessage = errorMessage.String
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
