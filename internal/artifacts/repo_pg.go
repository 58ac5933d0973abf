package artifacts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Insert(ctx context.Context, artifact Artifact) error {
	packJSON, err := json.Marshal(artifact.Pack)
	if err != nil {
		return fmt.Errorf("marshal pack: %w", err)
	}
	const query = `
INSERT INTO artifacts (id, user_id, pack, created_at)
VALUES ($1, $2, $3, now())`
	_, err = r.DB.ExecContext(ctx, query, artifact.ID, artifact.UserID, packJSON)
	return err
}

func (r *PGRepo) Latest(ctx context.Context, userID string) (Artifact, error) {
	const query = `
SELECT id, user_id, pack, created_at
FROM artifacts
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, userID)
	artifact, err := scanArtifact(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, ErrNotFound
		}
		return Artifact{}, err
	}
	return artifact, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Artifact, error) {
	const query = `
SELECT id, user_id, pack, created_at
FROM artifacts
WHERE user_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, artifact)
	}
	return out, rows.Err()
}

func scanArtifact(scan func(dest ...any) error) (Artifact, error) {
	var artifact Artifact
	var packJSON []byte
	if err := scan(&artifact.ID, &artifact.UserID, &packJSON, &artifact.CreatedAt); err != nil {
		return Artifact{}, err
	}
	if err := json.Unmarshal(packJSON, &artifact.Pack); err != nil {
		return Artifact{}, fmt.Errorf("unmarshal pack: %w", err)
	}
	return artifact, nil
}
