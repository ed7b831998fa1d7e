package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/sentrypath/internal/progress"
)

// progressRepo implements ProgressRepo on the user_progress table.
type progressRepo struct {
	db *sql.DB
}

func (r *progressRepo) Get(ctx context.Context, userID string) (*progress.UserProgress, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("data").
		From(entsql.Table(progressTable)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var data string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}

	var p progress.UserProgress
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal progress: %w", err)
	}
	p = p.Normalize()
	return &p, nil
}

func (r *progressRepo) Put(ctx context.Context, userID string, p progress.UserProgress) error {
	b, err := json.Marshal(p.Normalize())
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(progressTable).
		Columns("user_id", "data", "updated_at").
		Values(userID, string(b), time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}
