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

	"github.com/abhisek/levelup/internal/mastery"
)

const (
	colUserID         = "user_id"
	colLevel          = "level"
	colCorrectAnswers = "correct_answers"
	colCompletedTests = "completed_tests"
	colWeakTopics     = "weak_topics"
	colUpdatedAt      = "updated_at"
)

var progressColumns = []string{
	colUserID, colLevel, colCorrectAnswers, colCompletedTests, colWeakTopics, colUpdatedAt,
}

// progressRepo implements ProgressRepo on SQLite. Statements are built with
// ent's SQL builder.
type progressRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *progressRepo) Upsert(ctx context.Context, upd ProgressUpdate) (*UserProgress, error) {
	answers, err := json.Marshal(encodeAnswers(upd.Answers))
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	topics, err := json.Marshal(normalizeTopics(upd.WeakTopics))
	if err != nil {
		return nil, fmt.Errorf("marshal weak topics: %w", err)
	}

	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Insert(UserProgressTable.Name).
		Columns(progressColumns...).
		Values(upd.UserID, string(upd.Level), string(answers), 1, string(topics), r.clock().Unix()).
		OnConflict(
			entsql.ConflictColumns(colUserID),
			entsql.ResolveWith(func(s *entsql.UpdateSet) {
				s.SetExcluded(colLevel)
				s.SetExcluded(colCorrectAnswers)
				s.SetExcluded(colWeakTopics)
				s.SetExcluded(colUpdatedAt)
				s.Add(colCompletedTests, 1)
			}),
		).
		Query()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}
	p, err := r.get(ctx, tx, upd.UserID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return p, nil
}

func (r *progressRepo) Get(ctx context.Context, userID int64) (*UserProgress, error) {
	return r.get(ctx, r.db, userID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *progressRepo) get(ctx context.Context, q queryRower, userID int64) (*UserProgress, error) {
	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Select(progressColumns...).
		From(b.Table(UserProgressTable.Name)).
		Where(entsql.EQ(colUserID, userID)).
		Limit(1).
		Query()

	var (
		p              UserProgress
		level          string
		answers        []byte
		topics         []byte
		completedTests sql.NullInt64
		updatedAt      sql.NullInt64
	)
	err := q.QueryRowContext(ctx, query, args...).
		Scan(&p.UserID, &level, &answers, &completedTests, &topics, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query progress: %w", err)
	}

	p.Level = mastery.Level(level)
	p.CompletedTests = int(completedTests.Int64)
	if updatedAt.Valid && updatedAt.Int64 > 0 {
		p.UpdatedAt = time.Unix(updatedAt.Int64, 0).UTC()
	}

	var stored map[string]bool
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &stored); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	p.CorrectAnswers = decodeAnswers(stored)

	p.WeakTopics = []string{}
	if len(topics) > 0 {
		if err := json.Unmarshal(topics, &p.WeakTopics); err != nil {
			return nil, fmt.Errorf("unmarshal weak topics: %w", err)
		}
	}
	return &p, nil
}

func (r *progressRepo) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}
