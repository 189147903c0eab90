package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// KV is a string key-value store. It plays the role browser localStorage
// plays for the web version: every component persists through it.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// sqlKV implements KV on the kv_entries table.
type sqlKV struct {
	db  *sql.DB
	now func() time.Time
}

func (s *sqlKV) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (s *sqlKV) Get(ctx context.Context, key string) (string, bool, error) {
	query, args := s.builder().
		Select(KvEntriesColumns[1].Name).
		From(entsql.Table(KvEntriesTable.Name)).
		Where(entsql.EQ(KvEntriesColumns[0].Name, key)).
		Query()

	var value string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *sqlKV) Set(ctx context.Context, key, value string) error {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	query, args := s.builder().
		Insert(KvEntriesTable.Name).
		Columns(KvEntriesColumns[0].Name, KvEntriesColumns[1].Name, KvEntriesColumns[2].Name).
		Values(key, value, now().UTC()).
		OnConflict(
			entsql.ConflictColumns(KvEntriesColumns[0].Name),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *sqlKV) Delete(ctx context.Context, key string) error {
	query, args := s.builder().
		Delete(KvEntriesTable.Name).
		Where(entsql.EQ(KvEntriesColumns[0].Name, key)).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *sqlKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	sel := s.builder().
		Select(KvEntriesColumns[0].Name).
		From(entsql.Table(KvEntriesTable.Name)).
		OrderBy(KvEntriesColumns[0].Name)
	if prefix != "" {
		sel = sel.Where(entsql.HasPrefix(KvEntriesColumns[0].Name, prefix))
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		// LIKE treats '_' as a wildcard, so confirm the literal prefix.
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, rows.Err()
}
