package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cofc/campushunt/internal/migrations"
)

// DocStore keeps every collection in one JSONB table keyed by
// (collection, id).
type DocStore struct {
	db     *sql.DB
	broker *broker

	// notifyMu orders snapshot publication so a slower, older snapshot
	// never lands after a newer one.
	notifyMu sync.Mutex
}

// New applies pending schema migrations and returns a store backed by db.
func New(ctx context.Context, db *sql.DB) (*DocStore, error) {
	if err := migrations.Run(ctx, db); err != nil {
		return nil, err
	}
	return &DocStore{db: db, broker: newBroker()}, nil
}

// Check pings the underlying database.
func (s *DocStore) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func (s *DocStore) Get(ctx context.Context, collection, id string, dest any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DocStore) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	var sb strings.Builder
	args := []any{collection}
	sb.WriteString(`SELECT id, json(data), created_at FROM documents WHERE collection = ?`)

	if q.Where != "" {
		path, err := fieldPath(q.Where)
		if err != nil {
			return nil, err
		}
		sb.WriteString(` AND json_extract(data, ?) = ?`)
		args = append(args, path, sqlValue(q.Equals))
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	if q.OrderBy != "" {
		path, err := fieldPath(q.OrderBy)
		if err != nil {
			return nil, err
		}
		expr := `json_extract(data, ?)`
		if q.ByLength {
			expr = `json_array_length(data, ?)`
		}
		sb.WriteString(` ORDER BY ` + expr + ` ` + dir + `, rowid`)
		args = append(args, path)
	} else {
		sb.WriteString(` ORDER BY rowid ` + dir)
	}

	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			d    Document
			data string
		)
		if err := rows.Scan(&d.ID, &data, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", collection, err)
		}
		d.Data = json.RawMessage(data)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	return docs, nil
}

// sqlValue maps filter values onto what json_extract yields.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// Create stores doc under a fresh ID and returns that ID.
func (s *DocStore) Create(ctx context.Context, collection string, doc any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// Set writes doc under id, replacing any existing document.
func (s *DocStore) Set(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at) VALUES (?, ?, jsonb(?), ?)
		 ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data`,
		collection, id, string(data), nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}
	s.notify(ctx, collection)
	return nil
}

// SetIfAbsent writes doc under id only when no document exists there yet.
// It reports whether the write happened.
func (s *DocStore) SetIfAbsent(ctx context.Context, collection, id string, doc any) (bool, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at) VALUES (?, ?, jsonb(?), ?)
		 ON CONFLICT(collection, id) DO NOTHING`,
		collection, id, string(data), nowUTC(),
	)
	if err != nil {
		return false, fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking write of %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return false, nil
	}
	s.notify(ctx, collection)
	return true, nil
}

// Update merges the top-level fields of partial into an existing document.
func (s *DocStore) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	return s.modify(ctx, collection, id, func(doc map[string]any) (bool, error) {
		maps.Copy(doc, partial)
		return true, nil
	})
}

// ArrayUnion appends value to the array field unless an equal element is
// already present. A missing field is treated as an empty array.
func (s *DocStore) ArrayUnion(ctx context.Context, collection, id, field string, value any) error {
	if _, err := fieldPath(field); err != nil {
		return err
	}
	want, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}

	return s.modify(ctx, collection, id, func(doc map[string]any) (bool, error) {
		var arr []any
		switch cur := doc[field].(type) {
		case nil:
		case []any:
			arr = cur
		default:
			return false, fmt.Errorf("field %q of %s/%s is not an array", field, collection, id)
		}
		for _, el := range arr {
			got, err := json.Marshal(el)
			if err != nil {
				return false, err
			}
			if bytes.Equal(got, want) {
				return false, nil
			}
		}
		doc[field] = append(arr, json.RawMessage(want))
		return true, nil
	})
}

// modify loads a document, applies fn, and saves it in a transaction when
// fn reports a change.
func (s *DocStore) modify(ctx context.Context, collection, id string, fn func(map[string]any) (bool, error)) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}

	doc := map[string]any{}
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}

	changed, err := fn(doc)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = jsonb(?) WHERE collection = ? AND id = ?`,
		string(out), collection, id,
	); err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s/%s: %w", collection, id, err)
	}

	s.notify(ctx, collection)
	return nil
}

func (s *DocStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete of %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.notify(ctx, collection)
	return nil
}

// Subscribe opens a live feed of full snapshots of collection. The current
// content is delivered first, then one snapshot after every committed
// write. Only the newest undelivered snapshot is kept. The subscription ends
// when ctx is done or Close is called.
func (s *DocStore) Subscribe(ctx context.Context, collection string) *Subscription {
	sub := s.broker.subscribe(collection)

	s.notifyMu.Lock()
	docs, err := s.List(ctx, collection, Query{})
	s.broker.publishTo(sub, Snapshot{Collection: collection, Docs: docs, Err: err})
	s.notifyMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub
}

func (s *DocStore) notify(ctx context.Context, collection string) {
	if !s.broker.hasSubscribers(collection) {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	// The write has committed; publish even if the writer's ctx is ending.
	docs, err := s.List(context.WithoutCancel(ctx), collection, Query{})
	s.broker.publish(Snapshot{Collection: collection, Docs: docs, Err: err})
}
