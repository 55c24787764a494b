// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides PostgreSQL access for the taxonomy engine. Each
// store wraps a query handle (the pool or an open transaction) and exposes
// typed methods; every statement runs under the configured query timeout.
// Stores report storage failures as wrapped errors and never default a
// failed lookup to "absent".
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"metapress/internal/config"
)

const defaultQueryTimeout = 5 * time.Second

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs statements against a handle with a per-statement deadline.
type conn struct {
	q       dbtx
	timeout time.Duration
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.q.ExecContext(ctx, query, args...)
}

// queryRow scans a single row into dest. sql.ErrNoRows is returned as is.
func (c conn) queryRow(ctx context.Context, query string, args []any, dest ...any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.q.QueryRowContext(ctx, query, args...).Scan(dest...)
}

// query calls each for every result row.
func (c conn) query(ctx context.Context, query string, args []any, each func(*sql.Rows) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// DB is the entry point to the stores. It hands out transactions for
// mutating work and pool-backed stores for lookups outside a unit of work.
type DB struct {
	db      *sql.DB
	timeout time.Duration
}

// New wraps a connection pool. The query timeout comes from cfg; a nil
// config or non-positive timeout falls back to five seconds.
func New(db *sql.DB, cfg *config.Config) *DB {
	timeout := defaultQueryTimeout
	if cfg != nil && cfg.DBQueryTimeout > 0 {
		timeout = cfg.DBQueryTimeout
	}
	return &DB{db: db, timeout: timeout}
}

func (d *DB) conn() conn {
	return conn{q: d.db, timeout: d.timeout}
}

// Users returns a pool-backed user store.
func (d *DB) Users() *UserStore {
	return &UserStore{c: d.conn()}
}

// Tx is an open transaction with stores bound to it. Exactly one of Commit
// or Rollback takes effect; Rollback after Commit is a no-op.
type Tx struct {
	tx *sql.Tx

	Nodes    *NodeStore
	Links    *RelationshipStore
	Contents *ContentStore
}

// Begin starts a transaction. The transaction lives as long as ctx, so
// request cancellation rolls it back.
func (d *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	c := conn{q: tx, timeout: d.timeout}
	return &Tx{
		tx:       tx,
		Nodes:    &NodeStore{c: c},
		Links:    &RelationshipStore{c: c},
		Contents: &ContentStore{c: c},
	}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. It is safe to call after Commit.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback tx: %w", err)
	}
	return nil
}
