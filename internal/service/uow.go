// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service implements the taxonomy consistency rules and the post
// lifecycle on top of the stores. Every exported operation runs inside
// exactly one unit of work: all of its writes commit together or none do.
package service

import (
	"context"
	"log/slog"

	"metapress/internal/errors"
	"metapress/internal/models"
	"metapress/internal/store"
)

// NodeStore is the taxonomy table as seen by the services.
type NodeStore interface {
	Exists(ctx context.Context, kind models.Kind, id int64) (bool, error)
	NameExists(ctx context.Context, kind models.Kind, name string, excludeID int64) (bool, error)
	SlugExists(ctx context.Context, kind models.Kind, slug string, excludeID int64) (bool, error)
	MaxOrder(ctx context.Context, kind models.Kind, parent int64) (int, error)
	Insert(ctx context.Context, n *models.Node) (int64, error)
	Update(ctx context.Context, n *models.Node) error
	Delete(ctx context.Context, kind models.Kind, id int64) error
	Get(ctx context.Context, kind models.Kind, id int64) (*models.Node, error)
	List(ctx context.Context, kind models.Kind) ([]models.Node, error)
	Page(ctx context.Context, kind models.Kind, limit, offset int) ([]models.Node, error)
	Count(ctx context.Context, kind models.Kind) (int, error)
	Reparent(ctx context.Context, kind models.Kind, from, to int64) (int64, error)
	AdjustCount(ctx context.Context, kind models.Kind, id int64, delta int) error
	RecountTags(ctx context.Context) error
	DeleteUnusedTags(ctx context.Context) ([]int64, error)
}

// LinkStore is the content-to-node relationship table.
type LinkStore interface {
	Link(ctx context.Context, cid, mid int64) error
	Unlink(ctx context.Context, cid, mid int64) error
	ListByContent(ctx context.Context, cid int64) ([]models.Link, error)
	DeleteByNode(ctx context.Context, mid int64) (int64, error)
	DeleteByContent(ctx context.Context, cid int64) error
	NodesForContent(ctx context.Context, cid int64, kind models.Kind) ([]models.Node, error)
}

// ContentStore covers the content rows touched by the post lifecycle.
type ContentStore interface {
	GetPost(ctx context.Context, cid int64) (*models.Content, error)
	GetDeletable(ctx context.Context, cid int64) (*models.Content, error)
	Insert(ctx context.Context, c *models.Content) (int64, error)
	Delete(ctx context.Context, cid int64) error
	ListByType(ctx context.Context, t models.ContentType, limit, offset int) ([]models.Content, error)
	CountByType(ctx context.Context, t models.ContentType) (int, error)
	DeleteComments(ctx context.Context, cid int64) (int64, error)
	DetachAttachments(ctx context.Context, cid int64) (int64, error)
	DeleteFields(ctx context.Context, cid int64) error
	DraftsOf(ctx context.Context, cid int64) ([]int64, error)
}

// UnitOfWork bundles the stores bound to one transaction.
type UnitOfWork struct {
	Nodes    NodeStore
	Links    LinkStore
	Contents ContentStore

	commit   func() error
	rollback func() error
}

// NewUnitOfWork assembles a unit of work from stores sharing one
// transaction and the functions that end it.
func NewUnitOfWork(nodes NodeStore, links LinkStore, contents ContentStore, commit, rollback func() error) *UnitOfWork {
	return &UnitOfWork{Nodes: nodes, Links: links, Contents: contents, commit: commit, rollback: rollback}
}

// Beginner opens units of work.
type Beginner interface {
	Begin(ctx context.Context) (*UnitOfWork, error)
}

// BeginFunc adapts a function to the Beginner interface.
type BeginFunc func(ctx context.Context) (*UnitOfWork, error)

// Begin calls f(ctx).
func (f BeginFunc) Begin(ctx context.Context) (*UnitOfWork, error) {
	return f(ctx)
}

// FromStore returns a Beginner that opens a PostgreSQL transaction per
// unit of work.
func FromStore(db *store.DB) Beginner {
	return BeginFunc(func(ctx context.Context) (*UnitOfWork, error) {
		tx, err := db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		return NewUnitOfWork(tx.Nodes, tx.Links, tx.Contents, tx.Commit, tx.Rollback), nil
	})
}

// run executes fn inside one unit of work. Any error from fn rolls back
// every write fn made; begin and commit failures surface as storage errors.
func run[T any](ctx context.Context, b Beginner, op string, fn func(*UnitOfWork) (T, error)) (T, error) {
	var zero T

	uow, err := b.Begin(ctx)
	if err != nil {
		return zero, storageErr(ctx, op, 0, err)
	}
	defer func() {
		if err := uow.rollback(); err != nil {
			slog.WarnContext(ctx, "rollback failed", "op", op, "error", err)
		}
	}()

	v, err := fn(uow)
	if err != nil {
		return zero, err
	}

	if err := uow.commit(); err != nil {
		return zero, storageErr(ctx, op, 0, err)
	}
	return v, nil
}

// storageErr logs a storage failure and converts it to a domain error.
func storageErr(ctx context.Context, op string, id int64, err error) error {
	slog.ErrorContext(ctx, "storage failure", "op", op, "id", id, "error", err)
	return errors.Storage(op, id, err)
}

// Cache is the optional read-through cache for taxonomy listings. Entries
// are keyed by kind and a variant string; invalidation is per kind.
type Cache interface {
	Get(ctx context.Context, kind models.Kind, variant string, dst any) bool
	Set(ctx context.Context, kind models.Kind, variant string, v any)
	InvalidateKind(ctx context.Context, kind models.Kind)
}

// Page is one page of a listing.
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
}

// MaxPage caps the requested page number so the row offset cannot
// overflow. Pages past the data are simply empty.
const MaxPage = 1_000_000

// pageBounds normalizes page and perPage and returns the row offset.
// Out-of-range values fall back to page 1 and def; perPage is capped at
// limit and page at MaxPage.
func pageBounds(page, perPage, def, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage < 1 {
		perPage = def
	}
	if perPage > limit {
		perPage = limit
	}
	return page, perPage, (page - 1) * perPage
}

func pageCount(total, perPage int) int {
	if total == 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// dedupe returns ids without repeats, keeping first occurrences in order.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
