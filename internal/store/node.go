// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"metapress/internal/models"
)

// NodeStore manages categories and tags in the metas table. Every query is
// scoped by kind, so a category id never resolves as a tag.
type NodeStore struct {
	c conn
}

const nodeColumns = `mid, type, name, slug, description, parent, "order", count`

// scanNode scans a row into a Node struct.
func scanNode(scanner interface{ Scan(...any) error }) (models.Node, error) {
	var n models.Node
	err := scanner.Scan(
		&n.ID, &n.Kind, &n.Name, &n.Slug, &n.Description,
		&n.Parent, &n.Order, &n.Count,
	)
	return n, err
}

// Exists reports whether a node of the given kind has this id.
func (s *NodeStore) Exists(ctx context.Context, kind models.Kind, id int64) (bool, error) {
	var ok bool
	err := s.c.queryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM metas WHERE type = $1 AND mid = $2)`,
		[]any{kind, id}, &ok)
	if err != nil {
		return false, fmt.Errorf("node exists %d: %w", id, err)
	}
	return ok, nil
}

// NameExists reports whether another node of the kind already uses name.
// Pass excludeID 0 to consider every node.
func (s *NodeStore) NameExists(ctx context.Context, kind models.Kind, name string, excludeID int64) (bool, error) {
	var ok bool
	err := s.c.queryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM metas WHERE type = $1 AND name = $2 AND mid <> $3)`,
		[]any{kind, name, excludeID}, &ok)
	if err != nil {
		return false, fmt.Errorf("node name exists: %w", err)
	}
	return ok, nil
}

// SlugExists reports whether another node of the kind already uses slug.
func (s *NodeStore) SlugExists(ctx context.Context, kind models.Kind, slug string, excludeID int64) (bool, error) {
	var ok bool
	err := s.c.queryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM metas WHERE type = $1 AND slug = $2 AND mid <> $3)`,
		[]any{kind, slug, excludeID}, &ok)
	if err != nil {
		return false, fmt.Errorf("node slug exists: %w", err)
	}
	return ok, nil
}

// MaxOrder returns the highest order among siblings under parent, or 0
// when the bucket is empty.
func (s *NodeStore) MaxOrder(ctx context.Context, kind models.Kind, parent int64) (int, error) {
	var highest int
	err := s.c.queryRow(ctx,
		`SELECT COALESCE(MAX("order"), 0) FROM metas WHERE type = $1 AND parent = $2`,
		[]any{kind, parent}, &highest)
	if err != nil {
		return 0, fmt.Errorf("node max order: %w", err)
	}
	return highest, nil
}

// Insert stores a new node and returns its id.
func (s *NodeStore) Insert(ctx context.Context, n *models.Node) (int64, error) {
	var id int64
	err := s.c.queryRow(ctx, `
		INSERT INTO metas (name, slug, type, description, count, "order", parent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING mid`,
		[]any{n.Name, n.Slug, n.Kind, n.Description, n.Count, n.Order, n.Parent}, &id)
	if err != nil {
		return 0, fmt.Errorf("insert node: %w", err)
	}
	return id, nil
}

// Update writes the mutable columns of n. Count is left untouched.
func (s *NodeStore) Update(ctx context.Context, n *models.Node) error {
	_, err := s.c.exec(ctx, `
		UPDATE metas SET name = $1, slug = $2, description = $3, parent = $4, "order" = $5
		WHERE type = $6 AND mid = $7`,
		n.Name, n.Slug, n.Description, n.Parent, n.Order, n.Kind, n.ID)
	if err != nil {
		return fmt.Errorf("update node %d: %w", n.ID, err)
	}
	return nil
}

// Delete removes a node row.
func (s *NodeStore) Delete(ctx context.Context, kind models.Kind, id int64) error {
	_, err := s.c.exec(ctx, `DELETE FROM metas WHERE type = $1 AND mid = $2`, kind, id)
	if err != nil {
		return fmt.Errorf("delete node %d: %w", id, err)
	}
	return nil
}

// Get retrieves a node. Returns nil if not found.
func (s *NodeStore) Get(ctx context.Context, kind models.Kind, id int64) (*models.Node, error) {
	var n models.Node
	err := s.c.queryRow(ctx,
		`SELECT `+nodeColumns+` FROM metas WHERE type = $1 AND mid = $2`,
		[]any{kind, id},
		&n.ID, &n.Kind, &n.Name, &n.Slug, &n.Description, &n.Parent, &n.Order, &n.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get node %d: %w", id, err)
	}
	return &n, nil
}

func (s *NodeStore) list(ctx context.Context, op, query string, args ...any) ([]models.Node, error) {
	var items []models.Node
	err := s.c.query(ctx, query, args, func(rows *sql.Rows) error {
		n, err := scanNode(rows)
		if err != nil {
			return err
		}
		items = append(items, n)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// List returns every node of the kind ordered by (parent, order, id).
func (s *NodeStore) List(ctx context.Context, kind models.Kind) ([]models.Node, error) {
	return s.list(ctx, "list nodes",
		`SELECT `+nodeColumns+` FROM metas WHERE type = $1 ORDER BY parent, "order", mid`, kind)
}

// Page returns one page of nodes in List order.
func (s *NodeStore) Page(ctx context.Context, kind models.Kind, limit, offset int) ([]models.Node, error) {
	return s.list(ctx, "page nodes",
		`SELECT `+nodeColumns+` FROM metas WHERE type = $1 ORDER BY parent, "order", mid LIMIT $2 OFFSET $3`,
		kind, limit, offset)
}

// Count returns the number of nodes of the kind.
func (s *NodeStore) Count(ctx context.Context, kind models.Kind) (int, error) {
	var n int
	if err := s.c.queryRow(ctx, `SELECT COUNT(*) FROM metas WHERE type = $1`, []any{kind}, &n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// Reparent moves every child of from under to, keeping their order.
// Returns the number of children moved.
func (s *NodeStore) Reparent(ctx context.Context, kind models.Kind, from, to int64) (int64, error) {
	res, err := s.c.exec(ctx, `UPDATE metas SET parent = $1 WHERE type = $2 AND parent = $3`, to, kind, from)
	if err != nil {
		return 0, fmt.Errorf("reparent children of %d: %w", from, err)
	}
	return res.RowsAffected()
}

// AdjustCount adds delta to a node's count, never letting it drop below 0.
func (s *NodeStore) AdjustCount(ctx context.Context, kind models.Kind, id int64, delta int) error {
	_, err := s.c.exec(ctx,
		`UPDATE metas SET count = GREATEST(count + $1, 0) WHERE type = $2 AND mid = $3`,
		delta, kind, id)
	if err != nil {
		return fmt.Errorf("adjust count of %d: %w", id, err)
	}
	return nil
}

// RecountTags sets every tag's count to the number of published posts
// linked to it.
func (s *NodeStore) RecountTags(ctx context.Context) error {
	_, err := s.c.exec(ctx, `
		UPDATE metas m SET count = (
			SELECT COUNT(*)
			FROM relationships r
			JOIN contents c ON r.cid = c.cid
			WHERE r.mid = m.mid AND c.type = 'post' AND c.status = 'publish'
		)
		WHERE m.type = 'tag'`)
	if err != nil {
		return fmt.Errorf("recount tags: %w", err)
	}
	return nil
}

// DeleteUnusedTags removes tags whose count is 0 and returns their ids.
func (s *NodeStore) DeleteUnusedTags(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.c.query(ctx,
		`DELETE FROM metas WHERE type = 'tag' AND count = 0 RETURNING mid`, nil,
		func(rows *sql.Rows) error {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("delete unused tags: %w", err)
	}
	return ids, nil
}
