// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"metapress/internal/models"
)

// RelationshipStore manages content-to-node links.
type RelationshipStore struct {
	c conn
}

// Link associates a content item with a node. Linking twice is a no-op.
func (s *RelationshipStore) Link(ctx context.Context, cid, mid int64) error {
	_, err := s.c.exec(ctx,
		`INSERT INTO relationships (cid, mid) VALUES ($1, $2) ON CONFLICT DO NOTHING`, cid, mid)
	if err != nil {
		return fmt.Errorf("link content %d to node %d: %w", cid, mid, err)
	}
	return nil
}

// Unlink removes a single link.
func (s *RelationshipStore) Unlink(ctx context.Context, cid, mid int64) error {
	_, err := s.c.exec(ctx, `DELETE FROM relationships WHERE cid = $1 AND mid = $2`, cid, mid)
	if err != nil {
		return fmt.Errorf("unlink content %d from node %d: %w", cid, mid, err)
	}
	return nil
}

// ListByContent returns the links of a content item with the kind of each
// referenced node. Links to vanished nodes carry an empty kind.
func (s *RelationshipStore) ListByContent(ctx context.Context, cid int64) ([]models.Link, error) {
	var links []models.Link
	err := s.c.query(ctx, `
		SELECT r.cid, r.mid, COALESCE(m.type, '')
		FROM relationships r
		LEFT JOIN metas m ON m.mid = r.mid
		WHERE r.cid = $1
		ORDER BY r.mid`,
		[]any{cid},
		func(rows *sql.Rows) error {
			var l models.Link
			if err := rows.Scan(&l.ContentID, &l.NodeID, &l.Kind); err != nil {
				return err
			}
			links = append(links, l)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list links of content %d: %w", cid, err)
	}
	return links, nil
}

// DeleteByNode removes every link that references a node and returns how
// many were removed.
func (s *RelationshipStore) DeleteByNode(ctx context.Context, mid int64) (int64, error) {
	res, err := s.c.exec(ctx, `DELETE FROM relationships WHERE mid = $1`, mid)
	if err != nil {
		return 0, fmt.Errorf("delete links of node %d: %w", mid, err)
	}
	return res.RowsAffected()
}

// DeleteByContent removes every link of a content item.
func (s *RelationshipStore) DeleteByContent(ctx context.Context, cid int64) error {
	if _, err := s.c.exec(ctx, `DELETE FROM relationships WHERE cid = $1`, cid); err != nil {
		return fmt.Errorf("delete links of content %d: %w", cid, err)
	}
	return nil
}

// NodesForContent returns the nodes of one kind linked to a content item,
// in sibling order.
func (s *RelationshipStore) NodesForContent(ctx context.Context, cid int64, kind models.Kind) ([]models.Node, error) {
	var items []models.Node
	err := s.c.query(ctx, `
		SELECT m.mid, m.type, m.name, m.slug, m.description, m.parent, m."order", m.count
		FROM metas m
		JOIN relationships r ON r.mid = m.mid
		WHERE r.cid = $1 AND m.type = $2
		ORDER BY m.parent, m."order", m.mid`,
		[]any{cid, kind},
		func(rows *sql.Rows) error {
			n, err := scanNode(rows)
			if err != nil {
				return err
			}
			items = append(items, n)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("nodes of content %d: %w", cid, err)
	}
	return items, nil
}
