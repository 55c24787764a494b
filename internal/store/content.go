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

// ContentStore handles the contents rows and per-content satellites
// (comments, fields, attachments, drafts) touched by the post lifecycle.
type ContentStore struct {
	c conn
}

const contentColumns = `cid, title, slug, text, type, status, author_id, parent, password, created, modified`

func (s *ContentStore) get(ctx context.Context, op, where string, args ...any) (*models.Content, error) {
	var c models.Content
	err := s.c.queryRow(ctx, `SELECT `+contentColumns+` FROM contents WHERE `+where, args,
		&c.ID, &c.Title, &c.Slug, &c.Text, &c.Type, &c.Status,
		&c.AuthorID, &c.Parent, &c.Password, &c.Created, &c.Modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// GetPost retrieves a post. Returns nil if not found or not a post.
func (s *ContentStore) GetPost(ctx context.Context, cid int64) (*models.Content, error) {
	return s.get(ctx, "get post", `cid = $1 AND type = 'post'`, cid)
}

// GetDeletable retrieves a post or post draft. Returns nil if not found.
func (s *ContentStore) GetDeletable(ctx context.Context, cid int64) (*models.Content, error) {
	return s.get(ctx, "get deletable content", `cid = $1 AND type IN ('post', 'post_draft')`, cid)
}

// Insert stores a content row and returns its id.
func (s *ContentStore) Insert(ctx context.Context, c *models.Content) (int64, error) {
	var id int64
	err := s.c.queryRow(ctx, `
		INSERT INTO contents (title, slug, created, modified, text, author_id, type, status, password, parent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING cid`,
		[]any{c.Title, c.Slug, c.Created, c.Modified, c.Text, c.AuthorID, c.Type, c.Status, c.Password, c.Parent},
		&id)
	if err != nil {
		return 0, fmt.Errorf("insert content: %w", err)
	}
	return id, nil
}

// Delete removes a content row.
func (s *ContentStore) Delete(ctx context.Context, cid int64) error {
	if _, err := s.c.exec(ctx, `DELETE FROM contents WHERE cid = $1`, cid); err != nil {
		return fmt.Errorf("delete content %d: %w", cid, err)
	}
	return nil
}

// ListByType returns one page of content of the given type, newest first.
// Text is omitted from list results.
func (s *ContentStore) ListByType(ctx context.Context, t models.ContentType, limit, offset int) ([]models.Content, error) {
	var items []models.Content
	err := s.c.query(ctx, `
		SELECT cid, title, slug, type, status, author_id, parent, created, modified
		FROM contents
		WHERE type = $1
		ORDER BY created DESC, cid DESC
		LIMIT $2 OFFSET $3`,
		[]any{t, limit, offset},
		func(rows *sql.Rows) error {
			var c models.Content
			if err := rows.Scan(
				&c.ID, &c.Title, &c.Slug, &c.Type, &c.Status,
				&c.AuthorID, &c.Parent, &c.Created, &c.Modified,
			); err != nil {
				return err
			}
			items = append(items, c)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list content by type: %w", err)
	}
	return items, nil
}

// CountByType returns the number of content rows of the given type.
func (s *ContentStore) CountByType(ctx context.Context, t models.ContentType) (int, error) {
	var n int
	if err := s.c.queryRow(ctx, `SELECT COUNT(*) FROM contents WHERE type = $1`, []any{t}, &n); err != nil {
		return 0, fmt.Errorf("count content by type: %w", err)
	}
	return n, nil
}

// DeleteComments removes every comment on a content item.
func (s *ContentStore) DeleteComments(ctx context.Context, cid int64) (int64, error) {
	res, err := s.c.exec(ctx, `DELETE FROM comments WHERE cid = $1`, cid)
	if err != nil {
		return 0, fmt.Errorf("delete comments of %d: %w", cid, err)
	}
	return res.RowsAffected()
}

// DetachAttachments turns the attachments of a content item into
// standalone published attachments.
func (s *ContentStore) DetachAttachments(ctx context.Context, cid int64) (int64, error) {
	res, err := s.c.exec(ctx,
		`UPDATE contents SET parent = 0, status = 'publish' WHERE parent = $1 AND type = 'attachment'`, cid)
	if err != nil {
		return 0, fmt.Errorf("detach attachments of %d: %w", cid, err)
	}
	return res.RowsAffected()
}

// DeleteFields removes the custom fields of a content item.
func (s *ContentStore) DeleteFields(ctx context.Context, cid int64) error {
	if _, err := s.c.exec(ctx, `DELETE FROM fields WHERE cid = $1`, cid); err != nil {
		return fmt.Errorf("delete fields of %d: %w", cid, err)
	}
	return nil
}

// DraftsOf returns the ids of the post_draft rows whose parent is cid.
func (s *ContentStore) DraftsOf(ctx context.Context, cid int64) ([]int64, error) {
	var ids []int64
	err := s.c.query(ctx,
		`SELECT cid FROM contents WHERE parent = $1 AND type = 'post_draft' ORDER BY cid`,
		[]any{cid},
		func(rows *sql.Rows) error {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("drafts of %d: %w", cid, err)
	}
	return ids, nil
}
