// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"metapress/internal/errors"
	"metapress/internal/markdown"
	"metapress/internal/models"
)

// Listing limits for paginated post lists.
const (
	DefaultPostsPerPage = 10
	MaxPostsPerPage     = 100
)

// Validation messages for posts.
const (
	MsgTitleRequired = "title required"
	MsgTextRequired  = "text required"
	MsgBadStatus     = "invalid status"
)

// CreatePostInput carries a new post. AuthorID comes from the
// authenticated principal. Created 0 means now; Status "" means publish.
// Markdown stores Text with the Markdown marker.
type CreatePostInput struct {
	Title      string
	Text       string
	Slug       string
	Status     models.ContentStatus
	AuthorID   int64
	Created    int64
	Password   string
	Markdown   bool
	Categories []int64
	Tags       []int64
}

// ContentService creates, deletes and reads posts while keeping the
// reference counts of their categories and tags in step.
type ContentService struct {
	uow             Beginner
	cache           Cache
	defaultCategory int64
	now             func() time.Time
}

// NewContentService creates a ContentService. Posts created without
// categories are filed under defaultCategory unless it is 0. cache may be nil.
func NewContentService(uow Beginner, cache Cache, defaultCategory int64) *ContentService {
	return &ContentService{
		uow:             uow,
		cache:           cache,
		defaultCategory: defaultCategory,
		now:             time.Now,
	}
}

func (s *ContentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateKind(ctx, models.KindCategory)
	s.cache.InvalidateKind(ctx, models.KindTag)
}

// Create inserts a post and links it to its categories and tags. Every
// category must exist; unknown tags are skipped with a warning. When the
// post is published each linked node's count goes up by one.
func (s *ContentService) Create(ctx context.Context, in CreatePostInput) (*models.Content, error) {
	const op = "create post"

	status := in.Status
	if status == "" {
		status = models.ContentStatusPublish
	}
	categories := in.Categories
	if len(categories) == 0 && s.defaultCategory != 0 {
		categories = []int64{s.defaultCategory}
	}
	categories = dedupe(categories)
	tags := dedupe(in.Tags)

	c, err := run(ctx, s.uow, op, func(u *UnitOfWork) (*models.Content, error) {
		var problems errors.Problems
		if strings.TrimSpace(in.Title) == "" {
			problems.Add(MsgTitleRequired)
		}
		if strings.TrimSpace(in.Text) == "" {
			problems.Add(MsgTextRequired)
		}
		if !status.Valid() {
			problems.Add(MsgBadStatus)
		}
		for _, mid := range categories {
			ok, err := u.Nodes.Exists(ctx, models.KindCategory, mid)
			if err != nil {
				return nil, storageErr(ctx, op, mid, err)
			}
			if !ok {
				problems.Addf("category %d not found", mid)
			}
		}
		if err := problems.Err(); err != nil {
			return nil, err
		}

		text := in.Text
		if in.Markdown {
			text = markdown.Mark(text)
		}
		now := s.now().Unix()
		c := &models.Content{
			Title:    strings.TrimSpace(in.Title),
			Slug:     strings.TrimSpace(in.Slug),
			Text:     text,
			Type:     models.ContentTypePost,
			Status:   status,
			AuthorID: in.AuthorID,
			Password: in.Password,
			Created:  in.Created,
			Modified: now,
		}
		if c.Created == 0 {
			c.Created = now
		}

		id, err := u.Contents.Insert(ctx, c)
		if err != nil {
			return nil, storageErr(ctx, op, 0, err)
		}
		c.ID = id

		link := func(kind models.Kind, mid int64) error {
			if err := u.Links.Link(ctx, id, mid); err != nil {
				return storageErr(ctx, op, id, err)
			}
			if c.IsPublished() {
				if err := u.Nodes.AdjustCount(ctx, kind, mid, +1); err != nil {
					return storageErr(ctx, op, mid, err)
				}
			}
			return nil
		}

		for _, mid := range categories {
			if err := link(models.KindCategory, mid); err != nil {
				return nil, err
			}
		}
		for _, mid := range tags {
			ok, err := u.Nodes.Exists(ctx, models.KindTag, mid)
			if err != nil {
				return nil, storageErr(ctx, op, mid, err)
			}
			if !ok {
				slog.WarnContext(ctx, "skipping unknown tag", "cid", id, "mid", mid)
				continue
			}
			if err := link(models.KindTag, mid); err != nil {
				return nil, err
			}
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	slog.InfoContext(ctx, "post created", "cid", c.ID, "status", c.Status)
	return c, nil
}

// Delete removes a post or post draft with its links, comments, fields and
// drafts, and detaches its attachments. Counts go down only when the
// deleted item was a published post, never below zero.
func (s *ContentService) Delete(ctx context.Context, cid int64) error {
	const op = "delete post"

	_, err := run(ctx, s.uow, op, func(u *UnitOfWork) (struct{}, error) {
		var none struct{}

		c, err := u.Contents.GetDeletable(ctx, cid)
		if err != nil {
			return none, storageErr(ctx, op, cid, err)
		}
		if c == nil {
			return none, errors.NotFoundf("post %d not found", cid)
		}

		if err := u.Contents.Delete(ctx, cid); err != nil {
			return none, storageErr(ctx, op, cid, err)
		}

		links, err := u.Links.ListByContent(ctx, cid)
		if err != nil {
			return none, storageErr(ctx, op, cid, err)
		}
		for _, l := range links {
			if err := u.Links.Unlink(ctx, cid, l.NodeID); err != nil {
				return none, storageErr(ctx, op, cid, err)
			}
			if c.IsPublished() && l.Kind.Valid() {
				if err := u.Nodes.AdjustCount(ctx, l.Kind, l.NodeID, -1); err != nil {
					return none, storageErr(ctx, op, l.NodeID, err)
				}
			}
		}

		if _, err := u.Contents.DeleteComments(ctx, cid); err != nil {
			return none, storageErr(ctx, op, cid, err)
		}
		if _, err := u.Contents.DetachAttachments(ctx, cid); err != nil {
			return none, storageErr(ctx, op, cid, err)
		}
		if err := u.Contents.DeleteFields(ctx, cid); err != nil {
			return none, storageErr(ctx, op, cid, err)
		}

		drafts, err := u.Contents.DraftsOf(ctx, cid)
		if err != nil {
			return none, storageErr(ctx, op, cid, err)
		}
		for _, d := range drafts {
			if err := u.Contents.Delete(ctx, d); err != nil {
				return none, storageErr(ctx, op, d, err)
			}
			if err := u.Links.DeleteByContent(ctx, d); err != nil {
				return none, storageErr(ctx, op, d, err)
			}
			if err := u.Contents.DeleteFields(ctx, d); err != nil {
				return none, storageErr(ctx, op, d, err)
			}
		}
		return none, nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	slog.InfoContext(ctx, "post deleted", "cid", cid)
	return nil
}

// List returns one page of posts, newest first.
func (s *ContentService) List(ctx context.Context, page, perPage int) (*Page[models.Content], error) {
	const op = "list posts"
	page, perPage, offset := pageBounds(page, perPage, DefaultPostsPerPage, MaxPostsPerPage)

	return run(ctx, s.uow, op, func(u *UnitOfWork) (*Page[models.Content], error) {
		total, err := u.Contents.CountByType(ctx, models.ContentTypePost)
		if err != nil {
			return nil, storageErr(ctx, op, 0, err)
		}
		items, err := u.Contents.ListByType(ctx, models.ContentTypePost, perPage, offset)
		if err != nil {
			return nil, storageErr(ctx, op, 0, err)
		}
		if items == nil {
			items = []models.Content{}
		}
		return &Page[models.Content]{
			Items:   items,
			Total:   total,
			Page:    page,
			PerPage: perPage,
			Pages:   pageCount(total, perPage),
		}, nil
	})
}

// Get returns a post with its categories and tags.
func (s *ContentService) Get(ctx context.Context, cid int64) (*models.Content, error) {
	const op = "get post"

	return run(ctx, s.uow, op, func(u *UnitOfWork) (*models.Content, error) {
		c, err := u.Contents.GetPost(ctx, cid)
		if err != nil {
			return nil, storageErr(ctx, op, cid, err)
		}
		if c == nil {
			return nil, errors.NotFoundf("post %d not found", cid)
		}
		if c.Categories, err = u.Links.NodesForContent(ctx, cid, models.KindCategory); err != nil {
			return nil, storageErr(ctx, op, cid, err)
		}
		if c.Tags, err = u.Links.NodesForContent(ctx, cid, models.KindTag); err != nil {
			return nil, storageErr(ctx, op, cid, err)
		}
		return c, nil
	})
}
