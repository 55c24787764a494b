// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// ContentType distinguishes posts, drafts, attachments and pages in the
// unified contents table.
type ContentType string

const (
	ContentTypePost       ContentType = "post"
	ContentTypePostDraft  ContentType = "post_draft"
	ContentTypeAttachment ContentType = "attachment"
	ContentTypePage       ContentType = "page"
)

// ContentStatus represents the publishing state of a content item.
type ContentStatus string

const (
	ContentStatusPublish ContentStatus = "publish"
	ContentStatusDraft   ContentStatus = "draft"
	ContentStatusHidden  ContentStatus = "hidden"
	ContentStatusPrivate ContentStatus = "private"
	ContentStatusWaiting ContentStatus = "waiting"
)

// Valid reports whether s is a known status.
func (s ContentStatus) Valid() bool {
	switch s {
	case ContentStatusPublish, ContentStatusDraft, ContentStatusHidden,
		ContentStatusPrivate, ContentStatusWaiting:
		return true
	}
	return false
}

// Content represents a post (or one of its satellites) in the CMS.
// Created and Modified are Unix timestamps.
type Content struct {
	ID       int64         `json:"cid"`
	Title    string        `json:"title"`
	Slug     string        `json:"slug"`
	Text     string        `json:"text,omitempty"`
	Type     ContentType   `json:"type"`
	Status   ContentStatus `json:"status"`
	AuthorID int64         `json:"authorId"`
	Parent   int64         `json:"parent"`
	Password string        `json:"-"`
	Created  int64         `json:"created"`
	Modified int64         `json:"modified"`

	// HTML is the rendered body, filled only on request.
	HTML string `json:"html,omitempty"`

	Categories []Node `json:"categories,omitempty"`
	Tags       []Node `json:"tags,omitempty"`
}

// IsPublished returns true if the item counts toward taxonomy reference
// counts: only published posts are visible usage.
func (c *Content) IsPublished() bool {
	return c.Type == ContentTypePost && c.Status == ContentStatusPublish
}
