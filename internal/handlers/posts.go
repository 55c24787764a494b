// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"metapress/internal/errors"
	"metapress/internal/markdown"
	"metapress/internal/middleware"
	"metapress/internal/models"
	"metapress/internal/response"
	"metapress/internal/service"
)

// createPostRequest is the body of POST /api/posts. Status defaults to
// publish; categories default to the configured default category.
type createPostRequest struct {
	Title      string `json:"title" validate:"max=200"`
	Slug       string `json:"slug" validate:"max=200"`
	Text       string `json:"text" validate:"max=1000000"`
	Status     string `json:"status" validate:"max=16"`
	Created    int64  `json:"created" validate:"gte=0"`
	Password   string `json:"password" validate:"max=32"`
	Markdown   bool   `json:"markdown"`
	Categories idList `json:"categories"`
	Tags       idList `json:"tags"`
}

// CreatePost creates a post owned by the authenticated user.
func (a *API) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := middleware.PrincipalFromCtx(ctx)
	if p == nil {
		response.HandleError(ctx, w, errors.Unauthorized("authentication required"))
		return
	}

	var req createPostRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		response.HandleError(ctx, w, err)
		return
	}

	c, err := a.content.Create(ctx, service.CreatePostInput{
		Title:      req.Title,
		Slug:       req.Slug,
		Text:       req.Text,
		Status:     models.ContentStatus(req.Status),
		AuthorID:   p.UserID,
		Created:    req.Created,
		Password:   req.Password,
		Markdown:   req.Markdown,
		Categories: req.Categories,
		Tags:       req.Tags,
	})
	if err != nil {
		response.HandleError(ctx, w, err)
		return
	}
	response.Created(w, map[string]int64{"cid": c.ID})
}

// DeletePost deletes a post and everything attached to it.
func (a *API) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "post")
	if err != nil {
		response.HandleError(ctx, w, err)
		return
	}
	if err := a.content.Delete(ctx, id); err != nil {
		response.HandleError(ctx, w, err)
		return
	}
	response.OK(w, map[string]int64{"cid": id})
}

// ListPosts returns one page of posts, newest first.
func (a *API) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, perPage, _ := paging(r)
	p, err := a.content.List(ctx, page, perPage)
	if err != nil {
		response.HandleError(ctx, w, err)
		return
	}
	response.OK(w, p)
}

// GetPost returns a post with its categories and tags. With render=1 the
// body is also returned as HTML.
func (a *API) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "post")
	if err != nil {
		response.HandleError(ctx, w, err)
		return
	}
	c, err := a.content.Get(ctx, id)
	if err != nil {
		response.HandleError(ctx, w, err)
		return
	}
	if queryBool(r, "render") {
		if c.HTML, err = markdown.Render(c.Text); err != nil {
			slog.ErrorContext(ctx, "render post failed", "cid", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "render failed")
			return
		}
	}
	response.OK(w, c)
}
