// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON API handlers for categories, tags and
// posts. Handlers decode and shape-check requests, call the services, and
// write the response envelope; every domain rule lives in the services.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"metapress/internal/errors"
	"metapress/internal/models"
	"metapress/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// TaxonomyService is the subset of service.TaxonomyService the API uses.
type TaxonomyService interface {
	Create(ctx context.Context, kind models.Kind, in service.CreateInput) (*models.Node, error)
	Update(ctx context.Context, kind models.Kind, id int64, in service.UpdateInput) (*models.Node, error)
	Delete(ctx context.Context, kind models.Kind, id int64) error
	DeleteMany(ctx context.Context, kind models.Kind, ids []int64) ([]int64, error)
	Get(ctx context.Context, kind models.Kind, id int64) (*models.Node, error)
	List(ctx context.Context, kind models.Kind) ([]models.Node, error)
	Page(ctx context.Context, kind models.Kind, page, perPage int) (*service.Page[models.Node], error)
	Tree(ctx context.Context) ([]models.Node, error)
	SweepTags(ctx context.Context) (int, error)
}

// ContentService is the subset of service.ContentService the API uses.
type ContentService interface {
	Create(ctx context.Context, in service.CreatePostInput) (*models.Content, error)
	Delete(ctx context.Context, cid int64) error
	List(ctx context.Context, page, perPage int) (*service.Page[models.Content], error)
	Get(ctx context.Context, cid int64) (*models.Content, error)
}

// API groups the JSON API handlers and their dependencies.
type API struct {
	taxonomy TaxonomyService
	content  ContentService
	validate *Validator
}

// New creates the API handler group.
func New(taxonomy TaxonomyService, content ContentService) *API {
	return &API{
		taxonomy: taxonomy,
		content:  content,
		validate: NewValidator(),
	}
}

// pathID parses the {id} route parameter. Non-numeric or non-positive ids
// are reported as not found, since no row can carry them.
func pathID(r *http.Request, what string) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NotFoundf("%s %q not found", what, raw)
	}
	return id, nil
}

// decodeJSON reads a size-limited JSON body into dst and shape-checks it.
func (a *API) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var idErr *invalidIDError
		switch {
		case errors.Is(err, io.EOF):
			return errors.Validation("request body required")
		case errors.As(err, &maxErr):
			return errors.Validation("request body too large")
		case errors.As(err, &idErr):
			return errors.Validation(idErr.Error())
		default:
			return errors.Validation("invalid JSON body")
		}
	}
	return a.validate.Validate(dst)
}

// paging reads page and per_page query parameters. ok is false when
// neither is present, meaning the caller wants the full list.
func paging(r *http.Request) (page, perPage int, ok bool) {
	q := r.URL.Query()
	if !q.Has("page") && !q.Has("per_page") {
		return 0, 0, false
	}
	// Malformed values fall back to the service defaults.
	page, _ = strconv.Atoi(q.Get("page"))
	perPage, _ = strconv.Atoi(q.Get("per_page"))
	return page, perPage, true
}

// queryBool reports whether a query flag is set to a truthy value.
func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}
