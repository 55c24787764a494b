// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"metapress/internal/errors"
	"metapress/internal/models"
	"metapress/internal/response"
	"metapress/internal/service"
)

// createNodeRequest is the body of POST /api/categories and /api/tags.
type createNodeRequest struct {
	Name        string `json:"name" validate:"max=150"`
	Slug        string `json:"slug" validate:"max=150"`
	Description string `json:"description" validate:"max=1000"`
	Parent      *int64 `json:"parent" validate:"omitempty,gte=0"`
}

// updateNodeRequest is the body of PUT /api/{kind}/{id}. Absent fields are
// left unchanged; "parent": 0 moves the node to the root.
type updateNodeRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=150"`
	Slug        *string `json:"slug" validate:"omitempty,max=150"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Parent      *int64  `json:"parent" validate:"omitempty,gte=0"`
}

// deleteNodesRequest is the body of DELETE /api/tags.
type deleteNodesRequest struct {
	IDs idList `json:"mids"`
}

// ListNodes lists nodes of the kind. Tags are always paged; categories
// are returned in full unless page or per_page is given, or as the nested
// tree with tree=1.
func (a *API) ListNodes(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if kind.Hierarchical() && queryBool(r, "tree") {
			tree, err := a.taxonomy.Tree(ctx)
			if err != nil {
				response.HandleError(ctx, w, err)
				return
			}
			response.OK(w, tree)
			return
		}

		if page, perPage, ok := paging(r); ok || !kind.Hierarchical() {
			p, err := a.taxonomy.Page(ctx, kind, page, perPage)
			if err != nil {
				response.HandleError(ctx, w, err)
				return
			}
			response.OK(w, p)
			return
		}

		items, err := a.taxonomy.List(ctx, kind)
		if err != nil {
			response.HandleError(ctx, w, err)
			return
		}
		response.OK(w, items)
	}
}

// GetNode returns a single node.
func (a *API) GetNode(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathID(r, string(kind))
		if err != nil {
			response.HandleError(ctx, w, err)
			return
		}
		n, err := a.taxonomy.Get(ctx, kind, id)
		if err != nil {
			response.HandleError(ctx, w, err)
			return
		}
		response.OK(w, n)
	}
}

// CreateNode creates a category or tag.
func (a *API) CreateNode(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req createNodeRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			response.HandleError(ctx, w, err)
			return
		}

		in := service.CreateInput{
			Name:        req.Name,
			Slug:        req.Slug,
			Description: req.Description,
		}
		if req.Parent != nil {
			in.Parent = *req.Parent
		}

		n, err := a.taxonomy.Create(ctx, kind, in)
		if err != nil {
			response.HandleError(ctx, w, err)
			return
		}
		response.Created(w, n)
	}
}

// UpdateNode applies a partial update to a category or tag.
func (a *API) UpdateNode(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathID(r, string(kind))
		if err != nil {
			response.HandleError(ctx, w, err)
			return
		}
		var req updateNodeRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			response.HandleError(ctx, w, err)
			return
		}

		n, err := a.taxonomy.Update(ctx, kind, id, service.UpdateInput{
			Name:        req.Name,
			Slug:        req.Slug,
			Description: req.Description,
			Parent:      req.Parent,
		})
		if err != nil {
			response.HandleError(ctx, w, err)
			return
		}
		response.OK(w, n)
	}
}

// DeleteNode deletes a category or tag.
func (a *API) DeleteNode(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathID(r, string(kind))
		if err != nil {
			response.HandleError(ctx, w, err)
			return
		}
		if err := a.taxonomy.Delete(ctx, kind, id); err != nil {
			response.HandleError(ctx, w, err)
			return
		}
		response.OK(w, map[string]int64{"mid": id})
	}
}

// DeleteNodes deletes every listed node in one unit of work and returns
// the ids actually removed.
func (a *API) DeleteNodes(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req deleteNodesRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			response.HandleError(ctx, w, err)
			return
		}
		if len(req.IDs) == 0 {
			response.HandleError(ctx, w, errors.Validation("mids required"))
			return
		}

		deleted, err := a.taxonomy.DeleteMany(ctx, kind, req.IDs)
		if err != nil {
			response.HandleError(ctx, w, err)
			return
		}
		response.OK(w, map[string][]int64{"deleted": deleted})
	}
}

// RefreshTags recounts tags and removes the unused ones.
func (a *API) RefreshTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := a.taxonomy.SweepTags(ctx)
	if err != nil {
		response.HandleError(ctx, w, err)
		return
	}
	response.OK(w, map[string]int{"cleaned": n})
}
