// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"metapress/internal/errors"
	"metapress/internal/models"
	"metapress/internal/slug"
)

// Validation messages returned to clients.
const (
	MsgNameRequired   = "name required"
	MsgDuplicateName  = "duplicate name"
	MsgBadSlug        = "bad slug format"
	MsgDuplicateSlug  = "duplicate slug"
	MsgInvalidParent  = "invalid parent"
	MsgParentNotFound = "parent not found"
	MsgTagParent      = "tags cannot have a parent"
	MsgParentCycle    = "parent would create a cycle"
	MsgUnknownKind    = "unknown taxonomy type"
)

// Listing limits for paginated node lists.
const (
	DefaultNodesPerPage = 50
	MaxNodesPerPage     = 100
)

// CreateInput carries the fields of a new category or tag. Name and Slug
// are trimmed; an empty slug is derived from the name.
type CreateInput struct {
	Name        string
	Slug        string
	Description string
	Parent      int64
}

// UpdateInput carries a partial update. A nil field is left unchanged;
// Parent 0 moves the node to the root.
type UpdateInput struct {
	Name        *string
	Slug        *string
	Description *string
	Parent      *int64
}

// TaxonomyService enforces uniqueness, ordering, hierarchy and cascade
// rules for categories and tags.
type TaxonomyService struct {
	uow   Beginner
	cache Cache
}

// NewTaxonomyService creates a TaxonomyService. cache may be nil.
func NewTaxonomyService(uow Beginner, cache Cache) *TaxonomyService {
	return &TaxonomyService{uow: uow, cache: cache}
}

func (s *TaxonomyService) invalidate(ctx context.Context, kinds ...models.Kind) {
	if s.cache == nil {
		return
	}
	for _, k := range kinds {
		s.cache.InvalidateKind(ctx, k)
	}
}

func checkKind(kind models.Kind) error {
	if !kind.Valid() {
		return errors.Validation(MsgUnknownKind)
	}
	return nil
}

func notFound(kind models.Kind, id int64) error {
	return errors.NotFoundf("%s %d not found", kind, id)
}

// Create validates and inserts a node. Every validation failure is
// reported together. The node is appended after its last sibling.
func (s *TaxonomyService) Create(ctx context.Context, kind models.Kind, in CreateInput) (*models.Node, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	op := "create " + string(kind)
	name := strings.TrimSpace(in.Name)
	nodeSlug := strings.TrimSpace(in.Slug)

	n, err := run(ctx, s.uow, op, func(u *UnitOfWork) (*models.Node, error) {
		var problems errors.Problems

		if name == "" {
			problems.Add(MsgNameRequired)
		} else {
			dup, err := u.Nodes.NameExists(ctx, kind, name, 0)
			if err != nil {
				return nil, storageErr(ctx, op, 0, err)
			}
			if dup {
				problems.Add(MsgDuplicateName)
			}
		}

		if nodeSlug == "" && name != "" {
			nodeSlug = slug.Derive(name)
		}
		if nodeSlug != "" || name != "" {
			if !slug.Valid(nodeSlug) {
				problems.Add(MsgBadSlug)
			} else {
				dup, err := u.Nodes.SlugExists(ctx, kind, nodeSlug, 0)
				if err != nil {
					return nil, storageErr(ctx, op, 0, err)
				}
				if dup {
					problems.Add(MsgDuplicateSlug)
				}
			}
		}

		if err := s.checkNewParent(ctx, u, op, kind, in.Parent, &problems); err != nil {
			return nil, err
		}
		if err := problems.Err(); err != nil {
			return nil, err
		}

		highest, err := u.Nodes.MaxOrder(ctx, kind, in.Parent)
		if err != nil {
			return nil, storageErr(ctx, op, in.Parent, err)
		}

		n := &models.Node{
			Kind:        kind,
			Name:        name,
			Slug:        nodeSlug,
			Description: in.Description,
			Parent:      in.Parent,
			Order:       highest + 1,
		}
		id, err := u.Nodes.Insert(ctx, n)
		if err != nil {
			return nil, storageErr(ctx, op, 0, err)
		}
		n.ID = id
		return n, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, kind)
	slog.InfoContext(ctx, "taxonomy node created", "type", kind, "mid", n.ID, "slug", n.Slug)
	return n, nil
}

// checkNewParent records problems with a proposed parent that do not
// depend on the node's own position in the tree.
func (s *TaxonomyService) checkNewParent(ctx context.Context, u *UnitOfWork, op string, kind models.Kind, parent int64, problems *errors.Problems) error {
	if parent == 0 {
		return nil
	}
	if !kind.Hierarchical() {
		problems.Add(MsgTagParent)
		return nil
	}
	if parent < 0 {
		problems.Add(MsgInvalidParent)
		return nil
	}
	ok, err := u.Nodes.Exists(ctx, kind, parent)
	if err != nil {
		return storageErr(ctx, op, parent, err)
	}
	if !ok {
		problems.Add(MsgParentNotFound)
	}
	return nil
}

// createsCycle reports whether making parent the parent of id would make id
// its own ancestor. The walk stops at the root, at a dangling parent, or on
// reaching a node it has already seen, so pre-existing cycles elsewhere in
// the tree cannot hang it.
func createsCycle(ctx context.Context, nodes NodeStore, kind models.Kind, id, parent int64) (bool, error) {
	seen := map[int64]bool{}
	for cur := parent; cur != 0; {
		if cur == id {
			return true, nil
		}
		if seen[cur] {
			return false, nil
		}
		seen[cur] = true

		n, err := nodes.Get(ctx, kind, cur)
		if err != nil {
			return false, err
		}
		if n == nil {
			return false, nil
		}
		cur = n.Parent
	}
	return false, nil
}

// Update applies a partial update. Only changed values are checked for
// duplicates; a request that changes nothing does not touch storage.
// Moving a node to a new parent appends it after its new siblings.
func (s *TaxonomyService) Update(ctx context.Context, kind models.Kind, id int64, in UpdateInput) (*models.Node, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	op := "update " + string(kind)
	changed := false

	n, err := run(ctx, s.uow, op, func(u *UnitOfWork) (*models.Node, error) {
		cur, err := u.Nodes.Get(ctx, kind, id)
		if err != nil {
			return nil, storageErr(ctx, op, id, err)
		}
		if cur == nil {
			return nil, notFound(kind, id)
		}

		next := *cur
		var problems errors.Problems

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			switch {
			case name == "":
				problems.Add(MsgNameRequired)
			case name != cur.Name:
				dup, err := u.Nodes.NameExists(ctx, kind, name, id)
				if err != nil {
					return nil, storageErr(ctx, op, id, err)
				}
				if dup {
					problems.Add(MsgDuplicateName)
				}
				next.Name = name
			}
		}

		if in.Slug != nil {
			if v := strings.TrimSpace(*in.Slug); v != "" && v != cur.Slug {
				if !slug.Valid(v) {
					problems.Add(MsgBadSlug)
				} else {
					dup, err := u.Nodes.SlugExists(ctx, kind, v, id)
					if err != nil {
						return nil, storageErr(ctx, op, id, err)
					}
					if dup {
						problems.Add(MsgDuplicateSlug)
					}
				}
				next.Slug = v
			}
		}

		if in.Description != nil {
			next.Description = *in.Description
		}

		if in.Parent != nil && *in.Parent != cur.Parent {
			parent := *in.Parent
			next.Parent = parent
			if err := s.checkMove(ctx, u, op, kind, id, parent, &problems); err != nil {
				return nil, err
			}
		}

		if err := problems.Err(); err != nil {
			return nil, err
		}

		if next.Name == cur.Name && next.Slug == cur.Slug &&
			next.Description == cur.Description && next.Parent == cur.Parent {
			return cur, nil
		}

		if next.Parent != cur.Parent {
			highest, err := u.Nodes.MaxOrder(ctx, kind, next.Parent)
			if err != nil {
				return nil, storageErr(ctx, op, id, err)
			}
			next.Order = highest + 1
		}

		if err := u.Nodes.Update(ctx, &next); err != nil {
			return nil, storageErr(ctx, op, id, err)
		}
		changed = true
		return &next, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.invalidate(ctx, kind)
		slog.InfoContext(ctx, "taxonomy node updated", "type", kind, "mid", id)
	}
	return n, nil
}

// checkMove validates a parent change for an existing node.
func (s *TaxonomyService) checkMove(ctx context.Context, u *UnitOfWork, op string, kind models.Kind, id, parent int64, problems *errors.Problems) error {
	if parent > 0 && kind.Hierarchical() && parent == id {
		problems.Add(MsgParentCycle)
		return nil
	}

	before := len(*problems)
	if err := s.checkNewParent(ctx, u, op, kind, parent, problems); err != nil {
		return err
	}
	if len(*problems) > before || parent == 0 {
		return nil
	}

	cycle, err := createsCycle(ctx, u.Nodes, kind, id, parent)
	if err != nil {
		return storageErr(ctx, op, id, err)
	}
	if cycle {
		problems.Add(MsgParentCycle)
	}
	return nil
}

// deleteNode removes a node and its links, and lifts a category's children
// to the deleted node's parent. Counts of other nodes are not touched.
func deleteNode(ctx context.Context, u *UnitOfWork, op string, n *models.Node) error {
	if err := u.Nodes.Delete(ctx, n.Kind, n.ID); err != nil {
		return storageErr(ctx, op, n.ID, err)
	}
	if _, err := u.Links.DeleteByNode(ctx, n.ID); err != nil {
		return storageErr(ctx, op, n.ID, err)
	}
	if n.Kind.Hierarchical() {
		if _, err := u.Nodes.Reparent(ctx, n.Kind, n.ID, n.Parent); err != nil {
			return storageErr(ctx, op, n.ID, err)
		}
	}
	return nil
}

// Delete removes a node. Children of a deleted category move to its parent.
func (s *TaxonomyService) Delete(ctx context.Context, kind models.Kind, id int64) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	op := "delete " + string(kind)

	_, err := run(ctx, s.uow, op, func(u *UnitOfWork) (struct{}, error) {
		n, err := u.Nodes.Get(ctx, kind, id)
		if err != nil {
			return struct{}{}, storageErr(ctx, op, id, err)
		}
		if n == nil {
			return struct{}{}, notFound(kind, id)
		}
		return struct{}{}, deleteNode(ctx, u, op, n)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, kind)
	slog.InfoContext(ctx, "taxonomy node deleted", "type", kind, "mid", id)
	return nil
}

// DeleteMany deletes every listed node that exists, skipping unknown ids,
// in one unit of work. Returns the ids deleted, or NotFound when none of
// them existed.
func (s *TaxonomyService) DeleteMany(ctx context.Context, kind models.Kind, ids []int64) ([]int64, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	op := "delete " + kind.Plural()

	deleted, err := run(ctx, s.uow, op, func(u *UnitOfWork) ([]int64, error) {
		var deleted []int64
		for _, id := range dedupe(ids) {
			if id <= 0 {
				continue
			}
			n, err := u.Nodes.Get(ctx, kind, id)
			if err != nil {
				return nil, storageErr(ctx, op, id, err)
			}
			if n == nil {
				continue
			}
			if err := deleteNode(ctx, u, op, n); err != nil {
				return nil, err
			}
			deleted = append(deleted, id)
		}
		if len(deleted) == 0 {
			return nil, errors.NotFoundf("no matching %s", kind.Plural())
		}
		return deleted, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, kind)
	slog.InfoContext(ctx, "taxonomy nodes deleted", "type", kind, "count", len(deleted))
	return deleted, nil
}

// Get returns a single node.
func (s *TaxonomyService) Get(ctx context.Context, kind models.Kind, id int64) (*models.Node, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	op := "get " + string(kind)
	return run(ctx, s.uow, op, func(u *UnitOfWork) (*models.Node, error) {
		n, err := u.Nodes.Get(ctx, kind, id)
		if err != nil {
			return nil, storageErr(ctx, op, id, err)
		}
		if n == nil {
			return nil, notFound(kind, id)
		}
		return n, nil
	})
}

// List returns every node of the kind ordered by (parent, order, id).
func (s *TaxonomyService) List(ctx context.Context, kind models.Kind) ([]models.Node, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	var cached []models.Node
	if s.cache != nil && s.cache.Get(ctx, kind, "all", &cached) {
		return cached, nil
	}

	op := "list " + string(kind)
	items, err := run(ctx, s.uow, op, func(u *UnitOfWork) ([]models.Node, error) {
		items, err := u.Nodes.List(ctx, kind)
		if err != nil {
			return nil, storageErr(ctx, op, 0, err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Node{}
	}
	if s.cache != nil {
		s.cache.Set(ctx, kind, "all", items)
	}
	return items, nil
}

// Page returns one page of nodes with the total count.
func (s *TaxonomyService) Page(ctx context.Context, kind models.Kind, page, perPage int) (*Page[models.Node], error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	page, perPage, offset := pageBounds(page, perPage, DefaultNodesPerPage, MaxNodesPerPage)
	variant := fmt.Sprintf("page:%d:%d", page, perPage)

	var cached Page[models.Node]
	if s.cache != nil && s.cache.Get(ctx, kind, variant, &cached) {
		return &cached, nil
	}

	op := "page " + string(kind)
	p, err := run(ctx, s.uow, op, func(u *UnitOfWork) (*Page[models.Node], error) {
		total, err := u.Nodes.Count(ctx, kind)
		if err != nil {
			return nil, storageErr(ctx, op, 0, err)
		}
		items, err := u.Nodes.Page(ctx, kind, perPage, offset)
		if err != nil {
			return nil, storageErr(ctx, op, 0, err)
		}
		if items == nil {
			items = []models.Node{}
		}
		return &Page[models.Node]{
			Items:   items,
			Total:   total,
			Page:    page,
			PerPage: perPage,
			Pages:   pageCount(total, perPage),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, kind, variant, p)
	}
	return p, nil
}

// Tree returns all categories nested under their parents with Depth set.
// Categories whose parent no longer exists are shown as roots.
func (s *TaxonomyService) Tree(ctx context.Context) ([]models.Node, error) {
	var cached []models.Node
	if s.cache != nil && s.cache.Get(ctx, models.KindCategory, "tree", &cached) {
		return cached, nil
	}

	flat, err := s.List(ctx, models.KindCategory)
	if err != nil {
		return nil, err
	}
	tree := buildTree(flat)
	if s.cache != nil {
		s.cache.Set(ctx, models.KindCategory, "tree", tree)
	}
	return tree, nil
}

// SweepTags recounts every tag against published posts, then deletes tags
// no published post uses together with their remaining links. Returns the
// number of tags removed. Running it twice in a row removes nothing the
// second time.
func (s *TaxonomyService) SweepTags(ctx context.Context) (int, error) {
	const op = "sweep tags"

	removed, err := run(ctx, s.uow, op, func(u *UnitOfWork) ([]int64, error) {
		if err := u.Nodes.RecountTags(ctx); err != nil {
			return nil, storageErr(ctx, op, 0, err)
		}
		ids, err := u.Nodes.DeleteUnusedTags(ctx)
		if err != nil {
			return nil, storageErr(ctx, op, 0, err)
		}
		for _, id := range ids {
			if _, err := u.Links.DeleteByNode(ctx, id); err != nil {
				return nil, storageErr(ctx, op, id, err)
			}
		}
		return ids, nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, models.KindTag)
	slog.InfoContext(ctx, "tag sweep finished", "cleaned", len(removed))
	return len(removed), nil
}
