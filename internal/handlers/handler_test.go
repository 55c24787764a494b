// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides fake services and a routed test server for the
// API handler tests. No database is needed.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"metapress/internal/auth"
	"metapress/internal/errors"
	"metapress/internal/middleware"
	"metapress/internal/models"
	"metapress/internal/service"
)

// fakeTaxonomy records the last call and returns canned results.
type fakeTaxonomy struct {
	err error

	kind     models.Kind
	id       int64
	ids      []int64
	createIn service.CreateInput
	updateIn service.UpdateInput
	page     int
	perPage  int
	calls    []string
	nodes    []models.Node
	deleted  []int64
	swept    int
}

func (f *fakeTaxonomy) record(call string, kind models.Kind) error {
	f.calls = append(f.calls, call)
	f.kind = kind
	return f.err
}

func (f *fakeTaxonomy) Create(_ context.Context, kind models.Kind, in service.CreateInput) (*models.Node, error) {
	f.createIn = in
	if err := f.record("create", kind); err != nil {
		return nil, err
	}
	return &models.Node{ID: 10, Kind: kind, Name: in.Name, Slug: in.Slug, Parent: in.Parent, Order: 1}, nil
}

func (f *fakeTaxonomy) Update(_ context.Context, kind models.Kind, id int64, in service.UpdateInput) (*models.Node, error) {
	f.id, f.updateIn = id, in
	if err := f.record("update", kind); err != nil {
		return nil, err
	}
	return &models.Node{ID: id, Kind: kind, Name: "updated"}, nil
}

func (f *fakeTaxonomy) Delete(_ context.Context, kind models.Kind, id int64) error {
	f.id = id
	return f.record("delete", kind)
}

func (f *fakeTaxonomy) DeleteMany(_ context.Context, kind models.Kind, ids []int64) ([]int64, error) {
	f.ids = ids
	if err := f.record("deleteMany", kind); err != nil {
		return nil, err
	}
	return f.deleted, nil
}

func (f *fakeTaxonomy) Get(_ context.Context, kind models.Kind, id int64) (*models.Node, error) {
	f.id = id
	if err := f.record("get", kind); err != nil {
		return nil, err
	}
	return &models.Node{ID: id, Kind: kind, Name: "Go", Slug: "go"}, nil
}

func (f *fakeTaxonomy) List(_ context.Context, kind models.Kind) ([]models.Node, error) {
	if err := f.record("list", kind); err != nil {
		return nil, err
	}
	return f.nodes, nil
}

func (f *fakeTaxonomy) Page(_ context.Context, kind models.Kind, page, perPage int) (*service.Page[models.Node], error) {
	f.page, f.perPage = page, perPage
	if err := f.record("page", kind); err != nil {
		return nil, err
	}
	return &service.Page[models.Node]{Items: f.nodes, Total: len(f.nodes), Page: 1, PerPage: 50, Pages: 1}, nil
}

func (f *fakeTaxonomy) Tree(_ context.Context) ([]models.Node, error) {
	if err := f.record("tree", models.KindCategory); err != nil {
		return nil, err
	}
	return f.nodes, nil
}

func (f *fakeTaxonomy) SweepTags(_ context.Context) (int, error) {
	if err := f.record("sweep", models.KindTag); err != nil {
		return 0, err
	}
	return f.swept, nil
}

// fakeContent records post calls.
type fakeContent struct {
	err      error
	createIn service.CreatePostInput
	id       int64
	page     int
	perPage  int
	calls    []string
}

func (f *fakeContent) Create(_ context.Context, in service.CreatePostInput) (*models.Content, error) {
	f.calls = append(f.calls, "create")
	f.createIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Content{ID: 42, Title: in.Title}, nil
}

func (f *fakeContent) Delete(_ context.Context, cid int64) error {
	f.calls = append(f.calls, "delete")
	f.id = cid
	return f.err
}

func (f *fakeContent) List(_ context.Context, page, perPage int) (*service.Page[models.Content], error) {
	f.calls = append(f.calls, "list")
	f.page, f.perPage = page, perPage
	if f.err != nil {
		return nil, f.err
	}
	return &service.Page[models.Content]{Items: []models.Content{{ID: 1}}, Total: 1, Page: 1, PerPage: 10, Pages: 1}, nil
}

func (f *fakeContent) Get(_ context.Context, cid int64) (*models.Content, error) {
	f.calls = append(f.calls, "get")
	f.id = cid
	if f.err != nil {
		return nil, f.err
	}
	return &models.Content{ID: cid, Title: "Hello", Text: "<!--markdown-->*hi*"}, nil
}

// allowAll authenticates every request as user 7.
type allowAll struct{}

func (allowAll) Authenticate(_ context.Context, c auth.Credentials) (*auth.Principal, error) {
	return &auth.Principal{UserID: 7, Name: c.Name}, nil
}

// testServer routes the API handlers the same way the router does.
func testServer(tax *fakeTaxonomy, content *fakeContent) http.Handler {
	api := New(tax, content)
	r := chi.NewRouter()
	for _, kind := range []models.Kind{models.KindCategory, models.KindTag} {
		base := "/api/" + kind.Plural()
		r.Get(base, api.ListNodes(kind))
		r.Get(base+"/{id}", api.GetNode(kind))
		r.Post(base, api.CreateNode(kind))
		r.Put(base+"/{id}", api.UpdateNode(kind))
		r.Delete(base+"/{id}", api.DeleteNode(kind))
	}
	r.Delete("/api/tags", api.DeleteNodes(models.KindTag))
	r.Post("/api/tags/refresh", api.RefreshTags)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAPIAuth(allowAll{}))
		r.Post("/api/posts", api.CreatePost)
		r.Get("/api/posts", api.ListPosts)
		r.Get("/api/posts/{id}", api.GetPost)
		r.Delete("/api/posts/{id}", api.DeletePost)
	})
	return r
}

// envelope mirrors response.Envelope with raw data for per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Errors  []string        `json:"errors"`
}

func do(t *testing.T, h http.Handler, method, target, body string, authed bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if authed {
		req.SetBasicAuth("admin", "admin")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "body: %s", rr.Body.String())
	return rr, env
}

func notFoundErr() error { return errors.NotFound("category 5 not found") }
