// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"metapress/internal/models"
)

func TestRelationshipStoreLinkIsIdempotent(t *testing.T) {
	tx := testTx(t, testStore(t))
	ctx := context.Background()

	cat := insertNode(t, tx, models.KindCategory, "news", 0, 1)
	tag := insertNode(t, tx, models.KindTag, "go", 0, 1)
	post := insertPost(t, tx, "hello", models.ContentStatusPublish)

	for i := 0; i < 2; i++ {
		if err := tx.Links.Link(ctx, post, cat); err != nil {
			t.Fatalf("Link category: %v", err)
		}
	}
	if err := tx.Links.Link(ctx, post, tag); err != nil {
		t.Fatalf("Link tag: %v", err)
	}

	links, err := tx.Links.ListByContent(ctx, post)
	if err != nil {
		t.Fatalf("ListByContent: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	kinds := map[int64]models.Kind{}
	for _, l := range links {
		kinds[l.NodeID] = l.Kind
	}
	if kinds[cat] != models.KindCategory || kinds[tag] != models.KindTag {
		t.Errorf("link kinds = %v", kinds)
	}

	cats, err := tx.Links.NodesForContent(ctx, post, models.KindCategory)
	if err != nil {
		t.Fatalf("NodesForContent: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != cat {
		t.Errorf("categories of post = %+v", cats)
	}
}

func TestRelationshipStoreDanglingLinkHasEmptyKind(t *testing.T) {
	tx := testTx(t, testStore(t))
	ctx := context.Background()

	post := insertPost(t, tx, "orphaned", models.ContentStatusPublish)
	if err := tx.Links.Link(ctx, post, 999); err != nil {
		t.Fatalf("Link: %v", err)
	}

	links, err := tx.Links.ListByContent(ctx, post)
	if err != nil {
		t.Fatalf("ListByContent: %v", err)
	}
	if len(links) != 1 || links[0].Kind != "" {
		t.Errorf("links = %+v, want one link with empty kind", links)
	}
}

func TestRelationshipStoreDeletes(t *testing.T) {
	tx := testTx(t, testStore(t))
	ctx := context.Background()

	tag := insertNode(t, tx, models.KindTag, "shared", 0, 1)
	p1 := insertPost(t, tx, "one", models.ContentStatusPublish)
	p2 := insertPost(t, tx, "two", models.ContentStatusPublish)
	for _, p := range []int64{p1, p2} {
		if err := tx.Links.Link(ctx, p, tag); err != nil {
			t.Fatal(err)
		}
	}

	if err := tx.Links.Unlink(ctx, p1, tag); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	n, err := tx.Links.DeleteByNode(ctx, tag)
	if err != nil {
		t.Fatalf("DeleteByNode: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteByNode removed %d, want 1", n)
	}

	if err := tx.Links.Link(ctx, p2, tag); err != nil {
		t.Fatal(err)
	}
	if err := tx.Links.DeleteByContent(ctx, p2); err != nil {
		t.Fatalf("DeleteByContent: %v", err)
	}
	links, _ := tx.Links.ListByContent(ctx, p2)
	if len(links) != 0 {
		t.Errorf("links after DeleteByContent = %+v", links)
	}
}
